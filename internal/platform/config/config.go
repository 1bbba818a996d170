package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration so main stays lean.
type Config struct {
	Server     Server
	Database   Database
	Redis      Redis
	Blockchain Blockchain
	IPFS       IPFS
	Kafka      Kafka

	// InstitutionName is stamped into certificate metadata at issuance time.
	InstitutionName string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Database captures the PostgreSQL connection settings.
type Database struct {
	URL string
}

// Redis captures cache settings. An empty URL disables caching.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Blockchain captures the ledger client settings. PrivateKey and
// ContractAddress are required for initialization; the client fails closed
// without them.
type Blockchain struct {
	Network         string
	PrivateKey      string
	ContractAddress string
	ContractABIPath string

	// Per-network RPC endpoint overrides; the default table in the ledger
	// package fills the gaps.
	RPCURLs map[string]string
}

// IPFS captures pinning service credentials. Absent credentials mean the
// pinner reports itself unconfigured and issuance proceeds without metadata.
type IPFS struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	GatewayURL string
}

// Kafka captures audit event publishing settings. Empty brokers disable
// publishing.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("SCHOOLCHAIN_ADDR", ":5007"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     envDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Blockchain: Blockchain{
			Network:         envOr("BLOCKCHAIN_NETWORK", "localhost"),
			PrivateKey:      os.Getenv("BLOCKCHAIN_PRIVATE_KEY"),
			ContractAddress: os.Getenv("BLOCKCHAIN_CONTRACT_ADDRESS"),
			ContractABIPath: envOr("BLOCKCHAIN_CONTRACT_ABI", "StudentCertificate.abi.json"),
			RPCURLs: map[string]string{
				"localhost": os.Getenv("LOCALHOST_RPC_URL"),
				"sepolia":   os.Getenv("SEPOLIA_RPC_URL"),
				"polygon":   os.Getenv("POLYGON_RPC_URL"),
				"mumbai":    os.Getenv("MUMBAI_RPC_URL"),
			},
		},
		IPFS: IPFS{
			APIKey:     os.Getenv("PINATA_API_KEY"),
			APISecret:  os.Getenv("PINATA_SECRET_KEY"),
			BaseURL:    envOr("PINATA_BASE_URL", "https://api.pinata.cloud"),
			GatewayURL: envOr("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
		},
		Kafka: Kafka{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "schoolchain.audit"),
		},
		InstitutionName: envOr("INSTITUTION_NAME", "School Management System"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
