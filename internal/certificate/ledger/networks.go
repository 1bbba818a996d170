package ledger

// DefaultNetwork is used when the requested network name is unrecognized.
// Resolution never fails on an unknown name, it only falls back.
const DefaultNetwork = "localhost"

var defaultRPCURLs = map[string]string{
	"localhost": "http://127.0.0.1:8545",
	"sepolia":   "https://rpc.sepolia.org",
	"polygon":   "https://polygon-rpc.com",
	"mumbai":    "https://rpc-mumbai.maticvigil.com",
}

// ResolveRPCURL maps a network name to its RPC endpoint. Configured overrides
// win over the built-in table; an unknown name resolves to the default
// network. The second return value is the network name actually used.
func ResolveRPCURL(network string, overrides map[string]string) (string, string) {
	if url := overrides[network]; url != "" {
		return url, network
	}
	if url, ok := defaultRPCURLs[network]; ok {
		return url, network
	}
	if url := overrides[DefaultNetwork]; url != "" {
		return url, DefaultNetwork
	}
	return defaultRPCURLs[DefaultNetwork], DefaultNetwork
}
