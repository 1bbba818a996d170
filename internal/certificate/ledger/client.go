// Package ledger wraps the remote student-certificate contract. The client
// owns a one-time startup initialization: a failed initialization is terminal
// for the process (no retry) but never fatal to the host, which keeps serving
// in degraded mode with every ledger operation unavailable.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"schoolchain/internal/certificate"
	"schoolchain/internal/platform/config"
	"schoolchain/pkg/platform/sentinel"
)

// State tracks the client's initialization lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// Package errors. NotInitialized is the shared sentinel so the orchestrator
// can map it to a 503 without importing this package's internals.
var (
	ErrNotInitialized    = sentinel.ErrNotInitialized
	ErrTransactionFailed = errors.New("ledger: transaction failed")
	ErrRetrievalFailed   = errors.New("ledger: retrieval failed")
)

// Dialer opens the contract transport once configuration is validated.
// Injectable so tests can supply a stub contract.
type Dialer func(endpoint, contractAddress, from string, iface *ContractInterface) (Contract, error)

// Client is the ledger-facing service. All methods except Initialize and
// IsInitialized require a completed, successful initialization.
type Client struct {
	cfg    config.Blockchain
	logger *slog.Logger
	dial   Dialer

	state         atomic.Int32
	contract      Contract
	network       string
	issuerAddress string
}

// Option configures a Client.
type Option func(*Client)

// WithDialer overrides the contract transport factory (tests).
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// New builds an uninitialized client. Call Initialize exactly once at
// startup before routing traffic to the orchestrator.
func New(cfg config.Blockchain, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		logger: logger,
		dial: func(endpoint, contractAddress, from string, iface *ContractInterface) (Contract, error) {
			return newRPCContract(endpoint, contractAddress, from, iface), nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize validates configuration, loads the contract interface, opens
// the transport and probes connectivity. It fails closed: any missing piece
// or probe failure logs, marks the client failed, and returns false. It never
// panics or returns an error that could crash startup. The host guarantees a
// single call per process lifetime.
func (c *Client) Initialize(ctx context.Context) bool {
	c.state.Store(int32(StateInitializing))

	if c.cfg.PrivateKey == "" || c.cfg.ContractAddress == "" {
		c.logger.Warn("blockchain not configured; set BLOCKCHAIN_PRIVATE_KEY and BLOCKCHAIN_CONTRACT_ADDRESS")
		c.state.Store(int32(StateFailed))
		return false
	}

	iface, err := LoadContractInterface(c.cfg.ContractABIPath)
	if err != nil {
		c.logger.Warn("contract interface not found; deploy the contract first", "path", c.cfg.ContractABIPath, "error", err)
		c.state.Store(int32(StateFailed))
		return false
	}

	endpoint, network := ResolveRPCURL(c.cfg.Network, c.cfg.RPCURLs)
	c.network = network
	c.issuerAddress = issuerAddressFromKey(c.cfg.PrivateKey)

	contract, err := c.dial(endpoint, c.cfg.ContractAddress, c.issuerAddress, iface)
	if err != nil {
		c.logger.Error("failed to open ledger transport", "endpoint", endpoint, "error", err)
		c.state.Store(int32(StateFailed))
		return false
	}

	// Connectivity probe: the chain height fetch must succeed before the
	// client advertises itself ready.
	height, err := contract.ChainHeight(ctx)
	if err != nil {
		c.logger.Error("ledger connectivity probe failed", "endpoint", endpoint, "error", err)
		c.state.Store(int32(StateFailed))
		return false
	}

	c.contract = contract
	c.state.Store(int32(StateReady))
	c.logger.Info("ledger client initialized",
		"network", network,
		"contract_address", c.cfg.ContractAddress,
		"issuer_address", c.issuerAddress,
		"chain_height", height,
	)
	return true
}

// IsInitialized reports whether the client reached the ready state. Pure
// state read, always safe.
func (c *Client) IsInitialized() bool {
	return State(c.state.Load()) == StateReady
}

// Network returns the resolved network name (after fallback).
func (c *Client) Network() string { return c.network }

// ContractAddress returns the configured contract address.
func (c *Client) ContractAddress() string { return c.cfg.ContractAddress }

// IssuerAddress returns the service's own signing identity.
func (c *Client) IssuerAddress() string { return c.issuerAddress }

// IssueCertificate submits an issuance transaction and waits for
// confirmation.
func (c *Client) IssueCertificate(ctx context.Context, recipient, name, email, certType, metadataHash string) (*certificate.IssueReceipt, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	receipt, err := c.contract.Submit(ctx, "issueCertificate", recipient, name, email, certType, metadataHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	event, err := receipt.Event("CertificateIssued")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	id, err := event.Uint64Arg("certificateId")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	return &certificate.IssueReceipt{
		CertificateID:   id,
		TransactionHash: receipt.TransactionHash,
		BlockNumber:     receipt.BlockNumber,
	}, nil
}

// VerifyCertificate reports whether a certificate exists and is unrevoked.
// Any remote error folds to false: at this layer "verification failed" and
// "does not exist" are indistinguishable by design.
func (c *Client) VerifyCertificate(ctx context.Context, id uint64) (bool, error) {
	if !c.IsInitialized() {
		return false, ErrNotInitialized
	}

	results, err := c.contract.Call(ctx, "verifyCertificate", id)
	if err != nil {
		c.logger.WarnContext(ctx, "certificate verification errored, reporting invalid", "certificate_id", id, "error", err)
		return false, nil
	}
	if len(results) != 1 {
		return false, nil
	}
	valid, err := asBool(results[0])
	if err != nil {
		return false, nil
	}
	return valid, nil
}

// GetCertificate fetches a certificate by id, rebuilding the issuance
// timestamp from the ledger's unix time representation.
func (c *Client) GetCertificate(ctx context.Context, id uint64) (*certificate.Certificate, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	results, err := c.contract.Call(ctx, "getCertificate", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	cert, err := decodeCertificate(results)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	return cert, nil
}

// GetStudentCertificates lists certificate ids held by an address. A remote
// error yields an empty list, not an error: callers treat "no certificates"
// and "query failed" identically.
func (c *Client) GetStudentCertificates(ctx context.Context, address string) []uint64 {
	if !c.IsInitialized() {
		return nil
	}

	results, err := c.contract.Call(ctx, "getStudentCertificates", address)
	if err != nil || len(results) != 1 {
		c.logger.WarnContext(ctx, "student certificate listing errored, returning empty", "address", address, "error", err)
		return nil
	}
	ids, err := asUint64Slice(results[0])
	if err != nil {
		return nil
	}
	return ids
}

// RevokeCertificate marks a certificate revoked. Revocation is monotonic;
// there is no un-revoke.
func (c *Client) RevokeCertificate(ctx context.Context, id uint64) (*certificate.RevokeReceipt, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	receipt, err := c.contract.Submit(ctx, "revokeCertificate", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return &certificate.RevokeReceipt{
		TransactionHash: receipt.TransactionHash,
		BlockNumber:     receipt.BlockNumber,
	}, nil
}

// VerifyCertificateByHash resolves a metadata hash to its certificate, if
// any. Soft-fails to (false, 0) on remote errors.
func (c *Client) VerifyCertificateByHash(ctx context.Context, metadataHash string) (bool, uint64) {
	if !c.IsInitialized() {
		return false, 0
	}

	results, err := c.contract.Call(ctx, "verifyCertificateByHash", metadataHash)
	if err != nil || len(results) != 2 {
		return false, 0
	}
	valid, err := asBool(results[0])
	if err != nil || !valid {
		return false, 0
	}
	id, err := asUint64(results[1])
	if err != nil {
		return false, 0
	}
	return true, id
}

// GetTotalCertificates counts all issued certificates, soft-failing to zero
// on error.
func (c *Client) GetTotalCertificates(ctx context.Context) uint64 {
	if !c.IsInitialized() {
		return 0
	}

	results, err := c.contract.Call(ctx, "getTotalCertificates")
	if err != nil || len(results) != 1 {
		c.logger.WarnContext(ctx, "total certificates query errored, returning zero", "error", err)
		return 0
	}
	total, err := asUint64(results[0])
	if err != nil {
		return 0
	}
	return total
}

// AddIssuer grants issuance rights to an address. Admin-only; authorization
// is enforced upstream.
func (c *Client) AddIssuer(ctx context.Context, address string) (*certificate.RevokeReceipt, error) {
	return c.adminSubmit(ctx, "addIssuer", address)
}

// RemoveIssuer withdraws issuance rights from an address.
func (c *Client) RemoveIssuer(ctx context.Context, address string) (*certificate.RevokeReceipt, error) {
	return c.adminSubmit(ctx, "removeIssuer", address)
}

func (c *Client) adminSubmit(ctx context.Context, method, address string) (*certificate.RevokeReceipt, error) {
	if !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	receipt, err := c.contract.Submit(ctx, method, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return &certificate.RevokeReceipt{
		TransactionHash: receipt.TransactionHash,
		BlockNumber:     receipt.BlockNumber,
	}, nil
}

// decodeCertificate unpacks the getCertificate tuple in contract field
// order: id, studentAddress, studentName, studentEmail, certificateType,
// ipfsHash, issuedAt, issuedBy, revoked.
func decodeCertificate(results []any) (*certificate.Certificate, error) {
	if len(results) != 9 {
		return nil, fmt.Errorf("expected 9 fields, got %d", len(results))
	}

	id, err := asUint64(results[0])
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	address, err := asString(results[1])
	if err != nil {
		return nil, fmt.Errorf("studentAddress: %w", err)
	}
	name, err := asString(results[2])
	if err != nil {
		return nil, fmt.Errorf("studentName: %w", err)
	}
	email, err := asString(results[3])
	if err != nil {
		return nil, fmt.Errorf("studentEmail: %w", err)
	}
	certType, err := asString(results[4])
	if err != nil {
		return nil, fmt.Errorf("certificateType: %w", err)
	}
	hash, err := asString(results[5])
	if err != nil {
		return nil, fmt.Errorf("ipfsHash: %w", err)
	}
	issuedAt, err := asInt64(results[6])
	if err != nil {
		return nil, fmt.Errorf("issuedAt: %w", err)
	}
	issuedBy, err := asString(results[7])
	if err != nil {
		return nil, fmt.Errorf("issuedBy: %w", err)
	}
	revoked, err := asBool(results[8])
	if err != nil {
		return nil, fmt.Errorf("revoked: %w", err)
	}

	return &certificate.Certificate{
		ID:               id,
		RecipientAddress: address,
		RecipientName:    name,
		RecipientEmail:   email,
		CertificateType:  certType,
		MetadataHash:     hash,
		IssuedAt:         time.Unix(issuedAt, 0).UTC(),
		IssuedBy:         issuedBy,
		Revoked:          revoked,
	}, nil
}

// issuerAddressFromKey derives the service's sender address from its signing
// key so logs and issuedBy fields carry a stable identity without exposing
// the key itself.
func issuerAddressFromKey(privateKey string) string {
	sum := sha256.Sum256([]byte(privateKey))
	return "0x" + hex.EncodeToString(sum[:20])
}
