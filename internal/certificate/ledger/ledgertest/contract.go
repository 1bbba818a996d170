// Package ledgertest provides an in-memory stub of the student-certificate
// contract with the same observable semantics as the deployed one: monotonic
// ids assigned at confirmation, duplicate non-empty metadata hashes rejected,
// monotonic revocation, per-recipient id listings.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schoolchain/internal/certificate/ledger"
)

// TransactionHash is the literal hash every stub submission reports.
const TransactionHash = "0xstubtransactionhash0000000000000000000000000000000000000000000000"

// IssuerAddress is the stub's fixed transaction sender identity.
const IssuerAddress = "0x00000000000000000000000000000000000000aa"

type storedCertificate struct {
	id           uint64
	recipient    string
	name         string
	email        string
	certType     string
	metadataHash string
	issuedAt     int64
	issuedBy     string
	revoked      bool
}

// StubContract implements ledger.Contract in memory.
type StubContract struct {
	mu sync.Mutex

	nextID      uint64
	blockNumber uint64
	certs       map[uint64]*storedCertificate
	byRecipient map[string][]uint64
	usedHashes  map[string]uint64
	issuers     map[string]bool

	// HeightErr makes the connectivity probe fail.
	HeightErr error
	// SubmitErr fails every Submit.
	SubmitErr error
	// CallErr fails every Call.
	CallErr error

	// Clock supplies issuance timestamps; defaults to time.Now.
	Clock func() time.Time
}

// New creates an empty stub ledger.
func New() *StubContract {
	return &StubContract{
		blockNumber: 100,
		certs:       make(map[uint64]*storedCertificate),
		byRecipient: make(map[string][]uint64),
		usedHashes:  make(map[string]uint64),
		issuers:     map[string]bool{IssuerAddress: true},
		Clock:       time.Now,
	}
}

func (s *StubContract) ChainHeight(context.Context) (uint64, error) {
	if s.HeightErr != nil {
		return 0, s.HeightErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockNumber, nil
}

func (s *StubContract) Submit(_ context.Context, method string, args ...any) (*ledger.Receipt, error) {
	if s.SubmitErr != nil {
		return nil, s.SubmitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockNumber++

	switch method {
	case "issueCertificate":
		return s.issue(args)
	case "revokeCertificate":
		return s.revoke(args)
	case "addIssuer":
		s.issuers[args[0].(string)] = true
		return s.receipt(), nil
	case "removeIssuer":
		delete(s.issuers, args[0].(string))
		return s.receipt(), nil
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func (s *StubContract) issue(args []any) (*ledger.Receipt, error) {
	if len(args) != 5 {
		return nil, errors.New("issueCertificate expects 5 arguments")
	}
	recipient := args[0].(string)
	metadataHash := args[4].(string)

	// The deployed contract rejects reuse of a non-empty metadata hash to
	// prevent duplicate-metadata replay. Empty hashes are exempt.
	if metadataHash != "" {
		if prev, used := s.usedHashes[metadataHash]; used {
			return nil, fmt.Errorf("execution reverted: metadata hash already used by certificate %d", prev)
		}
	}

	s.nextID++
	cert := &storedCertificate{
		id:           s.nextID,
		recipient:    recipient,
		name:         args[1].(string),
		email:        args[2].(string),
		certType:     args[3].(string),
		metadataHash: metadataHash,
		issuedAt:     s.Clock().Unix(),
		issuedBy:     IssuerAddress,
	}
	s.certs[cert.id] = cert
	s.byRecipient[recipient] = append(s.byRecipient[recipient], cert.id)
	if metadataHash != "" {
		s.usedHashes[metadataHash] = cert.id
	}

	receipt := s.receipt()
	receipt.Events = append(receipt.Events, ledger.Event{
		Name: "CertificateIssued",
		Args: map[string]any{"certificateId": cert.id, "student": recipient},
	})
	return receipt, nil
}

func (s *StubContract) revoke(args []any) (*ledger.Receipt, error) {
	id, err := toUint64(args[0])
	if err != nil {
		return nil, err
	}
	cert, ok := s.certs[id]
	if !ok {
		return nil, fmt.Errorf("execution reverted: certificate %d does not exist", id)
	}
	cert.revoked = true

	receipt := s.receipt()
	receipt.Events = append(receipt.Events, ledger.Event{
		Name: "CertificateRevoked",
		Args: map[string]any{"certificateId": id},
	})
	return receipt, nil
}

func (s *StubContract) Call(_ context.Context, method string, args ...any) ([]any, error) {
	if s.CallErr != nil {
		return nil, s.CallErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch method {
	case "verifyCertificate":
		id, err := toUint64(args[0])
		if err != nil {
			return nil, err
		}
		cert, ok := s.certs[id]
		return []any{ok && !cert.revoked}, nil

	case "getCertificate":
		id, err := toUint64(args[0])
		if err != nil {
			return nil, err
		}
		cert, ok := s.certs[id]
		if !ok {
			return nil, fmt.Errorf("execution reverted: certificate %d does not exist", id)
		}
		return []any{
			cert.id, cert.recipient, cert.name, cert.email,
			cert.certType, cert.metadataHash, cert.issuedAt, cert.issuedBy, cert.revoked,
		}, nil

	case "getStudentCertificates":
		ids := s.byRecipient[args[0].(string)]
		return []any{append([]uint64(nil), ids...)}, nil

	case "getTotalCertificates":
		return []any{uint64(len(s.certs))}, nil

	case "verifyCertificateByHash":
		id, used := s.usedHashes[args[0].(string)]
		return []any{used, id}, nil

	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func (s *StubContract) receipt() *ledger.Receipt {
	return &ledger.Receipt{
		TransactionHash: TransactionHash,
		BlockNumber:     s.blockNumber,
	}
}

// HasIssuer reports whether an address currently holds issuance rights.
func (s *StubContract) HasIssuer(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issuers[address]
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("cannot use %T as certificate id", v)
	}
}
