package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Contract is the narrow transport to the remote certificate contract. The
// ledger is an opaque service behind this interface: the production
// implementation speaks JSON-RPC to a contract gateway, tests use an
// in-memory stub with the same semantics.
type Contract interface {
	// ChainHeight probes connectivity by fetching the current block height.
	ChainHeight(ctx context.Context) (uint64, error)
	// Call performs a read-only contract method call.
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	// Submit sends a state-changing transaction and waits for confirmation.
	Submit(ctx context.Context, method string, args ...any) (*Receipt, error)
}

// Receipt is a confirmed transaction with its emitted events.
type Receipt struct {
	TransactionHash string
	BlockNumber     uint64
	Events          []Event
}

// Event is a decoded contract event from a confirmed receipt.
type Event struct {
	Name string
	Args map[string]any
}

// ErrEventNotFound means a confirmed receipt did not carry an event the
// client requires, e.g. CertificateIssued after an issuance.
var ErrEventNotFound = errors.New("ledger: expected event not found in receipt")

// Event returns the first event with the given name.
func (r *Receipt) Event(name string) (Event, error) {
	for _, ev := range r.Events {
		if ev.Name == name {
			return ev, nil
		}
	}
	return Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, name)
}

// Uint64Arg decodes a numeric event argument. JSON transports deliver
// numbers as float64 or strings, the stub uses native integers; all are
// accepted.
func (e Event) Uint64Arg(key string) (uint64, error) {
	v, ok := e.Args[key]
	if !ok {
		return 0, fmt.Errorf("ledger: event %s missing argument %q", e.Name, key)
	}
	n, err := asUint64(v)
	if err != nil {
		return 0, fmt.Errorf("ledger: event %s argument %q: %w", e.Name, key, err)
	}
	return n, nil
}
