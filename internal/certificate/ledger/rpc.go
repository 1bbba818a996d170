package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// rpcContract speaks JSON-RPC to a contract gateway node. The gateway owns
// ABI encoding and transaction signing mechanics; this client only names the
// contract, the method, and the arguments, and waits for the confirmed
// receipt. Contract internals are out of scope here on purpose.
type rpcContract struct {
	endpoint        string
	contractAddress string
	from            string
	iface           *ContractInterface
	httpClient      *http.Client
	nextID          atomic.Uint64
}

// newRPCContract builds the gateway transport. The gateway holds the signing
// key; this client only identifies the sender by address.
func newRPCContract(endpoint, contractAddress, from string, iface *ContractInterface) *rpcContract {
	return &rpcContract{
		endpoint:        endpoint,
		contractAddress: contractAddress,
		from:            from,
		iface:           iface,
		// Submissions block until confirmation, so this timeout covers block
		// inclusion on slow networks.
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcReceipt struct {
	TransactionHash string     `json:"transactionHash"`
	BlockNumber     uint64     `json:"blockNumber"`
	Events          []rpcEvent `json:"events"`
}

type rpcEvent struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

func (c *rpcContract) ChainHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.invoke(ctx, "chain_height", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

func (c *rpcContract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	if !c.iface.HasMethod(method) {
		return nil, fmt.Errorf("ledger: contract interface does not declare method %q", method)
	}
	var results []any
	params := []any{c.contractAddress, method, args}
	if err := c.invoke(ctx, "contract_call", params, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *rpcContract) Submit(ctx context.Context, method string, args ...any) (*Receipt, error) {
	if !c.iface.HasMethod(method) {
		return nil, fmt.Errorf("ledger: contract interface does not declare method %q", method)
	}
	var raw rpcReceipt
	params := []any{c.contractAddress, c.from, method, args}
	if err := c.invoke(ctx, "contract_submit", params, &raw); err != nil {
		return nil, err
	}

	receipt := &Receipt{
		TransactionHash: raw.TransactionHash,
		BlockNumber:     raw.BlockNumber,
		Events:          make([]Event, 0, len(raw.Events)),
	}
	for _, ev := range raw.Events {
		receipt.Events = append(receipt.Events, Event{Name: ev.Name, Args: ev.Args})
	}
	return receipt, nil
}

func (c *rpcContract) invoke(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("ledger: marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ledger: build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger: rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger: rpc call %s: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("ledger: decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("ledger: rpc call %s failed: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("ledger: decode rpc result: %w", err)
	}
	return nil
}
