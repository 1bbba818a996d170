// Package ipfs pins certificate metadata to a Pinata-compatible pinning
// service and fetches it back through the public gateway. The pinner is
// strictly best-effort from the caller's point of view: issuance and reads
// treat every failure here as "no metadata".
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"schoolchain/internal/certificate"
	"schoolchain/internal/platform/config"
	"schoolchain/pkg/platform/circuit"
)

var (
	// ErrNotConfigured means no credentials are on file; callers must check
	// IsConfigured before attempting an upload.
	ErrNotConfigured = errors.New("ipfs: pinning service not configured")
	// ErrUploadFailed wraps any remote pinning failure (network, auth, quota).
	ErrUploadFailed = errors.New("ipfs: upload failed")
	// ErrRetrievalFailed wraps any gateway fetch failure. The empty hash is a
	// legal input that always fails retrieval.
	ErrRetrievalFailed = errors.New("ipfs: retrieval failed")
)

// Pinner talks to the pinning REST API. No local persistence; network calls
// only.
type Pinner struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	gatewayURL string
	httpClient *http.Client

	// breaker guards the pinning API. When open, pin requests fail fast
	// instead of waiting out the HTTP timeout on every issuance.
	breaker *circuit.Breaker
}

// New builds a Pinner from configuration. Missing credentials are fine; the
// pinner just reports itself unconfigured.
func New(cfg config.IPFS) *Pinner {
	return &Pinner{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		baseURL:    cfg.BaseURL,
		gatewayURL: cfg.GatewayURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    circuit.New("ipfs-pinning"),
	}
}

// IsConfigured reports whether upload credentials are present. Check this
// before any upload attempt.
func (p *Pinner) IsConfigured() bool {
	return p.apiKey != "" && p.apiSecret != ""
}

// GatewayURL returns the deterministic retrieval URL for a hash.
func (p *Pinner) GatewayURL(hash string) string {
	return p.gatewayURL + "/" + hash
}

// pinDocument is the JSON shape pinned for each certificate, matching the
// NFT-style metadata convention the frontend verifier expects.
type pinDocument struct {
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	CertificateData certificate.Metadata `json:"certificateData"`
	Attributes      []attribute          `json:"attributes"`
}

type attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload pins the certificate metadata document and returns its content hash
// plus gateway URL.
func (p *Pinner) Upload(ctx context.Context, meta certificate.Metadata) (certificate.PinResult, error) {
	if !p.IsConfigured() {
		return certificate.PinResult{}, ErrNotConfigured
	}
	if !p.breaker.Allow() {
		return certificate.PinResult{}, fmt.Errorf("%w: pinning circuit open", ErrUploadFailed)
	}

	doc := pinDocument{
		Name:            "Certificate - " + meta.StudentName,
		Description:     "Student Achievement Certificate",
		CertificateData: meta,
		Attributes: []attribute{
			{TraitType: "Certificate Type", Value: meta.CertificateType},
			{TraitType: "Student Name", Value: meta.StudentName},
			{TraitType: "Issue Date", Value: meta.IssuedDate.Format(time.RFC3339)},
		},
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return certificate.PinResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return certificate.PinResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.breaker.RecordFailure()
		return certificate.PinResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.breaker.RecordFailure()
		return certificate.PinResult{}, fmt.Errorf("%w: unexpected status %d", ErrUploadFailed, resp.StatusCode)
	}
	p.breaker.RecordSuccess()

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return certificate.PinResult{}, fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	if pinned.IpfsHash == "" {
		return certificate.PinResult{}, fmt.Errorf("%w: response carried no hash", ErrUploadFailed)
	}

	return certificate.PinResult{Hash: pinned.IpfsHash, URL: p.GatewayURL(pinned.IpfsHash)}, nil
}

// Fetch retrieves a pinned document by hash through the gateway. Retrieval
// requires no credentials.
func (p *Pinner) Fetch(ctx context.Context, hash string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.GatewayURL(hash), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrRetrievalFailed, resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", ErrRetrievalFailed, err)
	}
	return doc, nil
}

// PinByHash asks the pinning service to pin content that already exists on
// the network.
func (p *Pinner) PinByHash(ctx context.Context, hash string) error {
	if !p.IsConfigured() {
		return ErrNotConfigured
	}
	if !p.breaker.Allow() {
		return fmt.Errorf("%w: pinning circuit open", ErrUploadFailed)
	}

	body, _ := json.Marshal(map[string]string{"hashToPin": hash})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinByHash", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	return p.do(req, ErrUploadFailed)
}

// Unpin removes a pin. Content may remain retrievable elsewhere on the
// network; unpinning only releases this service's replica.
func (p *Pinner) Unpin(ctx context.Context, hash string) error {
	if !p.IsConfigured() {
		return ErrNotConfigured
	}
	if !p.breaker.Allow() {
		return fmt.Errorf("%w: pinning circuit open", ErrUploadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/pinning/unpin/"+hash, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	p.authorize(req)

	return p.do(req, ErrUploadFailed)
}

func (p *Pinner) authorize(req *http.Request) {
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.apiSecret)
}

func (p *Pinner) do(req *http.Request, failure error) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.breaker.RecordFailure()
		return fmt.Errorf("%w: %v", failure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		p.breaker.RecordFailure()
		return fmt.Errorf("%w: unexpected status %d", failure, resp.StatusCode)
	}
	p.breaker.RecordSuccess()
	return nil
}
