package ipfs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolchain/internal/certificate"
	"schoolchain/internal/platform/config"
)

func testMetadata() certificate.Metadata {
	return certificate.Metadata{
		StudentName:     "John Doe",
		StudentEmail:    "john@example.com",
		StudentID:       42,
		CertificateType: "Academic Excellence",
		Achievement:     "Academic Excellence",
		IssuedDate:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Issuer:          "System Administrator",
		Institution:     "School Management System",
	}
}

func newTestPinner(apiURL, gatewayURL string) *Pinner {
	return New(config.IPFS{
		APIKey:     "key",
		APISecret:  "secret",
		BaseURL:    apiURL,
		GatewayURL: gatewayURL,
	})
}

func TestPinner_IsConfigured(t *testing.T) {
	assert.True(t, newTestPinner("http://api", "http://gw").IsConfigured())
	assert.False(t, New(config.IPFS{BaseURL: "http://api", GatewayURL: "http://gw"}).IsConfigured())
}

func TestPinner_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("pinata_api_key"))
		require.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		var doc map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		assert.Equal(t, "Certificate - John Doe", doc["name"])

		_ = json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "QmTestHash123"})
	}))
	defer srv.Close()

	pinner := newTestPinner(srv.URL, "https://gateway.example/ipfs")

	result, err := pinner.Upload(context.Background(), testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash123", result.Hash)
	assert.Equal(t, "https://gateway.example/ipfs/QmTestHash123", result.URL)
}

func TestPinner_Upload_NotConfigured(t *testing.T) {
	pinner := New(config.IPFS{BaseURL: "http://api", GatewayURL: "http://gw"})

	_, err := pinner.Upload(context.Background(), testMetadata())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestPinner_Upload_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	pinner := newTestPinner(srv.URL, "http://gw")

	_, err := pinner.Upload(context.Background(), testMetadata())
	require.ErrorIs(t, err, ErrUploadFailed)
}

func TestPinner_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ipfs/QmTestHash123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "Certificate - John Doe"})
	}))
	defer srv.Close()

	pinner := newTestPinner("http://unused", srv.URL+"/ipfs")

	doc, err := pinner.Fetch(context.Background(), "QmTestHash123")
	require.NoError(t, err)
	assert.Equal(t, "Certificate - John Doe", doc["name"])
}

func TestPinner_Fetch_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pinner := newTestPinner("http://unused", srv.URL+"/ipfs")

	_, err := pinner.Fetch(context.Background(), "QmMissing")
	require.ErrorIs(t, err, ErrRetrievalFailed)
}

func TestPinner_Unpin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/pinning/unpin/QmTestHash123", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pinner := newTestPinner(srv.URL, "http://gw")
	require.NoError(t, pinner.Unpin(context.Background(), "QmTestHash123"))
}

func TestPinner_Upload_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	pinner := newTestPinner(srv.URL, "http://gw")

	for range 5 {
		_, err := pinner.Upload(context.Background(), testMetadata())
		require.ErrorIs(t, err, ErrUploadFailed)
	}
	require.Equal(t, 5, requests)

	// Circuit is open now; the next attempt fails fast without a request.
	_, err := pinner.Upload(context.Background(), testMetadata())
	require.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, 5, requests)
}
