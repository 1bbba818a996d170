package cache_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"schoolchain/internal/platform/cache"
)

func TestCache_NilClientPassesThrough(t *testing.T) {
	c := cache.New(nil, time.Minute, nil, slog.New(slog.DiscardHandler))

	served := 0
	handler := c.Middleware("things")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		served++
		_, _ = w.Write([]byte(`{}`))
	}))

	for range 2 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things", nil))
		assert.Empty(t, rr.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, served)
}

func TestCache_NilClientInvalidateIsNoop(t *testing.T) {
	c := cache.New(nil, time.Minute, nil, slog.New(slog.DiscardHandler))
	c.Invalidate(context.Background(), "things")
}
