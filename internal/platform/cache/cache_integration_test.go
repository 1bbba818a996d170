//go:build integration

package cache_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolchain/internal/platform/cache"
	"schoolchain/internal/platform/metrics"
	platformredis "schoolchain/internal/platform/redis"
	"schoolchain/pkg/testutil/containers"
)

var cacheMetrics = metrics.New()

func newCachedRouter(t *testing.T) (http.Handler, *cache.Cache, *int) {
	t.Helper()

	rc := containers.NewRedisContainer(t)
	t.Cleanup(func() {
		_ = rc.Client.Close()
		_ = rc.Container.Terminate(context.Background())
	})

	logger := slog.New(slog.DiscardHandler)
	c := cache.New(&platformredis.Client{Client: rc.Client}, time.Minute, cacheMetrics, logger)

	hits := 0
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(c.Middleware("things"))
		r.Get("/things", func(w http.ResponseWriter, _ *http.Request) {
			hits++
			_, _ = w.Write([]byte(`{"hits":` + strconv.Itoa(hits) + `}`))
		})
	})
	return r, c, &hits
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestCache_ServesSecondReadFromRedis(t *testing.T) {
	router, _, hits := newCachedRouter(t)

	first := get(router, "/things")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Cache"))

	second := get(router, "/things")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, *hits)
}

func TestCache_InvalidateDropsPrefix(t *testing.T) {
	router, c, hits := newCachedRouter(t)

	get(router, "/things")
	get(router, "/things")
	require.Equal(t, 1, *hits)

	c.Invalidate(context.Background(), "things")

	rr := get(router, "/things")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("X-Cache"))
	assert.Equal(t, 2, *hits)
}

func TestCache_QueryStringsCacheSeparately(t *testing.T) {
	router, _, hits := newCachedRouter(t)

	get(router, "/things?page=1")
	get(router, "/things?page=2")
	assert.Equal(t, 2, *hits)

	rr := get(router, "/things?page=1")
	assert.Equal(t, "HIT", rr.Header().Get("X-Cache"))
	assert.Equal(t, 2, *hits)
}
