// Package cache provides a Redis-backed response cache for read-heavy list
// endpoints. Certificate reads are deliberately never cached: verification
// must always observe current revocation state.
package cache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"schoolchain/internal/platform/metrics"
	platformredis "schoolchain/internal/platform/redis"
)

// Cache wraps the shared Redis client for HTTP response caching. A nil
// underlying client disables caching, so wiring stays unconditional in the
// router.
type Cache struct {
	client  *platformredis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(client *platformredis.Client, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, metrics: m, logger: logger}
}

// Middleware caches successful GET responses under the given key prefix.
func (c *Cache) Middleware(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c.client == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := "cache:" + prefix + ":" + r.URL.Path + "?" + r.URL.RawQuery
			ctx := r.Context()

			if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
				c.metrics.CacheHits.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				_, _ = w.Write(cached)
				return
			}
			c.metrics.CacheMisses.Inc()

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK && rec.body.Len() > 0 {
				if err := c.client.Set(ctx, key, rec.body.Bytes(), c.ttl).Err(); err != nil {
					c.logger.WarnContext(ctx, "cache store failed", "key", key, "error", err)
				}
			}
		})
	}
}

// Invalidate drops every cached entry under the given key prefix. Write
// handlers call it after mutations so lists converge quickly.
func (c *Cache) Invalidate(ctx context.Context, prefix string) {
	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "cache:"+prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.status == http.StatusOK {
		r.body.Write(p)
	}
	return r.ResponseWriter.Write(p)
}
