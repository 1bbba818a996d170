package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolchain/internal/platform/metrics"
	"schoolchain/internal/platform/middleware"
	"schoolchain/pkg/platform/httputil"
)

// Registrar mounts a module's routes onto the shared router. Every
// domain handler implements this.
type Registrar interface {
	Register(r chi.Router)
}

// Options collects the cross-cutting pieces the router wires around the
// domain handlers.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

// NewRouter assembles the application router: platform middleware first,
// then every module's routes, plus health and metrics endpoints.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.LatencyMiddleware(opts.Metrics))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}

	return r
}
