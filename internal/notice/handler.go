package notice

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"schoolchain/internal/platform/cache"
	"schoolchain/internal/platform/middleware"
	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/httputil"
)

// Handler exposes notices over HTTP. Listings are cached; publishing and
// deletion invalidate the cache.
type Handler struct {
	logger       *slog.Logger
	notices      *Service
	jwtValidator middleware.JWTValidator
	cache        *cache.Cache
}

func NewHandler(notices *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, c *cache.Cache) *Handler {
	return &Handler{logger: logger, notices: notices, jwtValidator: jwtValidator, cache: c}
}

// Register mounts the notice routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/notices", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(h.cache.Middleware("notices"))
			r.Get("/", h.handleList)
			r.Get("/{noticeId}", h.handleGet)
		})

		r.Post("/", h.handlePublish)
		r.Delete("/{noticeId}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	notices, err := h.notices.List(r.Context(), Audience(r.URL.Query().Get("audience")))
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notices": notices})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.noticeID(w, r)
	if !ok {
		return
	}
	notice, err := h.notices.Get(r.Context(), id)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notice)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Audience Audience `json:"audience"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	notice, err := h.notices.Publish(r.Context(), req.Title, req.Content, req.Audience, middleware.GetUserName(r.Context()))
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "notices")
	httputil.WriteJSON(w, http.StatusCreated, notice)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.noticeID(w, r)
	if !ok {
		return
	}
	if err := h.notices.Delete(r.Context(), id); err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "notices")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "notice deleted successfully"})
}

func (h *Handler) noticeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "noticeId"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notice id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "notice request failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
