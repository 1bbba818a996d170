package class

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

// Handler exposes class CRUD. Reads go through the response cache; writes
// invalidate it.
type Handler struct {
	logger       *slog.Logger
	classes      *Service
	jwtValidator middleware.JWTValidator
	cache        *cache.Cache
}

func NewHandler(classes *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, c *cache.Cache) *Handler {
	return &Handler{logger: logger, classes: classes, jwtValidator: jwtValidator, cache: c}
}

type classRequest struct {
	Name     string   `json:"name"`
	Sections []string `json:"sections"`
}

// Register mounts the class routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/classes", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(h.cache.Middleware("classes"))
			r.Get("/", h.handleList)
			r.Get("/{classId}", h.handleGet)
		})

		r.Post("/", h.handleCreate)
		r.Put("/{classId}", h.handleUpdate)
		r.Delete("/{classId}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	classes, err := h.classes.List(r.Context())
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.classID(w, r)
	if !ok {
		return
	}
	class, err := h.classes.Get(r.Context(), id)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, class)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	class, err := h.classes.Create(r.Context(), req.Name, req.Sections)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "classes")
	httputil.WriteJSON(w, http.StatusCreated, class)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.classID(w, r)
	if !ok {
		return
	}
	var req classRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	class, err := h.classes.Update(r.Context(), id, req.Name, req.Sections)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "classes")
	httputil.WriteJSON(w, http.StatusOK, class)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.classID(w, r)
	if !ok {
		return
	}
	if err := h.classes.Delete(r.Context(), id); err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "classes")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "class deleted successfully"})
}

func (h *Handler) classID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "classId"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid class id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "class request failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
