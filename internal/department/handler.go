package department

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

// Handler exposes department CRUD. Reads go through the response cache;
// writes invalidate it.
type Handler struct {
	logger       *slog.Logger
	departments  *Service
	jwtValidator middleware.JWTValidator
	cache        *cache.Cache
}

func NewHandler(departments *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, c *cache.Cache) *Handler {
	return &Handler{logger: logger, departments: departments, jwtValidator: jwtValidator, cache: c}
}

// Register mounts the department routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(h.cache.Middleware("departments"))
			r.Get("/", h.handleList)
			r.Get("/{departmentId}", h.handleGet)
		})

		r.Post("/", h.handleCreate)
		r.Put("/{departmentId}", h.handleRename)
		r.Delete("/{departmentId}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departments.List(r.Context())
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"departments": departments})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	dept, err := h.departments.Get(r.Context(), id)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	dept, err := h.departments.Create(r.Context(), req.Name)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "departments")
	httputil.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.departments.Rename(r.Context(), id, req.Name); err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "departments")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "department updated successfully"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	if err := h.departments.Delete(r.Context(), id); err != nil {
		h.writeError(r, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), "departments")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "department deleted successfully"})
}

func (h *Handler) departmentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "departmentId"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid department id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "department request failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
