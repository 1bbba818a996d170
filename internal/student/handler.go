package student

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

// Handler exposes student CRUD over HTTP. All routes require authentication.
type Handler struct {
	logger       *slog.Logger
	students     *Service
	jwtValidator middleware.JWTValidator
	cache        *cache.Cache
}

func NewHandler(students *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, c *cache.Cache) *Handler {
	return &Handler{logger: logger, students: students, jwtValidator: jwtValidator, cache: c}
}

// Register mounts the student routes. Only the listing is cached; detail
// reads feed certificate issuance and must stay current.
func (h *Handler) Register(r chi.Router) {
	r.Route("/students", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(h.cache.Middleware("students"))
			r.Get("/", h.handleList)
		})

		r.Post("/", h.handleRegister)
		r.Get("/{studentId}", h.handleGet)
		r.Put("/{studentId}", h.handleUpdate)
		r.Post("/{studentId}/status", h.handleSetStatus)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Name:        q.Get("name"),
		ClassName:   q.Get("className"),
		SectionName: q.Get("section"),
	}
	filter.Roll, _ = strconv.Atoi(q.Get("roll"))
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.students.List(r.Context(), filter)
	if err != nil {
		h.writeError(r, w, "student listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.students.Register(r.Context(), req)
	if err != nil {
		h.writeError(r, w, "student registration failed", err)
		return
	}
	h.cache.Invalidate(r.Context(), "students")
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}
	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		h.writeError(r, w, "student lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, student)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.students.Update(r.Context(), id, req)
	if err != nil {
		h.writeError(r, w, "student update failed", err)
		return
	}
	h.cache.Invalidate(r.Context(), "students")
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "active flag is required"))
		return
	}
	if err := h.students.SetStatus(r.Context(), id, *req.Active); err != nil {
		h.writeError(r, w, "student status update failed", err)
		return
	}
	h.cache.Invalidate(r.Context(), "students")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "student status updated"})
}

func (h *Handler) studentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
