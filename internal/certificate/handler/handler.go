// Package handler exposes the certificate orchestrator over HTTP. The verify
// and details routes are public so third parties can check a certificate
// without an account; everything else requires authentication.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"schoolchain/internal/certificate"
	"schoolchain/internal/platform/middleware"
	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/httputil"
)

// Service defines the orchestrator surface the handler consumes.
type Service interface {
	Issue(ctx context.Context, req certificate.IssueRequest, issuerName string) (*certificate.IssueResult, error)
	Verify(ctx context.Context, id uint64) (*certificate.VerifyResult, error)
	Get(ctx context.Context, id uint64) (*certificate.Detail, error)
	StudentCertificates(ctx context.Context, studentID int) ([]*certificate.Certificate, error)
	Revoke(ctx context.Context, id uint64) (*certificate.RevokeResult, error)
	Stats(ctx context.Context) *certificate.Stats
}

// Handler handles certificate endpoints.
type Handler struct {
	logger       *slog.Logger
	certificates Service
	jwtValidator middleware.JWTValidator
}

// New creates a certificate Handler.
func New(certificates Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		certificates: certificates,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the certificate routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/certificates", func(r chi.Router) {
		// Public verification surface.
		r.Get("/verify/{certificateId}", h.handleVerify)
		r.Get("/details/{certificateId}", h.handleGetDetails)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			r.Post("/", h.handleIssue)
			r.Get("/student/{studentId}", h.handleGetStudentCertificates)
			r.Post("/{certificateId}/revoke", h.handleRevoke)
			r.Get("/stats", h.handleStats)
		})
	})
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req certificate.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid issue request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.certificates.Issue(ctx, req, middleware.GetUserName(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "certificate issuance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.certificateID(w, r)
	if !ok {
		return
	}
	result, err := h.certificates.Verify(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "certificate verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.certificateID(w, r)
	if !ok {
		return
	}
	detail, err := h.certificates.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "certificate retrieval failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleGetStudentCertificates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	if err != nil || studentID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid student id"))
		return
	}
	certs, err := h.certificates.StudentCertificates(ctx, studentID)
	if err != nil {
		h.writeServiceError(ctx, w, "certificate listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"certificates": certs})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.certificateID(w, r)
	if !ok {
		return
	}
	result, err := h.certificates.Revoke(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "certificate revocation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.certificates.Stats(r.Context()))
}

func (h *Handler) certificateID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "certificateId"), 10, 64)
	if err != nil || id == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return 0, false
	}
	return id, true
}

// writeServiceError logs with request context and maps the error through the
// domain taxonomy. Expected client errors log at warn, the rest at error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeUnavailable:
		h.logger.WarnContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	}
}
