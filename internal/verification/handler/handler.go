package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"empverify/internal/verification/metrics"
	"empverify/internal/verification/models"
	"empverify/internal/verification/service"
	"empverify/pkg/domain"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// Service defines the verification operations the handler needs.
type Service interface {
	ValidateEmployee(ctx context.Context, req service.ValidateRequest) error
	Submit(ctx context.Context, req service.SubmitRequest) (*models.VerificationRecord, error)
	Get(ctx context.Context, verifierID domain.VerifierID, id domain.VerificationID) (*models.VerificationRecord, error)
	List(ctx context.Context, verifierID domain.VerifierID) ([]*models.VerificationRecord, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts verification endpoints. Callers apply the verifier role guard.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/validate-employee", h.HandleValidateEmployee)
	r.Post("/verify/submit", h.HandleSubmit)
	r.Get("/verify/records", h.HandleList)
	r.Get("/verify/records/{id}", h.HandleGet)
}

// HandleValidateEmployee handles POST /verify/validate-employee.
func (h *Handler) HandleValidateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	verifierID, err := requestcontext.Principal(ctx).VerifierID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ValidateEmployeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err = h.service.ValidateEmployee(ctx, service.ValidateRequest{
		VerifierID: verifierID,
		EmployeeID: req.EmployeeID,
		Name:       req.Name,
		EntityName: req.EntityName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "employee validation rejected",
			"request_id", requestID,
			"verifier_id", verifierID,
			"employee_id", req.EmployeeID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Employee verified. Proceed to enter employment details.",
		ValidateEmployeeResponse{EmployeeID: domain.NormalizeEmployeeID(req.EmployeeID)})
}

// HandleSubmit handles POST /verify/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	principal := requestcontext.Principal(ctx)
	verifierID, err := principal.VerifierID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Submit(ctx, service.SubmitRequest{
		VerifierID:    verifierID,
		VerifierEmail: principal.Email,
		EmployeeID:    req.EmployeeID,
		Claim:         req.Claim(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "verification submission failed",
			"request_id", requestID,
			"verifier_id", verifierID,
			"employee_id", req.EmployeeID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"verification_id", rec.ID,
		"overall_status", rec.OverallStatus,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteSuccess(w, http.StatusCreated, "Verification completed", FromRecord(rec))
}

// HandleList handles GET /verify/records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verifierID, err := requestcontext.Principal(ctx).VerifierID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	recs, err := h.service.List(ctx, verifierID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list verifications",
			"request_id", requestcontext.RequestID(ctx),
			"verifier_id", verifierID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", FromRecords(recs))
}

// HandleGet handles GET /verify/records/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verifierID, err := requestcontext.Principal(ctx).VerifierID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := domain.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Get(ctx, verifierID, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", FromRecord(rec))
}
