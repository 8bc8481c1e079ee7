package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"empverify/internal/appeal/models"
	"empverify/internal/appeal/service"
	"empverify/internal/documents"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

const (
	documentField     = "supportingDocument"
	maxMultipartBytes = documents.MaxSize + 1<<20
)

// Service defines the appeal operations the handler needs.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.Appeal, error)
	Adjudicate(ctx context.Context, req service.AdjudicateRequest) (*models.Appeal, error)
	List(ctx context.Context, filter models.ListFilter) (*models.Page, error)
	Get(ctx context.Context, id domain.AppealID) (*models.Detail, error)
	ListMine(ctx context.Context, verifierID domain.VerifierID) ([]*models.Appeal, error)
}

// Handler wires appeal endpoints to the appeal service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterVerifier mounts the verifier-facing endpoints. Callers apply the verifier guard.
func (h *Handler) RegisterVerifier(r chi.Router) {
	r.Post("/appeals", h.HandleCreate)
	r.Get("/appeals/mine", h.HandleListMine)
}

// RegisterAdmin mounts the admin endpoints behind the given permission guards.
// Callers apply the admin role guard.
func (h *Handler) RegisterAdmin(r chi.Router, canView, canManage func(http.Handler) http.Handler) {
	r.With(canView).Get("/appeals", h.HandleList)
	r.With(canView).Get("/admin/appeals/{id}", h.HandleGet)
	r.With(canManage).Post("/admin/appeals/{id}/respond", h.HandleRespond)
}

// HandleCreate handles POST /appeals as JSON or multipart/form-data.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal := requestcontext.Principal(ctx)
	verifierID, err := principal.VerifierID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, doc, release, ok := h.decodeCreate(w, r, requestID)
	if !ok {
		return
	}
	defer release()

	appeal, err := h.service.Create(ctx, service.CreateRequest{
		VerifierID:      verifierID,
		VerifierEmail:   principal.Email,
		VerifierCompany: principal.CompanyName,
		VerificationID:  req.parsedVerificationID,
		Comments:        req.Comments,
		Document:        doc,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "appeal creation failed",
			"request_id", requestID,
			"verifier_id", verifierID,
			"verification_id", req.VerificationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated,
		"Appeal submitted successfully. We will review your case and respond shortly.",
		AppealCreatedResponse{
			AppealID:              appeal.ID.String(),
			VerificationID:        appeal.VerificationID.String(),
			Status:                appeal.Status.String(),
			HasSupportingDocument: appeal.SupportingDocument != nil,
			CreatedAt:             appeal.CreatedAt,
		})
}

// decodeCreate reads either body form. The returned file body stays valid until
// release is called; release is safe to call whenever ok is true.
func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request, requestID string) (_ *CreateAppealRequest, _ *documents.File, release func(), ok bool) {
	ctx := r.Context()
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		req, ok := httputil.DecodeAndPrepare[CreateAppealRequest](w, r, h.logger, ctx, requestID)
		return req, nil, func() {}, ok
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "document exceeds the 10 MB limit"))
			return nil, nil, nil, false
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body"))
		return nil, nil, nil, false
	}

	req := &CreateAppealRequest{
		VerificationID: r.FormValue("verificationId"),
		Comments:       r.FormValue("comments"),
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, nil, nil, false
	}

	file, header, err := r.FormFile(documentField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, uploadRelease(r, nil), true
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid supporting document"))
		return nil, nil, nil, false
	}
	return req, &documents.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, uploadRelease(r, file), true
}

// uploadRelease closes the document part and drops any temporary files the
// multipart parser spilled to disk.
func uploadRelease(r *http.Request, file io.Closer) func() {
	return func() {
		if file != nil {
			_ = file.Close()
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
}

// HandleListMine handles GET /appeals/mine.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verifierID, err := requestcontext.Principal(ctx).VerifierID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appeals, err := h.service.ListMine(ctx, verifierID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", fromMine(appeals))
}

// HandleList handles GET /appeals?page=&limit=&status=&employeeId=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseListFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list appeals",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", fromPage(page))
}

// HandleGet handles GET /admin/appeals/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAppealID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"appeal": fromDetail(detail)})
}

// HandleRespond handles POST /admin/appeals/{id}/respond.
func (h *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	adminID, err := requestcontext.Principal(ctx).AdminID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParseAppealID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RespondRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appeal, err := h.service.Adjudicate(ctx, service.AdjudicateRequest{
		AdminID:    adminID,
		AppealID:   id,
		Decision:   req.parsedDecision,
		HRResponse: req.HRResponse,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "appeal adjudication failed",
			"request_id", requestID,
			"appeal_id", id,
			"admin_id", adminID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, fmt.Sprintf("Appeal has been %s successfully", appeal.Status),
		RespondResponse{
			AppealID:   appeal.ID.String(),
			Status:     appeal.Status.String(),
			HRResponse: appeal.HRResponse,
			ReviewedAt: appeal.ReviewedAt,
		})
}

func parseListFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	var filter models.ListFilter
	if v := strings.TrimSpace(q.Get("status")); v != "" && !strings.EqualFold(v, "all") {
		status, err := models.ParseStatus(strings.ToLower(v))
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	if v := strings.TrimSpace(q.Get("employeeId")); v != "" {
		filter.EmployeeID = domain.EmployeeID(domain.NormalizeEmployeeID(v))
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	return filter.Normalize(), nil
}
