package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"empverify/internal/appeal/metrics"
	"empverify/internal/appeal/models"
	"empverify/internal/documents"
	employee "empverify/internal/employee/models"
	notify "empverify/internal/notify/models"
	verification "empverify/internal/verification/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

const (
	maxCommentsLength   = 2000
	maxHRResponseLength = 2000

	msgVerificationNotFound = "Verification record not found or you do not have permission to appeal this verification"
	msgAlreadyAppealed      = "An appeal has already been submitted for this verification"
	msgAlreadyReviewed      = "This appeal has already been reviewed"
	msgAppealNotFound       = "Appeal not found"
)

// Store persists appeals. Create must reject a second appeal for the same
// verification with sentinel.ErrAlreadyUsed; Resolve must only change a
// pending appeal and return sentinel.ErrInvalidState otherwise.
type Store interface {
	Create(ctx context.Context, a *models.Appeal) error
	FindByID(ctx context.Context, id domain.AppealID) (*models.Appeal, error)
	FindByVerificationID(ctx context.Context, id domain.VerificationID) (*models.Appeal, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Appeal, int, error)
	ListByVerifier(ctx context.Context, verifierID domain.VerifierID) ([]*models.Appeal, error)
	Resolve(ctx context.Context, id domain.AppealID, res models.Resolution) (*models.Appeal, error)
}

// VerificationStore resolves the verification an appeal disputes.
type VerificationStore interface {
	FindByID(ctx context.Context, id domain.VerificationID) (*verification.VerificationRecord, error)
}

// EmployeeStore resolves employee names for admin review.
type EmployeeStore interface {
	FindByID(ctx context.Context, id domain.EmployeeID) (*employee.Employee, error)
}

// VerifierDirectory resolves verifier contact details.
type VerifierDirectory interface {
	FindVerifier(ctx context.Context, id domain.VerifierID) (*models.VerifierInfo, error)
}

// DocumentStore persists supporting documents.
type DocumentStore interface {
	Upload(ctx context.Context, f documents.File, pathHint string) (*documents.Stored, error)
}

// Notifier queues notifications without waiting for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, n notify.Notification) bool
}

type Service struct {
	store           Store
	verifications   VerificationStore
	employees       EmployeeStore
	verifiers       VerifierDirectory
	documents       DocumentStore
	notifier        Notifier
	adminRecipients []string
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tracer          trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier, adminRecipients []string) Option {
	return func(s *Service) {
		s.notifier = n
		s.adminRecipients = adminRecipients
	}
}

func WithDocuments(d DocumentStore) Option {
	return func(s *Service) {
		s.documents = d
	}
}

func WithVerifiers(v VerifierDirectory) Option {
	return func(s *Service) {
		s.verifiers = v
	}
}

func WithEmployees(e EmployeeStore) Option {
	return func(s *Service) {
		s.employees = e
	}
}

func New(store Store, verifications VerificationStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("appeal store is required")
	}
	if verifications == nil {
		return nil, errors.New("verification store is required")
	}
	svc := &Service{
		store:         store,
		verifications: verifications,
		tracer:        otel.Tracer("empverify/appeal"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// CreateRequest is a verifier's appeal against one of their verifications.
type CreateRequest struct {
	VerifierID      domain.VerifierID
	VerifierEmail   string
	VerifierCompany string
	VerificationID  domain.VerificationID
	Comments        string
	Document        *documents.File
}

// Create files an appeal. At most one appeal exists per verification.
func (s *Service) Create(ctx context.Context, req CreateRequest) (a *models.Appeal, err error) {
	ctx, span := s.tracer.Start(ctx, "appeal.Create",
		trace.WithAttributes(attribute.String("verification_id", req.VerificationID.String())))
	defer func() { endSpan(span, err) }()

	requestID := requestcontext.RequestID(ctx)
	comments := strings.TrimSpace(req.Comments)
	if comments == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Verification ID and comments are required")
	}
	if utf8.RuneCountInString(comments) > maxCommentsLength {
		return nil, dErrors.New(dErrors.CodeValidation, "comments must be at most 2000 characters")
	}

	rec, err := s.verifications.FindByID(ctx, req.VerificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgVerificationNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	if !rec.IsOwnedBy(req.VerifierID) {
		return nil, dErrors.New(dErrors.CodeNotFound, msgVerificationNotFound)
	}

	// Fast path; the store constraint is what actually guarantees uniqueness.
	if _, err := s.store.FindByVerificationID(ctx, req.VerificationID); err == nil {
		s.metrics.IncrementConflict("create")
		return nil, dErrors.New(dErrors.CodeConflict, msgAlreadyAppealed)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing appeal")
	}

	doc := s.uploadDocument(ctx, req.Document, rec.EmployeeID)

	a = models.NewAppeal(domain.NewAppealID(), rec.ID, req.VerifierID, rec.EmployeeID,
		comments, rec.MismatchedResults(), doc, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncrementConflict("create")
			return nil, dErrors.New(dErrors.CodeConflict, msgAlreadyAppealed)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save appeal")
	}

	span.SetAttributes(attribute.String("appeal_id", a.ID.String()))
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "appeal created",
		"request_id", requestID,
		"appeal_id", a.ID,
		"verification_id", a.VerificationID,
		"verifier_id", a.VerifierID,
		"has_document", doc != nil,
	)

	s.enqueue(ctx, notify.Notification{
		Kind: notify.KindAppealCreated,
		To:   s.adminRecipients,
		Data: notify.AppealCreatedData{
			AppealID:         a.ID.String(),
			VerificationID:   a.VerificationID.String(),
			EmployeeID:       a.EmployeeID.String(),
			VerifierCompany:  req.VerifierCompany,
			VerifierEmail:    req.VerifierEmail,
			Comments:         a.Comments,
			MismatchedFields: mismatchedLabels(a.MismatchedFields),
			DocumentURL:      documentURL(doc),
		},
	})
	return a, nil
}

// AdjudicateRequest is an admin decision on a pending appeal.
type AdjudicateRequest struct {
	AdminID    domain.AdminID
	AppealID   domain.AppealID
	Decision   models.Status
	HRResponse string
}

// Adjudicate resolves a pending appeal. Decided appeals are immutable.
func (s *Service) Adjudicate(ctx context.Context, req AdjudicateRequest) (a *models.Appeal, err error) {
	ctx, span := s.tracer.Start(ctx, "appeal.Adjudicate",
		trace.WithAttributes(
			attribute.String("appeal_id", req.AppealID.String()),
			attribute.String("decision", req.Decision.String()),
		))
	defer func() { endSpan(span, err) }()

	if !req.Decision.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be either approved or rejected")
	}
	response := strings.TrimSpace(req.HRResponse)
	if response == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "hrResponse is required")
	}
	if utf8.RuneCountInString(response) > maxHRResponseLength {
		return nil, dErrors.New(dErrors.CodeValidation, "hrResponse must be at most 2000 characters")
	}

	a, err = s.store.Resolve(ctx, req.AppealID, models.Resolution{
		Status:     req.Decision,
		HRResponse: response,
		ReviewedBy: req.AdminID,
		ReviewedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, msgAppealNotFound)
		case errors.Is(err, sentinel.ErrInvalidState):
			s.metrics.IncrementConflict("adjudicate")
			return nil, dErrors.New(dErrors.CodeConflict, msgAlreadyReviewed)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve appeal")
		}
	}

	s.metrics.IncrementResolved(a.Status.String())
	s.logger.InfoContext(ctx, "appeal resolved",
		"request_id", requestcontext.RequestID(ctx),
		"appeal_id", a.ID,
		"status", a.Status,
		"reviewed_by", req.AdminID,
	)

	s.notifyResolved(ctx, a)
	return a, nil
}

// List returns a filtered page of appeals with their verifiers.
func (s *Service) List(ctx context.Context, filter models.ListFilter) (*models.Page, error) {
	filter = filter.Normalize()
	appeals, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appeals")
	}
	items := make([]*models.Summary, 0, len(appeals))
	for _, a := range appeals {
		items = append(items, &models.Summary{Appeal: a, Verifier: s.lookupVerifier(ctx, a.VerifierID)})
	}
	return models.NewPage(items, total, filter), nil
}

// Get returns an appeal with the records an admin needs to adjudicate it.
func (s *Service) Get(ctx context.Context, id domain.AppealID) (*models.Detail, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgAppealNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appeal")
	}

	detail := &models.Detail{
		Appeal:       a,
		EmployeeName: "Unknown",
		Verifier:     s.lookupVerifier(ctx, a.VerifierID),
	}
	if rec, err := s.verifications.FindByID(ctx, a.VerificationID); err == nil {
		detail.Verification = &models.VerificationInfo{
			ID:                rec.ID,
			ComparisonResults: rec.ComparisonResults,
			OverallStatus:     rec.OverallStatus.String(),
			MatchScore:        rec.MatchScore,
		}
	}
	if s.employees != nil {
		if emp, err := s.employees.FindByID(ctx, a.EmployeeID); err == nil {
			detail.EmployeeName = emp.Name
		}
	}
	return detail, nil
}

// ListMine returns the verifier's own appeals, newest first.
func (s *Service) ListMine(ctx context.Context, verifierID domain.VerifierID) ([]*models.Appeal, error) {
	appeals, err := s.store.ListByVerifier(ctx, verifierID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appeals")
	}
	if appeals == nil {
		appeals = []*models.Appeal{}
	}
	return appeals, nil
}

// uploadDocument stores f when present. A failed upload is logged and the
// appeal continues without a document.
func (s *Service) uploadDocument(ctx context.Context, f *documents.File, employeeID domain.EmployeeID) *documents.Stored {
	if f == nil || f.Size == 0 || s.documents == nil {
		return nil
	}
	stored, err := s.documents.Upload(ctx, *f, "appeals/"+employeeID.String())
	if err != nil {
		s.metrics.IncrementDocumentFailure()
		s.logger.WarnContext(ctx, "supporting document upload failed, continuing without document",
			"request_id", requestcontext.RequestID(ctx),
			"employee_id", employeeID,
			"file_name", f.Name,
			"error", err,
		)
		return nil
	}
	return stored
}

func (s *Service) notifyResolved(ctx context.Context, a *models.Appeal) {
	v := s.lookupVerifier(ctx, a.VerifierID)
	if v == nil || v.Email == "" {
		s.logger.WarnContext(ctx, "appeal resolved but verifier email is unknown, skipping notification",
			"request_id", requestcontext.RequestID(ctx),
			"appeal_id", a.ID,
			"verifier_id", a.VerifierID,
		)
		return
	}
	s.enqueue(ctx, notify.Notification{
		Kind: notify.KindAppealResolved,
		To:   []string{v.Email},
		Data: notify.AppealResolvedData{
			AppealID:   a.ID.String(),
			EmployeeID: a.EmployeeID.String(),
			Status:     a.Status.String(),
			HRResponse: a.HRResponse,
		},
	})
}

func (s *Service) lookupVerifier(ctx context.Context, id domain.VerifierID) *models.VerifierInfo {
	if s.verifiers == nil {
		return nil
	}
	v, err := s.verifiers.FindVerifier(ctx, id)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load verifier",
				"request_id", requestcontext.RequestID(ctx),
				"verifier_id", id,
				"error", err,
			)
		}
		return nil
	}
	return v
}

func (s *Service) enqueue(ctx context.Context, n notify.Notification) {
	if s.notifier == nil || len(n.To) == 0 {
		return
	}
	if !s.notifier.Enqueue(ctx, n) {
		s.logger.WarnContext(ctx, "appeal notification dropped",
			"request_id", requestcontext.RequestID(ctx),
			"kind", n.Kind,
		)
	}
}

func mismatchedLabels(fields []models.MismatchedField) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Label)
	}
	return out
}

func documentURL(doc *documents.Stored) string {
	if doc == nil {
		return ""
	}
	return doc.StorageURL
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
