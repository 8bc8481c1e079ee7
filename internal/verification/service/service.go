package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	attempts "empverify/internal/attempts/models"
	employee "empverify/internal/employee/models"
	notify "empverify/internal/notify/models"
	"empverify/internal/verification/comparator"
	"empverify/internal/verification/metrics"
	"empverify/internal/verification/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

// Store persists verification records.
type Store interface {
	Create(ctx context.Context, rec *models.VerificationRecord) error
	FindByID(ctx context.Context, id domain.VerificationID) (*models.VerificationRecord, error)
	ListByVerifier(ctx context.Context, verifierID domain.VerifierID) ([]*models.VerificationRecord, error)
}

// EmployeeStore resolves reference employee records.
type EmployeeStore interface {
	FindByID(ctx context.Context, id domain.EmployeeID) (*employee.Employee, error)
}

// Limiter gates identity validation per verifier and employee.
type Limiter interface {
	CheckBlocked(ctx context.Context, verifierID domain.VerifierID, employeeID string) (bool, error)
	RecordFailure(ctx context.Context, verifierID domain.VerifierID, employeeID string) (*attempts.FailureResult, error)
	Reset(ctx context.Context, verifierID domain.VerifierID, employeeID string) error
	BlockedError() error
}

// Notifier queues notifications without waiting for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, n notify.Notification) bool
}

type Service struct {
	store     Store
	employees EmployeeStore
	limiter   Limiter
	notifier  Notifier
	fields    []comparator.Field
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
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

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithFields overrides the compared field set.
func WithFields(fields []comparator.Field) Option {
	return func(s *Service) {
		if len(fields) > 0 {
			s.fields = fields
		}
	}
}

func New(store Store, employees EmployeeStore, limiter Limiter, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("verification store is required")
	}
	if employees == nil {
		return nil, errors.New("employee store is required")
	}
	if limiter == nil {
		return nil, errors.New("attempt limiter is required")
	}
	svc := &Service{
		store:     store,
		employees: employees,
		limiter:   limiter,
		fields:    models.Fields,
		tracer:    otel.Tracer("empverify/verification"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// ValidateRequest asks whether an employee id and name identify a real former employee.
type ValidateRequest struct {
	VerifierID domain.VerifierID
	EmployeeID string
	Name       string
	EntityName string
}

// ValidateEmployee checks identity before the verifier may submit a claim.
// Every failure counts toward the attempt limit; success resets it.
func (s *Service) ValidateEmployee(ctx context.Context, req ValidateRequest) (err error) {
	ctx, span := s.tracer.Start(ctx, "verification.ValidateEmployee")
	defer func() { endSpan(span, err) }()

	requestID := requestcontext.RequestID(ctx)
	employeeID, err := domain.ParseEmployeeID(req.EmployeeID)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("employee_id", employeeID.String()))

	if err := s.rejectIfBlocked(ctx, req.VerifierID, employeeID); err != nil {
		return err
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
		}
		s.metrics.IncrementValidation("not_found")
		return s.failValidation(ctx, req.VerifierID, employeeID, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("Employee with ID %q not found in our records. Please verify the Employee ID.", strings.TrimSpace(req.EmployeeID))))
	}

	if !comparator.NamesMatch(req.Name, emp.Name) {
		s.metrics.IncrementValidation("name_mismatch")
		return s.failValidation(ctx, req.VerifierID, employeeID, dErrors.New(dErrors.CodeValidation,
			"Employee ID and Name do not match. Please check the details and try again."))
	}

	if entity := strings.TrimSpace(req.EntityName); entity != "" {
		f := comparator.Field{Key: models.FieldEntityName, Kind: comparator.KindEnum}
		if !comparator.Compare(f, entity, emp.EntityName).IsMatch {
			s.metrics.IncrementValidation("entity_mismatch")
			return s.failValidation(ctx, req.VerifierID, employeeID, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("Employee verification failed for the selected company. This employee does not belong to %s.", entity)))
		}
	}

	if err := s.limiter.Reset(ctx, req.VerifierID, employeeID.String()); err != nil {
		return err
	}
	s.metrics.IncrementValidation("success")
	s.logger.InfoContext(ctx, "employee identity validated",
		"request_id", requestID,
		"verifier_id", req.VerifierID,
		"employee_id", employeeID,
	)
	return nil
}

// SubmitRequest is a verifier's full employment claim.
type SubmitRequest struct {
	VerifierID    domain.VerifierID
	VerifierEmail string
	EmployeeID    string
	Claim         models.Claim
}

// Submit compares the claim against the employee record and persists the outcome.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (rec *models.VerificationRecord, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.Submit")
	defer func() { endSpan(span, err) }()

	requestID := requestcontext.RequestID(ctx)
	if err := validateClaim(req.Claim); err != nil {
		return nil, err
	}
	employeeID, err := domain.ParseEmployeeID(req.EmployeeID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("employee_id", employeeID.String()))

	if err := s.rejectIfBlocked(ctx, req.VerifierID, employeeID); err != nil {
		return nil, err
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.failValidation(ctx, req.VerifierID, employeeID,
				dErrors.New(dErrors.CodeNotFound, "Employee not found"))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
	}

	results := models.Compare(s.fields, req.Claim, emp)
	identityFailed := !comparator.NamesMatch(req.Claim.EmployeeName, emp.Name)
	if identityFailed {
		if _, err := s.limiter.RecordFailure(ctx, req.VerifierID, employeeID.String()); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	rec = models.NewVerificationRecord(domain.NewVerificationID(), req.VerifierID, employeeID,
		req.Claim, results, identityFailed, now)
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
	}

	span.SetAttributes(
		attribute.String("overall_status", rec.OverallStatus.String()),
		attribute.Int("match_score", rec.MatchScore),
	)
	s.metrics.IncrementOutcome(rec.OverallStatus.String(), rec.MatchScore)
	s.metrics.ObserveSubmitLatency(time.Since(start))
	s.logger.InfoContext(ctx, "verification submitted",
		"request_id", requestID,
		"verification_id", rec.ID,
		"verifier_id", req.VerifierID,
		"employee_id", employeeID,
		"overall_status", rec.OverallStatus,
		"match_score", rec.MatchScore,
	)

	s.notifyReport(ctx, req.VerifierEmail, rec, emp)
	return rec, nil
}

// Get returns a verification owned by verifierID. Records owned by others are
// reported as not found.
func (s *Service) Get(ctx context.Context, verifierID domain.VerifierID, id domain.VerificationID) (*models.VerificationRecord, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Verification record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	if !rec.IsOwnedBy(verifierID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Verification record not found")
	}
	return rec, nil
}

// List returns the verifier's records, newest first.
func (s *Service) List(ctx context.Context, verifierID domain.VerifierID) ([]*models.VerificationRecord, error) {
	recs, err := s.store.ListByVerifier(ctx, verifierID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	if recs == nil {
		recs = []*models.VerificationRecord{}
	}
	return recs, nil
}

func (s *Service) rejectIfBlocked(ctx context.Context, verifierID domain.VerifierID, employeeID domain.EmployeeID) error {
	blocked, err := s.limiter.CheckBlocked(ctx, verifierID, employeeID.String())
	if err != nil {
		return err
	}
	if blocked {
		s.metrics.IncrementValidation("blocked")
		return s.limiter.BlockedError()
	}
	return nil
}

// failValidation counts a failure and returns Blocked instead of cause once the
// pair is blocked.
func (s *Service) failValidation(ctx context.Context, verifierID domain.VerifierID, employeeID domain.EmployeeID, cause error) error {
	res, err := s.limiter.RecordFailure(ctx, verifierID, employeeID.String())
	if err != nil {
		return err
	}
	if res.IsBlocked {
		return s.limiter.BlockedError()
	}
	s.logger.InfoContext(ctx, "employee identity validation failed",
		"request_id", requestcontext.RequestID(ctx),
		"verifier_id", verifierID,
		"employee_id", employeeID,
		"attempt_count", res.AttemptCount,
		"reason", cause.Error(),
	)
	return cause
}

func (s *Service) notifyReport(ctx context.Context, to string, rec *models.VerificationRecord, emp *employee.Employee) {
	if s.notifier == nil || to == "" {
		return
	}
	matched := len(rec.ComparisonResults) - len(rec.MismatchedResults())
	queued := s.notifier.Enqueue(ctx, notify.Notification{
		Kind: notify.KindVerificationReport,
		To:   []string{to},
		Data: notify.VerificationReportData{
			VerificationID: rec.ID.String(),
			EmployeeID:     rec.EmployeeID.String(),
			EmployeeName:   emp.Name,
			OverallStatus:  rec.OverallStatus.String(),
			MatchScore:     rec.MatchScore,
			MatchedFields:  matched,
			TotalFields:    len(rec.ComparisonResults),
		},
	})
	if !queued {
		s.logger.WarnContext(ctx, "verification report notification dropped",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", rec.ID,
		)
	}
}

func validateClaim(c models.Claim) error {
	if strings.TrimSpace(c.EmployeeName) == "" ||
		strings.TrimSpace(c.EntityName) == "" ||
		strings.TrimSpace(c.Designation) == "" ||
		strings.TrimSpace(c.ExitReason) == "" ||
		c.DateOfJoining.IsZero() ||
		c.DateOfLeaving.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "All fields are required")
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
