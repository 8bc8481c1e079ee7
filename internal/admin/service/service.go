package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	accesslog "empverify/internal/accesslog/models"
	"empverify/internal/admin/types"
	appeal "empverify/internal/appeal/models"
	employee "empverify/internal/employee/models"
	notify "empverify/internal/notify/models"
	verification "empverify/internal/verification/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

const (
	recentActivityLimit = 10
	dashboardTimeout    = 10 * time.Second

	unknownVerifier = "Unknown"
)

// VerificationStore reads verification records for reporting.
type VerificationStore interface {
	ListRecent(ctx context.Context, limit int) ([]*verification.VerificationRecord, error)
	ListAll(ctx context.Context) ([]*verification.VerificationRecord, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (verification.StatusCounts, error)
}

// AppealStore reads appeals for reporting.
type AppealStore interface {
	ListRecent(ctx context.Context, limit int) ([]*appeal.Appeal, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status appeal.Status) (int, error)
}

// EmployeeStore resolves employee master data for exports.
type EmployeeStore interface {
	FindByID(ctx context.Context, id domain.EmployeeID) (*employee.Employee, error)
	Count(ctx context.Context) (int, error)
}

// VerifierDirectory resolves verifier identities.
type VerifierDirectory interface {
	FindVerifier(ctx context.Context, id domain.VerifierID) (*types.VerifierSummary, error)
	Count(ctx context.Context) (int, error)
}

// EmailLogStore reads email delivery logs.
type EmailLogStore interface {
	Stats(ctx context.Context, since time.Time) ([]notify.ProviderStats, error)
	Recent(ctx context.Context, limit int) ([]*types.EmailLogEntry, error)
}

// AccessLogReader pages through recorded login events.
type AccessLogReader interface {
	List(ctx context.Context, f accesslog.Filter) (*accesslog.Page, error)
}

// Service builds the admin reporting views.
type Service struct {
	verifications VerificationStore
	appeals       AppealStore
	employees     EmployeeStore
	verifiers     VerifierDirectory
	emailLogs     EmailLogStore
	accessLogs    AccessLogReader
	logger        *slog.Logger
	tracer        trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEmailLogs(store EmailLogStore) Option {
	return func(s *Service) {
		s.emailLogs = store
	}
}

func WithAccessLogs(reader AccessLogReader) Option {
	return func(s *Service) {
		s.accessLogs = reader
	}
}

func New(
	verifications VerificationStore,
	appeals AppealStore,
	employees EmployeeStore,
	verifiers VerifierDirectory,
	opts ...Option,
) (*Service, error) {
	if verifications == nil || appeals == nil || employees == nil || verifiers == nil {
		return nil, errors.New("admin service requires verification, appeal, employee and verifier stores")
	}
	svc := &Service{
		verifications: verifications,
		appeals:       appeals,
		employees:     employees,
		verifiers:     verifiers,
		tracer:        otel.Tracer("empverify/admin"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Summary holds the dashboard totals.
type Summary struct {
	TotalEmployees     int `json:"totalEmployees"`
	TotalVerifiers     int `json:"totalVerifiers"`
	TotalVerifications int `json:"totalVerifications"`
	TotalAppeals       int `json:"totalAppeals"`
	PendingAppeals     int `json:"pendingAppeals"`
}

// Activity is one row of the dashboard's recent lists.
type Activity struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Status     string    `json:"status"`
	Company    string    `json:"user"`
	Timestamp  time.Time `json:"timestamp"`
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Summary             Summary                   `json:"summary"`
	VerificationStatus  verification.StatusCounts `json:"verificationStatus"`
	RecentVerifications []Activity                `json:"recentVerifications"`
	RecentAppeals       []Activity                `json:"recentAppeals"`
}

// Dashboard gathers totals and recent activity concurrently. Any failed query
// fails the whole view.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Dashboard")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var (
		dash     Dashboard
		recentV  []*verification.VerificationRecord
		recentAp []*appeal.Appeal
	)
	g.Go(func() (err error) {
		dash.Summary.TotalEmployees, err = s.employees.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		dash.Summary.TotalVerifiers, err = s.verifiers.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		dash.Summary.TotalVerifications, err = s.verifications.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		dash.Summary.TotalAppeals, err = s.appeals.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		dash.Summary.PendingAppeals, err = s.appeals.CountByStatus(gctx, appeal.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		dash.VerificationStatus, err = s.verifications.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		recentV, err = s.verifications.ListRecent(gctx, recentActivityLimit)
		return err
	})
	g.Go(func() (err error) {
		recentAp, err = s.appeals.ListRecent(gctx, recentActivityLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dashboard query failed")
		s.logger.ErrorContext(ctx, "failed to load dashboard",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch dashboard data")
	}

	companies := newCompanyResolver(s.verifiers, s.logger)
	dash.RecentVerifications = make([]Activity, 0, len(recentV))
	for _, v := range recentV {
		dash.RecentVerifications = append(dash.RecentVerifications, Activity{
			Type:       "verification",
			ID:         v.ID.String(),
			EmployeeID: v.EmployeeID.String(),
			Status:     v.OverallStatus.String(),
			Company:    companies.lookup(ctx, v.VerifierID).CompanyName,
			Timestamp:  v.CreatedAt,
		})
	}
	dash.RecentAppeals = make([]Activity, 0, len(recentAp))
	for _, a := range recentAp {
		dash.RecentAppeals = append(dash.RecentAppeals, Activity{
			Type:       "appeal",
			ID:         a.ID.String(),
			EmployeeID: a.EmployeeID.String(),
			Status:     string(a.Status),
			Company:    companies.lookup(ctx, a.VerifierID).CompanyName,
			Timestamp:  a.CreatedAt,
		})
	}
	span.SetAttributes(
		attribute.Int("verifications.total", dash.Summary.TotalVerifications),
		attribute.Int("appeals.pending", dash.Summary.PendingAppeals),
	)
	return &dash, nil
}

// ListAccessLogs returns one page of login events.
func (s *Service) ListAccessLogs(ctx context.Context, f accesslog.Filter) (*accesslog.Page, error) {
	if s.accessLogs == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "Access logs are not configured")
	}
	page, err := s.accessLogs.List(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list access logs",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch logs")
	}
	return page, nil
}

// companyResolver memoises verifier lookups for one request. Missing or
// failing lookups resolve to a placeholder.
type companyResolver struct {
	dir    VerifierDirectory
	logger *slog.Logger
	cache  map[domain.VerifierID]*types.VerifierSummary
}

func newCompanyResolver(dir VerifierDirectory, logger *slog.Logger) *companyResolver {
	return &companyResolver{dir: dir, logger: logger, cache: make(map[domain.VerifierID]*types.VerifierSummary)}
}

func (r *companyResolver) lookup(ctx context.Context, id domain.VerifierID) *types.VerifierSummary {
	if v, ok := r.cache[id]; ok {
		return v
	}
	v, err := r.dir.FindVerifier(ctx, id)
	if err != nil || v == nil {
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "verifier lookup failed", "verifier_id", id, "error", err)
		}
		v = &types.VerifierSummary{ID: id, Email: unknownVerifier, CompanyName: unknownVerifier}
	}
	r.cache[id] = v
	return v
}
