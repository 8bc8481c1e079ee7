package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accesslog "empverify/internal/accesslog/models"
	"empverify/internal/accesslog/publisher"
	accesslogStore "empverify/internal/accesslog/store"
	"empverify/internal/admin/adapters"
	appeal "empverify/internal/appeal/models"
	appealStore "empverify/internal/appeal/store"
	authModels "empverify/internal/auth/models"
	verifierStore "empverify/internal/auth/store/verifier"
	employeeStore "empverify/internal/employee/store"
	notify "empverify/internal/notify/models"
	notifyStore "empverify/internal/notify/store"
	verification "empverify/internal/verification/models"
	verificationStore "empverify/internal/verification/store"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx           context.Context
	now           time.Time
	verifications *verificationStore.InMemoryStore
	appeals       *appealStore.InMemoryStore
	verifiers     *verifierStore.InMemoryStore
	emailLogs     *notifyStore.InMemoryStore
	accessLogs    *publisher.Publisher
	service       *Service
	acme          *authModels.Verifier
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	employees := employeeStore.NewInMemory()
	s.Require().NoError(employeeStore.SeedEmployees(s.ctx, employees))
	s.verifications = verificationStore.NewInMemory()
	s.appeals = appealStore.NewInMemory()
	s.verifiers = verifierStore.NewInMemory()
	s.emailLogs = notifyStore.NewInMemory()
	s.accessLogs = publisher.NewPublisher(accesslogStore.NewInMemory())

	s.acme = &authModels.Verifier{
		ID:          domain.NewVerifierID(),
		CompanyName: "ACME",
		Email:       "hr@acme.example",
		IsActive:    true,
		CreatedAt:   s.now,
	}
	s.Require().NoError(s.verifiers.Create(s.ctx, s.acme))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(s.verifications, s.appeals, employees, adapters.NewVerifierStoreAdapter(s.verifiers),
		WithLogger(logger),
		WithEmailLogs(adapters.NewEmailLogStoreAdapter(s.emailLogs)),
		WithAccessLogs(s.accessLogs),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) addVerification(verifierID domain.VerifierID, employeeID domain.EmployeeID, status verification.Status, at time.Time) *verification.VerificationRecord {
	rec := &verification.VerificationRecord{
		ID:         domain.NewVerificationID(),
		VerifierID: verifierID,
		EmployeeID: employeeID,
		SubmittedData: verification.Claim{
			EmployeeName: "Claimed Name",
			Designation:  "Claimed Role",
		},
		OverallStatus: status,
		CreatedAt:     at,
	}
	s.Require().NoError(s.verifications.Create(s.ctx, rec))
	return rec
}

func (s *ServiceSuite) addAppeal(rec *verification.VerificationRecord, at time.Time) *appeal.Appeal {
	a := appeal.NewAppeal(domain.NewAppealID(), rec.ID, rec.VerifierID, rec.EmployeeID, "dates differ", nil, nil, at)
	s.Require().NoError(s.appeals.Create(s.ctx, a))
	return a
}

func (s *ServiceSuite) TestNewRequiresStores() {
	_, err := New(nil, s.appeals, employeeStore.NewInMemory(), adapters.NewVerifierStoreAdapter(s.verifiers))
	s.Error(err)
}

func (s *ServiceSuite) TestDashboard() {
	s.Run("empty", func() {
		dash, err := s.service.Dashboard(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, dash.Summary.TotalEmployees)
		s.Equal(1, dash.Summary.TotalVerifiers)
		s.Zero(dash.Summary.TotalVerifications)
		s.Empty(dash.RecentVerifications)
		s.Empty(dash.RecentAppeals)
	})

	s.Run("counts and recent activity", func() {
		matched := s.addVerification(s.acme.ID, "6002056", verification.StatusMatched, s.now.Add(-2*time.Hour))
		mismatch := s.addVerification(s.acme.ID, "6002057", verification.StatusMismatch, s.now.Add(-time.Hour))
		s.addVerification(domain.NewVerifierID(), "6002057", verification.StatusPartialMatch, s.now)
		s.addAppeal(mismatch, s.now)

		dash, err := s.service.Dashboard(s.ctx)
		s.Require().NoError(err)
		s.Equal(3, dash.Summary.TotalVerifications)
		s.Equal(1, dash.Summary.TotalAppeals)
		s.Equal(1, dash.Summary.PendingAppeals)
		s.Equal(verification.StatusCounts{Matched: 1, PartialMatch: 1, Mismatch: 1}, dash.VerificationStatus)

		s.Require().Len(dash.RecentVerifications, 3)
		s.Equal("Unknown", dash.RecentVerifications[0].Company)
		s.Equal("ACME", dash.RecentVerifications[2].Company)
		s.Equal(matched.ID.String(), dash.RecentVerifications[2].ID)

		s.Require().Len(dash.RecentAppeals, 1)
		s.Equal("pending", dash.RecentAppeals[0].Status)
		s.Equal("6002057", dash.RecentAppeals[0].EmployeeID)
	})
}

func (s *ServiceSuite) TestDashboardFailsWhenAnyQueryFails() {
	svc, err := New(brokenVerifications{s.verifications}, s.appeals, employeeStore.NewInMemory(), adapters.NewVerifierStoreAdapter(s.verifiers),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	_, err = svc.Dashboard(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestExport() {
	completed := time.Date(2026, 3, 9, 14, 5, 6, 0, time.UTC)
	rec := s.addVerification(s.acme.ID, "6002056", verification.StatusMatched, s.now.Add(-24*time.Hour))
	s.Require().NoError(s.verifications.AttachReport(s.ctx, rec.ID, "/reports/x.pdf", completed))
	s.addVerification(domain.NewVerifierID(), "9999999", verification.StatusMismatch, s.now)

	export, err := s.service.Export(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, export.Total)
	s.Equal(ExportHeaders, export.Headers)
	s.Equal(s.now, export.ExportedAt)

	unknown := export.Records[0]
	s.Equal(1, unknown.SerialNo)
	s.Equal("9999999", unknown.EmployeeID)
	s.Equal("Claimed Name", unknown.EmployeeName)
	s.Equal("N/A", unknown.Product)
	s.Equal("N/A", unknown.Department)
	s.Equal("Claimed Role", unknown.Designation)
	s.Empty(unknown.DateOfJoining)
	s.Equal("10/03/2026, 12:00:00", unknown.VerifiedOn)
	s.Equal("Unknown", unknown.VerifiedBy)
	s.Equal("Unknown", unknown.VerifiedFor)

	known := export.Records[1]
	s.Equal(ExportRow{
		SerialNo:       2,
		EmployeeID:     "6002056",
		EmployeeName:   "S Sathish",
		Product:        "Two Wheeler",
		Department:     "HRD",
		Designation:    "Executive",
		DateOfJoining:  "05/02/2021",
		LastWorkingDay: "31/03/2024",
		VerifiedOn:     "09/03/2026, 14:05:06",
		VerifiedBy:     "hr@acme.example",
		VerifiedFor:    "ACME",
	}, known)
	s.Equal([]string{"2", "6002056", "S Sathish", "Two Wheeler", "HRD", "Executive", "05/02/2021", "31/03/2024",
		"09/03/2026, 14:05:06", "hr@acme.example", "ACME"}, known.Values())
}

func (s *ServiceSuite) saveEmailLogs(provider, status string, n int, ms int64) {
	for range n {
		s.Require().NoError(s.emailLogs.Save(s.ctx, &notify.EmailLog{
			ID:             uuid.New(),
			Provider:       provider,
			EmailType:      notify.KindOTP,
			Recipient:      "hr@acme.example",
			Status:         status,
			ResponseTimeMs: ms,
			CreatedAt:      s.now.Add(-time.Hour),
		}))
	}
}

func (s *ServiceSuite) TestEmailStats() {
	s.Run("insufficient data", func() {
		s.saveEmailLogs("brevo", notify.StatusSent, 3, 100)

		stats, err := s.service.EmailStats(s.ctx, DefaultEmailStatsDays)
		s.Require().NoError(err)
		s.Equal("Last 7 days", stats.Period)
		s.Equal(RecommendationInsufficient, stats.Recommendation)
		s.Equal(3, stats.Comparison["brevo"].Total)
		s.Zero(stats.Comparison["sendgrid"].Total)
		s.Require().Len(stats.RecentLogs, 3)
		s.Equal("hr@****", stats.RecentLogs[0].Recipient)
	})

	s.Run("recommends the more reliable provider", func() {
		s.saveEmailLogs("brevo", notify.StatusFailed, 10, 100)
		s.saveEmailLogs("sendgrid", notify.StatusSent, 12, 200)

		stats, err := s.service.EmailStats(s.ctx, 30)
		s.Require().NoError(err)
		s.Equal("sendgrid", stats.Recommendation)
	})

	s.Run("rejects out of range window", func() {
		_, err := s.service.EmailStats(s.ctx, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.EmailStats(s.ctx, MaxEmailStatsDays+1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestListAccessLogs() {
	s.Require().NoError(s.accessLogs.Emit(s.ctx, accesslog.Event{
		Email: "hr@acme.example", Role: "verifier", Action: accesslog.ActionLoginOTP, Status: accesslog.StatusSuccess,
	}))
	s.Require().NoError(s.accessLogs.Emit(s.ctx, accesslog.Event{
		Email: "admin", Role: "super_admin", Action: accesslog.ActionAdminLogin, Status: accesslog.StatusFailure,
	}))

	page, err := s.service.ListAccessLogs(s.ctx, accesslog.Filter{Status: string(accesslog.StatusFailure)})
	s.Require().NoError(err)
	s.Require().Len(page.Logs, 1)
	s.Equal("admin", page.Logs[0].Email)
	s.Equal(1, page.Pagination.Total)
}

func (s *ServiceSuite) TestOptionalSourcesUnavailable() {
	svc, err := New(s.verifications, s.appeals, employeeStore.NewInMemory(), adapters.NewVerifierStoreAdapter(s.verifiers))
	s.Require().NoError(err)

	_, err = svc.EmailStats(s.ctx, DefaultEmailStatsDays)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	_, err = svc.ListAccessLogs(s.ctx, accesslog.Filter{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

type brokenVerifications struct {
	*verificationStore.InMemoryStore
}

func (brokenVerifications) CountByStatus(context.Context) (verification.StatusCounts, error) {
	return verification.StatusCounts{}, errors.New("connection reset")
}
