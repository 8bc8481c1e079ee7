package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accesslog "empverify/internal/accesslog/models"
	"empverify/internal/admin/handler/mocks"
	"empverify/internal/admin/service"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	adminmw "empverify/pkg/platform/middleware/admin"
	"empverify/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router
	reporter    *domain.Principal
	viewer      *domain.Principal
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.mockService, logger).RegisterAdmin(s.router, adminmw.RequirePermission(domain.PermViewReports, logger))

	s.reporter = testutil.AdminPrincipal(domain.NewAdminID().String(), domain.RoleSuperAdmin, domain.PermViewReports)
	s.viewer = testutil.AdminPrincipal(domain.NewAdminID().String(), domain.RoleHRManager, domain.PermViewAppeals)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) get(path string, p *domain.Principal) *http.Request {
	return testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil), p)
}

func (s *HandlerSuite) sampleExport() *service.Export {
	return &service.Export{
		Records: []service.ExportRow{{
			SerialNo: 1, EmployeeID: "6002056", EmployeeName: "S Sathish", Product: "Two Wheeler",
			Department: "HRD", Designation: "Executive", DateOfJoining: "05/02/2021", LastWorkingDay: "31/03/2024",
			VerifiedOn: "09/03/2026, 14:05:06", VerifiedBy: "hr@acme.example", VerifiedFor: "ACME, Inc",
		}},
		Total:      1,
		Headers:    service.ExportHeaders,
		ExportedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (s *HandlerSuite) TestDashboard() {
	s.Run("success", func() {
		s.mockService.EXPECT().Dashboard(gomock.Any()).Return(&service.Dashboard{
			Summary: service.Summary{TotalEmployees: 2, PendingAppeals: 1},
		}, nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/dashboard", s.viewer))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		env := testutil.DecodeEnvelope[service.Dashboard](s.T(), rr)
		s.Equal("Dashboard data retrieved successfully", env.Message)
		s.Equal(2, env.Data.Summary.TotalEmployees)
		s.Equal(1, env.Data.Summary.PendingAppeals)
	})

	s.Run("internal failure hides detail", func() {
		s.mockService.EXPECT().Dashboard(gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "Failed to fetch dashboard data"))

		rr := testutil.DoRequest(s.router, s.get("/admin/dashboard", s.viewer))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
		s.NotContains(rr.Body.String(), "connection refused")
	})
}

func (s *HandlerSuite) TestExport() {
	s.Run("json", func() {
		s.mockService.EXPECT().Export(gomock.Any()).Return(s.sampleExport(), nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/export", s.reporter))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.DecodeBody(s.T(), rr)
		data := body["data"].(map[string]any)
		s.Equal(float64(1), data["total"])
		rows := data["records"].([]any)
		s.Equal("S Sathish", rows[0].(map[string]any)["Employee Name"])
	})

	s.Run("csv", func() {
		s.mockService.EXPECT().Export(gomock.Any()).Return(s.sampleExport(), nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/export?format=csv", s.reporter))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal("text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
		s.Contains(rr.Header().Get("Content-Disposition"), `filename="verifications-20260310.csv"`)

		records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.Equal(service.ExportHeaders, records[0])
		s.Equal("ACME, Inc", records[1][10])
	})

	s.Run("unknown format", func() {
		rr := testutil.DoRequest(s.router, s.get("/admin/export?format=xlsx", s.reporter))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("requires view_reports", func() {
		rr := testutil.DoRequest(s.router, s.get("/admin/export", s.viewer))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *HandlerSuite) TestEmailStats() {
	s.Run("defaults to seven days", func() {
		s.mockService.EXPECT().EmailStats(gomock.Any(), service.DefaultEmailStatsDays).
			Return(&service.EmailStats{Days: 7, Period: "Last 7 days", Recommendation: service.RecommendationInsufficient}, nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/email-stats", s.reporter))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		env := testutil.DecodeEnvelope[service.EmailStats](s.T(), rr)
		s.Equal("Last 7 days", env.Data.Period)
	})

	s.Run("explicit window", func() {
		s.mockService.EXPECT().EmailStats(gomock.Any(), 30).Return(&service.EmailStats{Days: 30}, nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/email-stats?days=30", s.reporter))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("non numeric days", func() {
		rr := testutil.DoRequest(s.router, s.get("/admin/email-stats?days=week", s.reporter))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("requires view_reports", func() {
		rr := testutil.DoRequest(s.router, s.get("/admin/email-stats", s.viewer))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *HandlerSuite) TestAccessLogs() {
	s.Run("passes filters through", func() {
		s.mockService.EXPECT().ListAccessLogs(gomock.Any(), accesslog.Filter{
			Status: "FAILURE", Role: "ALL", Page: 2, Limit: 10,
		}).Return(&accesslog.Page{
			Logs:       []*accesslog.Event{{Email: "hr@acme.example", Status: accesslog.StatusFailure}},
			Pagination: accesslog.Pagination{Total: 11, Pages: 2, Page: 2, Limit: 10},
		}, nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/logs?page=2&limit=10&status=failure&role=ALL", s.viewer))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		env := testutil.DecodeEnvelope[accesslog.Page](s.T(), rr)
		s.Equal("Access logs retrieved successfully", env.Message)
		s.Equal(2, env.Data.Pagination.Pages)
		s.Require().Len(env.Data.Logs, 1)
	})

	s.Run("bad paging falls back to defaults", func() {
		s.mockService.EXPECT().ListAccessLogs(gomock.Any(), accesslog.Filter{}).Return(accesslog.NewPage(nil, 0, accesslog.Filter{}.Normalize()), nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/logs?page=abc", s.viewer))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}
