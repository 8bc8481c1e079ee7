package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	adminHandler "empverify/internal/admin/handler"
	adminMocks "empverify/internal/admin/handler/mocks"
	adminService "empverify/internal/admin/service"
	appealHandler "empverify/internal/appeal/handler"
	appealMocks "empverify/internal/appeal/handler/mocks"
	authHandler "empverify/internal/auth/handler"
	authMocks "empverify/internal/auth/handler/mocks"
	"empverify/internal/auth/token"
	employeeHandler "empverify/internal/employee/handler"
	employee "empverify/internal/employee/models"
	verificationHandler "empverify/internal/verification/handler"
	verificationMocks "empverify/internal/verification/handler/mocks"
	verification "empverify/internal/verification/models"
	"empverify/pkg/domain"
	"empverify/pkg/testutil"
)

const (
	verifierToken = "verifier-token"
	adminToken    = "admin-token"
)

type RouterSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	verification *verificationMocks.MockService
	admin        *adminMocks.MockService
	dbErr        error
	verifierID   domain.VerifierID
	router       http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verification = verificationMocks.NewMockService(s.ctrl)
	s.admin = adminMocks.NewMockService(s.ctrl)
	s.dbErr = nil
	s.verifierID = domain.NewVerifierID()

	authenticator, err := token.NewStatic(map[string]string{
		verifierToken: "verifier:" + s.verifierID.String() + ":hr@acme.example:ACME",
		adminToken:    "super_admin:" + domain.NewAdminID().String() + ":admin@company.com",
	})
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(Deps{
		Logger:        logger,
		Authenticator: authenticator,
		Health: NewHealthHandler(map[string]Check{
			"postgres": func(context.Context) error { return s.dbErr },
		}, logger),
		Auth:         authHandler.New(authMocks.NewMockService(s.ctrl), logger),
		Companies:    employeeHandler.New(employee.Companies, logger),
		Verification: verificationHandler.New(s.verification, logger, nil),
		Appeals:      appealHandler.New(appealMocks.NewMockService(s.ctrl), logger),
		Admin:        adminHandler.New(s.admin, logger),
	})
}

func (s *RouterSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RouterSuite) request(method, path, bearer string) *http.Request {
	req := testutil.NewJSONRequest(s.T(), method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func (s *RouterSuite) TestOperationalEndpoints() {
	rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/health", ""))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = testutil.DoRequest(s.router, s.request(http.MethodGet, "/debug/health-db", ""))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	s.dbErr = errors.New("connection refused")
	rr = testutil.DoRequest(s.router, s.request(http.MethodGet, "/debug/health-db", ""))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "service_unavailable")

	rr = testutil.DoRequest(s.router, s.request(http.MethodGet, "/metrics", ""))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *RouterSuite) TestPublicRoutes() {
	rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/companies", ""))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	env := testutil.DecodeEnvelope[[]employee.Company](s.T(), rr)
	s.Len(env.Data, 2)
}

func (s *RouterSuite) TestVerifierRoutes() {
	s.Run("missing token", func() {
		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/verify/records", ""))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("unknown token", func() {
		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/verify/records", "forged"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("admin token is not a verifier", func() {
		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/verify/records", adminToken))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("verifier reaches handler", func() {
		s.verification.EXPECT().List(gomock.Any(), s.verifierID).Return([]*verification.VerificationRecord{}, nil)

		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/verify/records", verifierToken))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *RouterSuite) TestAdminRoutes() {
	s.Run("verifier token is not an admin", func() {
		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/admin/dashboard", verifierToken))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("admin reaches dashboard", func() {
		s.admin.EXPECT().Dashboard(gomock.Any()).Return(&adminService.Dashboard{}, nil)

		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/api/admin/dashboard", adminToken))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("admin login stays public", func() {
		rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/api/admin/login", ""))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}
