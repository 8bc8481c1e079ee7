package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"empverify/internal/appeal/handler/mocks"
	"empverify/internal/appeal/models"
	"empverify/internal/appeal/service"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/middleware/admin"
	"empverify/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router
	verifier    domain.VerifierID
	adminID     domain.AdminID
	verifierP   *domain.Principal
	reviewerP   *domain.Principal
	viewerP     *domain.Principal
	now         time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.mockService, logger)
	s.router = chi.NewRouter()
	h.RegisterVerifier(s.router)
	h.RegisterAdmin(s.router,
		admin.RequirePermission(domain.PermViewAppeals, logger),
		admin.RequirePermission(domain.PermManageAppeals, logger),
	)

	s.verifier = domain.NewVerifierID()
	s.adminID = domain.NewAdminID()
	s.verifierP = testutil.VerifierPrincipal(s.verifier.String(), "hr@acme.example", "ACME")
	s.reviewerP = testutil.AdminPrincipal(s.adminID.String(), domain.RoleHRManager,
		domain.PermViewAppeals, domain.PermManageAppeals)
	s.viewerP = testutil.AdminPrincipal(s.adminID.String(), domain.RoleAdmin, domain.PermViewAppeals)
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) appeal(verificationID domain.VerificationID) *models.Appeal {
	return &models.Appeal{
		ID:             domain.NewAppealID(),
		VerificationID: verificationID,
		VerifierID:     s.verifier,
		EmployeeID:     "6002056",
		Comments:       "exit date is wrong",
		Status:         models.StatusPending,
		CreatedAt:      s.now,
	}
}

func (s *HandlerSuite) TestCreate() {
	s.Run("json body", func() {
		vid := domain.NewVerificationID()
		s.mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req service.CreateRequest) (*models.Appeal, error) {
				s.Equal(s.verifier, req.VerifierID)
				s.Equal("hr@acme.example", req.VerifierEmail)
				s.Equal("ACME", req.VerifierCompany)
				s.Equal(vid, req.VerificationID)
				s.Equal("exit date is wrong", req.Comments)
				s.Nil(req.Document)
				return s.appeal(vid), nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appeals", map[string]string{
			"verificationId": vid.String(),
			"comments":       " exit date is wrong ",
		})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.verifierP))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		env := testutil.DecodeEnvelope[AppealCreatedResponse](s.T(), rr)
		s.Equal("Appeal submitted successfully. We will review your case and respond shortly.", env.Message)
		s.Equal("pending", env.Data.Status)
		s.False(env.Data.HasSupportingDocument)
	})

	s.Run("multipart with document", func() {
		vid := domain.NewVerificationID()
		pdf := []byte("%PDF-1.4 relieving letter")
		s.mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req service.CreateRequest) (*models.Appeal, error) {
				s.Require().NotNil(req.Document)
				s.Equal("relieving.pdf", req.Document.Name)
				body, err := io.ReadAll(req.Document.Body)
				s.Require().NoError(err)
				s.Equal(pdf, body)
				return s.appeal(vid), nil
			})

		req := testutil.NewMultipartRequest(s.T(), "/appeals", map[string]string{
			"verificationId": vid.String(),
			"comments":       "see attached letter",
		}, "supportingDocument", "relieving.pdf", pdf)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.verifierP))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("multipart without comments", func() {
		req := testutil.NewMultipartRequest(s.T(), "/appeals", map[string]string{
			"verificationId": domain.NewVerificationID().String(),
		}, "", "", nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.verifierP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("duplicate appeal", func() {
		s.mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "An appeal has already been submitted for this verification"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appeals", map[string]string{
			"verificationId": domain.NewVerificationID().String(),
			"comments":       "again",
		})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.verifierP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("admins cannot file appeals", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appeals", map[string]string{
			"verificationId": domain.NewVerificationID().String(),
			"comments":       "x",
		})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.reviewerP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *HandlerSuite) TestList() {
	s.Run("filters and paging from query", func() {
		s.mockService.EXPECT().List(gomock.Any(), models.ListFilter{
			Status:     models.StatusPending,
			EmployeeID: "6002056",
			Page:       2,
			Limit:      5,
		}).Return(&models.Page{
			Items: []*models.Summary{{
				Appeal:   s.appeal(domain.NewVerificationID()),
				Verifier: &models.VerifierInfo{ID: s.verifier, CompanyName: "ACME", Email: "hr@acme.example"},
			}},
			Total: 6, Page: 2, Limit: 5, Pages: 2,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/appeals?status=pending&employeeId=6002056&page=2&limit=5", nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		env := testutil.DecodeEnvelope[AppealListResponse](s.T(), rr)
		s.Require().Len(env.Data.Appeals, 1)
		s.Equal("ACME", env.Data.Appeals[0].VerifierInfo.CompanyName)
		s.Equal(PaginationResponse{Total: 6, Pages: 2, Page: 2, Limit: 5}, env.Data.Pagination)
	})

	s.Run("ALL disables the status filter", func() {
		s.mockService.EXPECT().List(gomock.Any(), models.ListFilter{Page: 1, Limit: 10}).
			Return(&models.Page{Page: 1, Limit: 10}, nil)

		req := httptest.NewRequest(http.MethodGet, "/appeals?status=ALL", nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("unknown status", func() {
		req := httptest.NewRequest(http.MethodGet, "/appeals?status=archived", nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("missing permission", func() {
		req := httptest.NewRequest(http.MethodGet, "/appeals", nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req,
			testutil.AdminPrincipal(s.adminID.String(), domain.RoleAdmin)))

		s.Equal(http.StatusForbidden, rr.Code)
	})
}

func (s *HandlerSuite) TestListMine() {
	s.mockService.EXPECT().ListMine(gomock.Any(), s.verifier).
		Return([]*models.Appeal{s.appeal(domain.NewVerificationID())}, nil)

	req := httptest.NewRequest(http.MethodGet, "/appeals/mine", nil)
	rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.verifierP))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	env := testutil.DecodeEnvelope[MyAppealsResponse](s.T(), rr)
	s.Len(env.Data.Appeals, 1)
}

func (s *HandlerSuite) TestGet() {
	s.Run("found", func() {
		a := s.appeal(domain.NewVerificationID())
		s.mockService.EXPECT().Get(gomock.Any(), a.ID).Return(&models.Detail{
			Appeal:       a,
			EmployeeName: "S Sathish",
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/appeals/"+a.ID.String(), nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		env := testutil.DecodeEnvelope[map[string]AppealDetailResponse](s.T(), rr)
		s.Equal("S Sathish", env.Data["appeal"].EmployeeName)
	})

	s.Run("malformed id", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/appeals/nope", nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("not found", func() {
		id := domain.NewAppealID()
		s.mockService.EXPECT().Get(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Appeal not found"))

		req := httptest.NewRequest(http.MethodGet, "/admin/appeals/"+id.String(), nil)
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestRespond() {
	s.Run("approve", func() {
		a := s.appeal(domain.NewVerificationID())
		reviewed := s.now.Add(time.Hour)
		s.mockService.EXPECT().Adjudicate(gomock.Any(), service.AdjudicateRequest{
			AdminID:    s.adminID,
			AppealID:   a.ID,
			Decision:   models.StatusApproved,
			HRResponse: "records corrected",
		}).DoAndReturn(func(_ any, _ service.AdjudicateRequest) (*models.Appeal, error) {
			a.Status = models.StatusApproved
			a.HRResponse = "records corrected"
			a.ReviewedAt = &reviewed
			return a, nil
		})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/appeals/"+a.ID.String()+"/respond",
			map[string]string{"status": "approved", "hrResponse": "records corrected"})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.reviewerP))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		env := testutil.DecodeEnvelope[RespondResponse](s.T(), rr)
		s.Equal("Appeal has been approved successfully", env.Message)
		s.Equal("approved", env.Data.Status)
	})

	s.Run("invalid decision", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/appeals/"+domain.NewAppealID().String()+"/respond",
			map[string]string{"status": "pending", "hrResponse": "x"})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.reviewerP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("already reviewed", func() {
		id := domain.NewAppealID()
		s.mockService.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "This appeal has already been reviewed"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/appeals/"+id.String()+"/respond",
			map[string]string{"status": "rejected", "hrResponse": "no"})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.reviewerP))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("view-only admin cannot respond", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/appeals/"+domain.NewAppealID().String()+"/respond",
			map[string]string{"status": "rejected", "hrResponse": "no"})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.viewerP))

		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("service failure", func() {
		s.mockService.EXPECT().Adjudicate(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/appeals/"+domain.NewAppealID().String()+"/respond",
			map[string]string{"status": "rejected", "hrResponse": "no"})
		rr := testutil.DoRequest(s.router, testutil.WithPrincipal(req, s.reviewerP))

		s.Equal(http.StatusInternalServerError, rr.Code)
	})
}

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func (s *HandlerSuite) TestDecodeCreateReleasesUpload() {
	pdf := []byte("%PDF-1.4 relieving letter")
	req := testutil.NewMultipartRequest(s.T(), "/appeals", map[string]string{
		"verificationId": domain.NewVerificationID().String(),
	}, "supportingDocument", "relieving.pdf", pdf)
	h := New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, doc, release, ok := h.decodeCreate(httptest.NewRecorder(), req, "req-1")
	s.Require().True(ok)
	s.Require().NotNil(doc)
	body, err := io.ReadAll(doc.Body)
	s.Require().NoError(err)
	s.Equal(pdf, body)
	s.NotPanics(release)

	file := &closeCounter{}
	uploadRelease(req, file)()
	s.Equal(1, file.closed, "document part is closed")

	s.NotPanics(uploadRelease(httptest.NewRequest(http.MethodPost, "/appeals", nil), nil))
}
