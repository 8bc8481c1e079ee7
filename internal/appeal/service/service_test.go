package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,VerificationStore,EmployeeStore,VerifierDirectory,DocumentStore,Notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"empverify/internal/appeal/models"
	"empverify/internal/appeal/service/mocks"
	"empverify/internal/documents"
	employee "empverify/internal/employee/models"
	notify "empverify/internal/notify/models"
	"empverify/internal/verification/comparator"
	verification "empverify/internal/verification/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl              *gomock.Controller
	mockStore         *mocks.MockStore
	mockVerifications *mocks.MockVerificationStore
	mockEmployees     *mocks.MockEmployeeStore
	mockVerifiers     *mocks.MockVerifierDirectory
	mockDocuments     *mocks.MockDocumentStore
	mockNotifier      *mocks.MockNotifier
	service           *Service
	ctx               context.Context
	now               time.Time
	verifier          domain.VerifierID
	record            *verification.VerificationRecord
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockVerifications = mocks.NewMockVerificationStore(s.ctrl)
	s.mockEmployees = mocks.NewMockEmployeeStore(s.ctrl)
	s.mockVerifiers = mocks.NewMockVerifierDirectory(s.ctrl)
	s.mockDocuments = mocks.NewMockDocumentStore(s.ctrl)
	s.mockNotifier = mocks.NewMockNotifier(s.ctrl)
	s.now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.verifier = domain.NewVerifierID()

	s.service, _ = New(s.mockStore, s.mockVerifications,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(s.mockNotifier, []string{"hr@corp.example"}),
		WithDocuments(s.mockDocuments),
		WithVerifiers(s.mockVerifiers),
		WithEmployees(s.mockEmployees),
	)
	s.record = &verification.VerificationRecord{
		ID:         domain.NewVerificationID(),
		VerifierID: s.verifier,
		EmployeeID: "6002056",
		ComparisonResults: []comparator.Result{
			{Field: "name", Label: "Employee Name", IsMatch: true},
			{Field: "exitReason", Label: "Exit Reason", VerifierValue: "Terminated", CompanyValue: "Resigned"},
		},
		OverallStatus: verification.StatusPartialMatch,
		MatchScore:    50,
	}
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) createRequest() CreateRequest {
	return CreateRequest{
		VerifierID:      s.verifier,
		VerifierEmail:   "hr@acme.example",
		VerifierCompany: "ACME",
		VerificationID:  s.record.ID,
		Comments:        "  Relieving letter says resigned  ",
	}
}

func (s *ServiceSuite) TestNew() {
	_, err := New(nil, s.mockVerifications)
	s.Error(err)
	_, err = New(s.mockStore, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCreate() {
	s.Run("files a pending appeal with a mismatch snapshot", func() {
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), s.record.ID).Return(s.record, nil)
		s.mockStore.EXPECT().FindByVerificationID(gomock.Any(), s.record.ID).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockNotifier.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n notify.Notification) bool {
				s.Equal(notify.KindAppealCreated, n.Kind)
				s.Equal([]string{"hr@corp.example"}, n.To)
				data := n.Data.(notify.AppealCreatedData)
				s.Equal([]string{"Exit Reason"}, data.MismatchedFields)
				s.Equal("ACME", data.VerifierCompany)
				return true
			})

		a, err := s.service.Create(s.ctx, s.createRequest())
		s.Require().NoError(err)
		s.Equal(models.StatusPending, a.Status)
		s.Equal("Relieving letter says resigned", a.Comments)
		s.Equal(domain.EmployeeID("6002056"), a.EmployeeID)
		s.Require().Len(a.MismatchedFields, 1)
		s.Equal("exitReason", a.MismatchedFields[0].FieldName)
		s.Equal(s.now, a.CreatedAt)
		s.Nil(a.ReviewedBy)
	})

	s.Run("blank comments are rejected before any lookup", func() {
		req := s.createRequest()
		req.Comments = "   "
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("someone else's verification looks missing", func() {
		other := *s.record
		other.VerifierID = domain.NewVerifierID()
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), s.record.ID).Return(&other, nil)

		_, err := s.service.Create(s.ctx, s.createRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(msgVerificationNotFound, err.Error())
	})

	s.Run("unknown verification gets the same message", func() {
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Create(s.ctx, s.createRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(msgVerificationNotFound, err.Error())
	})

	s.Run("existing appeal is a conflict", func() {
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(s.record, nil)
		s.mockStore.EXPECT().FindByVerificationID(gomock.Any(), gomock.Any()).Return(&models.Appeal{Status: models.StatusRejected}, nil)

		_, err := s.service.Create(s.ctx, s.createRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("losing a concurrent create is a conflict", func() {
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(s.record, nil)
		s.mockStore.EXPECT().FindByVerificationID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		_, err := s.service.Create(s.ctx, s.createRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(msgAlreadyAppealed, err.Error())
	})
}

func (s *ServiceSuite) TestCreateWithDocument() {
	file := &documents.File{Name: "letter.pdf", Size: 4, Body: bytes.NewReader([]byte("%PDF"))}

	s.Run("stored document is attached", func() {
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(s.record, nil)
		s.mockStore.EXPECT().FindByVerificationID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockDocuments.EXPECT().Upload(gomock.Any(), gomock.Any(), "appeals/6002056").
			Return(&documents.Stored{Filename: "appeals/6002056/x.pdf", StorageURL: "/uploads/appeals/6002056/x.pdf"}, nil)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockNotifier.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true)

		req := s.createRequest()
		req.Document = file
		a, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Require().NotNil(a.SupportingDocument)
		s.Equal("/uploads/appeals/6002056/x.pdf", a.SupportingDocument.StorageURL)
	})

	s.Run("upload failure does not block the appeal", func() {
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(s.record, nil)
		s.mockStore.EXPECT().FindByVerificationID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockDocuments.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockNotifier.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(false)

		req := s.createRequest()
		req.Document = file
		a, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Nil(a.SupportingDocument)
	})
}

func (s *ServiceSuite) TestAdjudicate() {
	admin := domain.NewAdminID()
	appealID := domain.NewAppealID()

	s.Run("approves and notifies the verifier", func() {
		s.mockStore.EXPECT().Resolve(gomock.Any(), appealID, models.Resolution{
			Status: models.StatusApproved, HRResponse: "Records corrected", ReviewedBy: admin, ReviewedAt: s.now,
		}).Return(&models.Appeal{
			ID: appealID, VerifierID: s.verifier, EmployeeID: "6002056",
			Status: models.StatusApproved, HRResponse: "Records corrected",
			ReviewedBy: &admin, ReviewedAt: &s.now,
		}, nil)
		s.mockVerifiers.EXPECT().FindVerifier(gomock.Any(), s.verifier).
			Return(&models.VerifierInfo{ID: s.verifier, Email: "hr@acme.example"}, nil)
		s.mockNotifier.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n notify.Notification) bool {
				s.Equal(notify.KindAppealResolved, n.Kind)
				s.Equal([]string{"hr@acme.example"}, n.To)
				return true
			})

		a, err := s.service.Adjudicate(s.ctx, AdjudicateRequest{
			AdminID: admin, AppealID: appealID, Decision: models.StatusApproved, HRResponse: " Records corrected ",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, a.Status)
	})

	s.Run("already reviewed is a conflict and nobody is notified", func() {
		s.mockStore.EXPECT().Resolve(gomock.Any(), appealID, gomock.Any()).Return(nil, sentinel.ErrInvalidState)

		_, err := s.service.Adjudicate(s.ctx, AdjudicateRequest{
			AdminID: admin, AppealID: appealID, Decision: models.StatusRejected, HRResponse: "no",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(msgAlreadyReviewed, err.Error())
	})

	s.Run("unknown appeal", func() {
		s.mockStore.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Adjudicate(s.ctx, AdjudicateRequest{
			AdminID: admin, AppealID: domain.NewAppealID(), Decision: models.StatusRejected, HRResponse: "no",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("pending is not a decision", func() {
		_, err := s.service.Adjudicate(s.ctx, AdjudicateRequest{
			AdminID: admin, AppealID: appealID, Decision: models.StatusPending, HRResponse: "x",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("blank response is rejected", func() {
		_, err := s.service.Adjudicate(s.ctx, AdjudicateRequest{
			AdminID: admin, AppealID: appealID, Decision: models.StatusApproved, HRResponse: "  ",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestList() {
	a := &models.Appeal{ID: domain.NewAppealID(), VerifierID: s.verifier, Status: models.StatusPending}
	s.mockStore.EXPECT().List(gomock.Any(), models.ListFilter{Status: models.StatusPending, Page: 1, Limit: 10}).
		Return([]*models.Appeal{a}, 11, nil)
	s.mockVerifiers.EXPECT().FindVerifier(gomock.Any(), s.verifier).Return(nil, sentinel.ErrNotFound)

	page, err := s.service.List(s.ctx, models.ListFilter{Status: models.StatusPending})
	s.Require().NoError(err)
	s.Equal(11, page.Total)
	s.Equal(2, page.Pages)
	s.Require().Len(page.Items, 1)
	s.Nil(page.Items[0].Verifier)
}

func (s *ServiceSuite) TestGet() {
	a := &models.Appeal{ID: domain.NewAppealID(), VerificationID: s.record.ID, VerifierID: s.verifier, EmployeeID: "6002056"}

	s.Run("joins related records", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)
		s.mockVerifiers.EXPECT().FindVerifier(gomock.Any(), s.verifier).
			Return(&models.VerifierInfo{ID: s.verifier, CompanyName: "ACME", Email: "hr@acme.example"}, nil)
		s.mockVerifications.EXPECT().FindByID(gomock.Any(), s.record.ID).Return(s.record, nil)
		s.mockEmployees.EXPECT().FindByID(gomock.Any(), domain.EmployeeID("6002056")).
			Return(&employee.Employee{Name: "S Sathish"}, nil)

		d, err := s.service.Get(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("S Sathish", d.EmployeeName)
		s.Equal("ACME", d.Verifier.CompanyName)
		s.Equal(50, d.Verification.MatchScore)
	})

	s.Run("missing appeal", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Get(s.ctx, domain.NewAppealID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListMine() {
	s.mockStore.EXPECT().ListByVerifier(gomock.Any(), s.verifier).Return(nil, nil)
	appeals, err := s.service.ListMine(s.ctx, s.verifier)
	s.Require().NoError(err)
	s.NotNil(appeals)
}
