package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"empverify/internal/appeal/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newAppeal(employeeID domain.EmployeeID, at time.Time) *models.Appeal {
	return models.NewAppeal(domain.NewAppealID(), domain.NewVerificationID(), domain.NewVerifierID(),
		employeeID, "please review", nil, nil, at)
}

func (s *InMemoryStoreSuite) TestCreateIsUniquePerVerification() {
	a := s.newAppeal("6002056", s.now)
	s.Require().NoError(s.store.Create(s.ctx, a))

	dup := s.newAppeal("6002056", s.now)
	dup.VerificationID = a.VerificationID
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)

	got, err := s.store.FindByVerificationID(s.ctx, a.VerificationID)
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)
}

func (s *InMemoryStoreSuite) TestConcurrentCreateKeepsOne() {
	verificationID := domain.NewVerificationID()
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := s.newAppeal("6002056", s.now)
			a.VerificationID = verificationID
			if err := s.store.Create(s.ctx, a); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
}

func (s *InMemoryStoreSuite) TestResolve() {
	a := s.newAppeal("6002056", s.now)
	s.Require().NoError(s.store.Create(s.ctx, a))
	admin := domain.NewAdminID()

	res := models.Resolution{Status: models.StatusApproved, HRResponse: "ok", ReviewedBy: admin, ReviewedAt: s.now}
	got, err := s.store.Resolve(s.ctx, a.ID, res)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.Equal(admin, *got.ReviewedBy)

	_, err = s.store.Resolve(s.ctx, a.ID, res)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.Resolve(s.ctx, domain.NewAppealID(), res)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *InMemoryStoreSuite) TestResolveRejectsNonTerminalDecision() {
	a := s.newAppeal("6002056", s.now)
	s.Require().NoError(s.store.Create(s.ctx, a))

	_, err := s.store.Resolve(s.ctx, a.ID, models.Resolution{
		Status:     models.StatusPending,
		HRResponse: "still looking",
		ReviewedBy: domain.NewAdminID(),
		ReviewedAt: s.now,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Nil(got.ReviewedBy)
	s.Nil(got.ReviewedAt)
	s.Empty(got.HRResponse)
}

func (s *InMemoryStoreSuite) TestListFiltersAndPages() {
	for i := range 5 {
		s.Require().NoError(s.store.Create(s.ctx, s.newAppeal("6002056", s.now.Add(time.Duration(i)*time.Minute))))
	}
	s.Require().NoError(s.store.Create(s.ctx, s.newAppeal("6002057", s.now)))

	filter := models.ListFilter{EmployeeID: "6002056", Page: 2, Limit: 2}.Normalize()
	page, total, err := s.store.List(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(page, 2)
	s.True(page[0].CreatedAt.After(page[1].CreatedAt))

	filter = models.ListFilter{Status: models.StatusApproved}.Normalize()
	page, total, err = s.store.List(s.ctx, filter)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(page)

	pending, err := s.store.CountByStatus(s.ctx, models.StatusPending)
	s.Require().NoError(err)
	s.Equal(6, pending)
}
