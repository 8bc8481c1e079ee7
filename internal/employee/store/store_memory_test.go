package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.Require().NoError(SeedEmployees(s.ctx, s.store))
}

func (s *InMemoryStoreSuite) TestFindByID() {
	s.Run("returns seeded employee", func() {
		emp, err := s.store.FindByID(s.ctx, domain.EmployeeID("6002056"))
		s.Require().NoError(err)
		s.Equal("S Sathish", emp.Name)
		s.Equal("TVSCSHIB", emp.EntityName)
		s.Equal(2024, emp.DateOfLeaving.Year())
	})

	s.Run("missing employee is not found", func() {
		_, err := s.store.FindByID(s.ctx, domain.EmployeeID("0000000"))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record is a copy", func() {
		emp, err := s.store.FindByID(s.ctx, domain.EmployeeID("6002057"))
		s.Require().NoError(err)
		emp.Name = "changed"

		again, err := s.store.FindByID(s.ctx, domain.EmployeeID("6002057"))
		s.Require().NoError(err)
		s.Equal("Rajesh Kumar", again.Name)
	})
}

func (s *InMemoryStoreSuite) TestSeedIsIdempotent() {
	s.Require().NoError(SeedEmployees(s.ctx, s.store))
	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}
