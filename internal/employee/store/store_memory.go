package store

import (
	"context"
	"sync"

	"empverify/internal/employee/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps employees in a map keyed by normalized employee id.
type InMemoryStore struct {
	mu        sync.RWMutex
	employees map[domain.EmployeeID]*models.Employee
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{employees: make(map[domain.EmployeeID]*models.Employee)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.EmployeeID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *emp
	return &copied, nil
}

// Upsert inserts or replaces an employee. Used by seeding only.
func (s *InMemoryStore) Upsert(_ context.Context, emp *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *emp
	s.employees[emp.EmployeeID] = &copied
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employees), nil
}
