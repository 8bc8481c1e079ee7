package store

import (
	"context"
	"sync"
	"time"

	"empverify/internal/attempts/models"
)

// InMemoryStore keeps attempt counters in process memory.
type InMemoryStore struct {
	mu       sync.Mutex
	attempts map[models.Key]*models.Attempt
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{attempts: make(map[models.Key]*models.Attempt)}
}

// Get returns nil without error when no counter exists.
func (s *InMemoryStore) Get(_ context.Context, key models.Key) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[key]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (s *InMemoryStore) RecordFailure(_ context.Context, key models.Key, threshold int, now time.Time) (*models.FailureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[key]
	if !ok {
		a = &models.Attempt{VerifierID: key.VerifierID, EmployeeID: key.EmployeeID}
		s.attempts[key] = a
	}
	res := a.ApplyFailure(threshold, now)
	return &res, nil
}

func (s *InMemoryStore) Reset(_ context.Context, key models.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[key]
	if !ok {
		return nil
	}
	a.AttemptCount = 0
	a.IsBlocked = false
	a.BlockedAt = nil
	return nil
}
