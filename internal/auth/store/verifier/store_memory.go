// Package verifier stores verifier company accounts.
package verifier

import (
	"context"
	"sync"
	"time"

	"empverify/internal/auth/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps verifiers in process memory, indexed by id and email.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.VerifierID]*models.Verifier
	byEmail map[string]domain.VerifierID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[domain.VerifierID]*models.Verifier),
		byEmail: make(map[string]domain.VerifierID),
	}
}

// Create returns sentinel.ErrAlreadyUsed when the email is taken.
func (s *InMemoryStore) Create(_ context.Context, v *models.Verifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[v.Email]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[v.ID] = clone(v)
	s.byEmail[v.Email] = v.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.VerifierID) (*models.Verifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(v), nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Verifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *InMemoryStore) UpdateLastLogin(_ context.Context, id domain.VerifierID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	v.LastLoginAt = &at
	return nil
}

func (s *InMemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func clone(v *models.Verifier) *models.Verifier {
	c := *v
	if v.LastLoginAt != nil {
		t := *v.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
