// Package admin stores internal HR and operations accounts.
package admin

import (
	"context"
	"slices"
	"sync"
	"time"

	"empverify/internal/auth/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps admins in process memory, indexed by id and username.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[domain.AdminID]*models.Admin
	byUsername map[string]domain.AdminID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[domain.AdminID]*models.Admin),
		byUsername: make(map[string]domain.AdminID),
	}
}

// Create returns sentinel.ErrAlreadyUsed when the username is taken.
func (s *InMemoryStore) Create(_ context.Context, a *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUsername[a.Username]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[a.ID] = clone(a)
	s.byUsername[a.Username] = a.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AdminID) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *InMemoryStore) UpdateLastLogin(_ context.Context, id domain.AdminID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.LastLoginAt = &at
	return nil
}

func clone(a *models.Admin) *models.Admin {
	c := *a
	c.Permissions = slices.Clone(a.Permissions)
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
