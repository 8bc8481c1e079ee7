package store

import (
	"context"
	"slices"
	"sync"

	"empverify/internal/appeal/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps appeals in process memory. The one-appeal-per-verification
// rule is checked and applied under the same lock.
type InMemoryStore struct {
	mu             sync.RWMutex
	appeals        map[domain.AppealID]*models.Appeal
	byVerification map[domain.VerificationID]domain.AppealID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		appeals:        make(map[domain.AppealID]*models.Appeal),
		byVerification: make(map[domain.VerificationID]domain.AppealID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byVerification[a.VerificationID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.appeals[a.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.appeals[a.ID] = clone(a)
	s.byVerification[a.VerificationID] = a.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AppealID) (*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appeals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (s *InMemoryStore) FindByVerificationID(_ context.Context, id domain.VerificationID) (*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appealID, ok := s.byVerification[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.appeals[appealID]), nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Appeal, int, error) {
	s.mu.RLock()
	matched := make([]*models.Appeal, 0, len(s.appeals))
	for _, a := range s.appeals {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != "" && a.EmployeeID != filter.EmployeeID {
			continue
		}
		matched = append(matched, clone(a))
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	total := len(matched)
	start := min(filter.Offset(), total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (s *InMemoryStore) ListByVerifier(_ context.Context, verifierID domain.VerifierID) ([]*models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Appeal
	for _, a := range s.appeals {
		if a.VerifierID == verifierID {
			out = append(out, clone(a))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]*models.Appeal, error) {
	s.mu.RLock()
	out := make([]*models.Appeal, 0, len(s.appeals))
	for _, a := range s.appeals {
		out = append(out, clone(a))
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Resolve applies res only if the appeal is still pending.
func (s *InMemoryStore) Resolve(_ context.Context, id domain.AppealID, res models.Resolution) (*models.Appeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appeals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := a.ApplyResolution(res.Status, res.HRResponse, res.ReviewedBy, res.ReviewedAt); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, sentinel.ErrInvalidState
		}
		return nil, err
	}
	return clone(a), nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appeals), nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context, status models.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.appeals {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func sortNewestFirst(appeals []*models.Appeal) {
	slices.SortFunc(appeals, func(a, b *models.Appeal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func clone(a *models.Appeal) *models.Appeal {
	copied := *a
	copied.MismatchedFields = slices.Clone(a.MismatchedFields)
	if a.SupportingDocument != nil {
		doc := *a.SupportingDocument
		copied.SupportingDocument = &doc
	}
	if a.ReviewedBy != nil {
		by := *a.ReviewedBy
		copied.ReviewedBy = &by
	}
	if a.ReviewedAt != nil {
		at := *a.ReviewedAt
		copied.ReviewedAt = &at
	}
	return &copied
}
