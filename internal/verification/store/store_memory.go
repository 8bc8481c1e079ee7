package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"empverify/internal/verification/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps verification records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.VerificationID]*models.VerificationRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.VerificationID]*models.VerificationRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.records[rec.ID] = clone(rec)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.VerificationID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(rec), nil
}

func (s *InMemoryStore) ListByVerifier(_ context.Context, verifierID domain.VerifierID) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VerificationRecord
	for _, rec := range s.records {
		if rec.VerifierID == verifierID {
			out = append(out, clone(rec))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]*models.VerificationRecord, error) {
	out := s.all()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.VerificationRecord, error) {
	return s.all(), nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts models.StatusCounts
	for _, rec := range s.records {
		switch rec.OverallStatus {
		case models.StatusMatched:
			counts.Matched++
		case models.StatusPartialMatch:
			counts.PartialMatch++
		case models.StatusMismatch:
			counts.Mismatch++
		}
	}
	return counts, nil
}

// AttachReport sets the report URL and completion time. No other field changes.
func (s *InMemoryStore) AttachReport(_ context.Context, id domain.VerificationID, reportURL string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.ReportURL = reportURL
	rec.CompletedAt = &completedAt
	return nil
}

func (s *InMemoryStore) all() []*models.VerificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerificationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, clone(rec))
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(recs []*models.VerificationRecord) {
	slices.SortFunc(recs, func(a, b *models.VerificationRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func clone(rec *models.VerificationRecord) *models.VerificationRecord {
	copied := *rec
	copied.ComparisonResults = slices.Clone(rec.ComparisonResults)
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}
