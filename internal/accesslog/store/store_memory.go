// Package store persists access log events.
package store

import (
	"context"
	"slices"
	"sync"

	"empverify/internal/accesslog/models"
)

// InMemoryStore keeps events in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []*models.Event
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, e *models.Event) error {
	c := *e
	c.Metadata = cloneMetadata(e.Metadata)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, &c)
	return nil
}

// List returns the filtered page newest first and the filtered total.
func (s *InMemoryStore) List(_ context.Context, f models.Filter) ([]*models.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Event
	for _, e := range slices.Backward(s.events) {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	// Same-instant events keep newest-inserted first.
	slices.SortStableFunc(matched, func(a, b *models.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	out := make([]*models.Event, 0, end-start)
	for _, e := range matched[start:end] {
		c := *e
		c.Metadata = cloneMetadata(e.Metadata)
		out = append(out, &c)
	}
	return out, total, nil
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
