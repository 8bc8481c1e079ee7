package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	notify "empverify/internal/notify/models"
)

// InMemoryStore keeps email logs in process memory, newest last.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs []notify.EmailLog
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, log *notify.EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *InMemoryStore) Stats(_ context.Context, since time.Time) ([]notify.ProviderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProvider := make(map[string]*notify.ProviderStats)
	sums := make(map[string]int64)
	for _, l := range s.logs {
		if l.CreatedAt.Before(since) {
			continue
		}
		st, ok := byProvider[l.Provider]
		if !ok {
			st = &notify.ProviderStats{Provider: l.Provider, MinResponseTimeMs: l.ResponseTimeMs}
			byProvider[l.Provider] = st
		}
		st.Total++
		if l.Status == notify.StatusSent {
			st.Success++
		} else {
			st.Failed++
		}
		sums[l.Provider] += l.ResponseTimeMs
		st.MinResponseTimeMs = min(st.MinResponseTimeMs, l.ResponseTimeMs)
		st.MaxResponseTimeMs = max(st.MaxResponseTimeMs, l.ResponseTimeMs)
	}

	out := make([]notify.ProviderStats, 0, len(byProvider))
	for name, st := range byProvider {
		st.AvgResponseTimeMs = float64(sums[name]) / float64(st.Total)
		st.SuccessRate = successRate(st.Success, st.Total)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]*notify.EmailLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*notify.EmailLog, 0, min(limit, len(s.logs)))
	for _, l := range slices.Backward(s.logs) {
		if len(out) == limit {
			break
		}
		out = append(out, &l)
	}
	return out, nil
}

// successRate is a percentage rounded to two decimals.
func successRate(success, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(success)*10000/float64(total)+0.5)) / 100
}
