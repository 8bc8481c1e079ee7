// Package otp stores the single outstanding login code per email.
package otp

import (
	"context"
	"sync"
	"time"

	"empverify/internal/auth/models"
	"empverify/pkg/platform/sentinel"
)

// InMemoryStore keeps codes in process memory.
type InMemoryStore struct {
	mu   sync.Mutex
	otps map[string]models.OTP
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{otps: make(map[string]models.OTP)}
}

// Save replaces any outstanding code for the email.
func (s *InMemoryStore) Save(_ context.Context, otp *models.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[otp.Email] = *otp
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, email string) (*models.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &otp, nil
}

// IncrementAttempts returns the attempt count after the increment.
func (s *InMemoryStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	otp.Attempts++
	s.otps[email] = otp
	return otp.Attempts, nil
}

func (s *InMemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, email)
	return nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for email, otp := range s.otps {
		if otp.IsExpired(now) {
			delete(s.otps, email)
			n++
		}
	}
	return n, nil
}
