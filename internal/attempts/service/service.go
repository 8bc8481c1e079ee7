package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"empverify/internal/attempts/metrics"
	"empverify/internal/attempts/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/requestcontext"
)

// DefaultMaxAttempts is the number of failed identity validations before a pair is blocked.
const DefaultMaxAttempts = 3

// Store persists attempt counters. RecordFailure must be atomic.
type Store interface {
	Get(ctx context.Context, key models.Key) (*models.Attempt, error)
	RecordFailure(ctx context.Context, key models.Key, threshold int, now time.Time) (*models.FailureResult, error)
	Reset(ctx context.Context, key models.Key) error
}

type Service struct {
	store         Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
	maxAttempts   int
	exitTeamEmail string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithExitTeamEmail(email string) Option {
	return func(s *Service) {
		s.exitTeamEmail = email
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("attempt store is required")
	}
	svc := &Service{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// BlockedMessage is shown to a verifier who reached the attempt limit.
func (s *Service) BlockedMessage() string {
	return fmt.Sprintf("Maximum attempts reached. Please reach out to exit team - %s", s.exitTeamEmail)
}

// BlockedError is the domain error for a blocked pair.
func (s *Service) BlockedError() error {
	return dErrors.New(dErrors.CodeBlocked, s.BlockedMessage())
}

// CheckBlocked reports whether verifierID may no longer validate employeeID.
// A store failure is returned as an error; callers must not treat it as unblocked.
func (s *Service) CheckBlocked(ctx context.Context, verifierID domain.VerifierID, employeeID string) (bool, error) {
	key := models.NewKey(verifierID, employeeID)
	a, err := s.store.Get(ctx, key)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification attempts")
	}
	blocked := a != nil && a.IsBlocked
	if blocked {
		s.metrics.IncrementBlockedRejects()
		s.logger.WarnContext(ctx, "verification attempt rejected, pair is blocked",
			"request_id", requestcontext.RequestID(ctx),
			"verifier_id", verifierID,
			"employee_id", key.EmployeeID,
		)
	}
	return blocked, nil
}

// RecordFailure counts one failed identity validation.
func (s *Service) RecordFailure(ctx context.Context, verifierID domain.VerifierID, employeeID string) (*models.FailureResult, error) {
	key := models.NewKey(verifierID, employeeID)
	res, err := s.store.RecordFailure(ctx, key, s.maxAttempts, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification attempt")
	}
	s.metrics.IncrementFailures()
	if res.JustBlocked {
		s.metrics.IncrementBlocks()
		s.logger.WarnContext(ctx, "verifier blocked for employee after repeated failures",
			"request_id", requestcontext.RequestID(ctx),
			"verifier_id", verifierID,
			"employee_id", key.EmployeeID,
			"attempt_count", res.AttemptCount,
		)
	}
	return res, nil
}

// Reset clears the counter after a fully successful identity validation.
func (s *Service) Reset(ctx context.Context, verifierID domain.VerifierID, employeeID string) error {
	if err := s.store.Reset(ctx, models.NewKey(verifierID, employeeID)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset verification attempts")
	}
	s.metrics.IncrementResets()
	return nil
}

// CheckAndRecordAttempt is the one-call form: a blocked pair stays blocked,
// a success resets and a failure is counted.
func (s *Service) CheckAndRecordAttempt(ctx context.Context, verifierID domain.VerifierID, employeeID string, success bool) (bool, error) {
	blocked, err := s.CheckBlocked(ctx, verifierID, employeeID)
	if err != nil {
		return false, err
	}
	if blocked {
		return true, nil
	}
	if success {
		return false, s.Reset(ctx, verifierID, employeeID)
	}
	res, err := s.RecordFailure(ctx, verifierID, employeeID)
	if err != nil {
		return false, err
	}
	return res.IsBlocked, nil
}
