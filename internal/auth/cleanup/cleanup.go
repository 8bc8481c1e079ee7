// Package cleanup schedules the periodic purge of expired login codes.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cron "github.com/robfig/cron/v3"
)

// DefaultSchedule runs the purge every ten minutes.
const DefaultSchedule = "@every 10m"

const runTimeout = time.Minute

// Purger deletes expired codes and reports how many were removed.
type Purger interface {
	CleanupExpiredOTPs(ctx context.Context) (int, error)
}

// Scheduler runs the purge on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	purger Purger
	logger *slog.Logger
}

func New(purger Purger, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(),
		purger: purger,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("schedule otp cleanup %q: %w", schedule, err)
	}
	return s, nil
}

// Run purges once. Failures are logged; the next tick retries.
func (s *Scheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	n, err := s.purger.CleanupExpiredOTPs(ctx)
	if err != nil {
		s.logger.Error("scheduled otp cleanup failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired otps purged", "count", n)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running purge or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
