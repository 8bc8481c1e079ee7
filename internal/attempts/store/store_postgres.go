package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"empverify/internal/attempts/models"
	"empverify/pkg/domain"
)

// PostgresStore persists attempt counters in PostgreSQL.
// This store is pure I/O; the threshold is supplied by the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key models.Key) (*models.Attempt, error) {
	query := `
		SELECT verifier_id, employee_id, attempt_count, is_blocked, blocked_at, last_attempt_at
		FROM verification_attempts
		WHERE verifier_id = $1 AND employee_id = $2
	`
	a, err := scanAttempt(s.db.QueryRowContext(ctx, query, uuid.UUID(key.VerifierID), key.EmployeeID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

// RecordFailure increments the counter and applies the block in one upsert, so
// concurrent failures can never both observe a count below the threshold.
// JustBlocked holds for the single call whose increment reached the threshold.
func (s *PostgresStore) RecordFailure(ctx context.Context, key models.Key, threshold int, now time.Time) (*models.FailureResult, error) {
	query := `
		INSERT INTO verification_attempts (verifier_id, employee_id, attempt_count, is_blocked, blocked_at, last_attempt_at)
		VALUES ($1, $2, 1, 1 >= $3::int, CASE WHEN 1 >= $3::int THEN $4::timestamptz END, $4::timestamptz)
		ON CONFLICT (verifier_id, employee_id) DO UPDATE SET
			attempt_count = verification_attempts.attempt_count + 1,
			is_blocked = verification_attempts.is_blocked OR verification_attempts.attempt_count + 1 >= $3::int,
			blocked_at = CASE
				WHEN verification_attempts.is_blocked THEN verification_attempts.blocked_at
				WHEN verification_attempts.attempt_count + 1 >= $3::int THEN $4::timestamptz
				ELSE NULL
			END,
			last_attempt_at = $4::timestamptz
		RETURNING attempt_count, is_blocked
	`
	var res models.FailureResult
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(key.VerifierID), key.EmployeeID.String(), threshold, now).
		Scan(&res.AttemptCount, &res.IsBlocked)
	if err != nil {
		return nil, fmt.Errorf("record attempt failure: %w", err)
	}
	res.JustBlocked = res.IsBlocked && res.AttemptCount == threshold
	return &res, nil
}

func (s *PostgresStore) Reset(ctx context.Context, key models.Key) error {
	query := `
		UPDATE verification_attempts
		SET attempt_count = 0, is_blocked = FALSE, blocked_at = NULL
		WHERE verifier_id = $1 AND employee_id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(key.VerifierID), key.EmployeeID.String()); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

type attemptRow interface {
	Scan(dest ...any) error
}

func scanAttempt(row attemptRow) (*models.Attempt, error) {
	var (
		a          models.Attempt
		verifierID uuid.UUID
		employeeID string
		blockedAt  sql.NullTime
	)
	if err := row.Scan(&verifierID, &employeeID, &a.AttemptCount, &a.IsBlocked, &blockedAt, &a.LastAttemptAt); err != nil {
		return nil, err
	}
	a.VerifierID = domain.VerifierID(verifierID)
	a.EmployeeID = domain.EmployeeID(employeeID)
	if blockedAt.Valid {
		a.BlockedAt = &blockedAt.Time
	}
	return &a, nil
}
