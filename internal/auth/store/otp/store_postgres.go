package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"empverify/internal/auth/models"
	"empverify/pkg/platform/sentinel"
)

// PostgresStore persists codes in the otps table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, otp *models.OTP) error {
	query := `
		INSERT INTO otps (email, code_hash, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			attempts = EXCLUDED.attempts,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, otp.Email, otp.CodeHash, otp.Attempts, otp.ExpiresAt, otp.CreatedAt); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, email string) (*models.OTP, error) {
	query := `SELECT email, code_hash, attempts, expires_at, created_at FROM otps WHERE email = $1`
	var otp models.OTP
	err := s.db.QueryRowContext(ctx, query, email).Scan(&otp.Email, &otp.CodeHash, &otp.Attempts, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find otp: %w", err)
	}
	return &otp, nil
}

func (s *PostgresStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	query := `UPDATE otps SET attempts = attempts + 1 WHERE email = $1 RETURNING attempts`
	var n int
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("increment otp attempts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Delete(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM otps WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM otps WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	return int(n), nil
}
