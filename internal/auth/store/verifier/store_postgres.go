package verifier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"empverify/internal/auth/models"
	"empverify/internal/platform/postgres"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/platform/tx"
)

const uniqueEmailConstraint = "verifiers_email_key"

// PostgresStore persists verifiers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT id, company_name, email, password_hash, is_email_verified, is_bgv_agency,
	       is_active, last_login_at, created_at
	FROM verifiers
`

func (s *PostgresStore) Create(ctx context.Context, v *models.Verifier) error {
	query := `
		INSERT INTO verifiers (id, company_name, email, password_hash, is_email_verified,
		                       is_bgv_agency, is_active, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID), v.CompanyName, v.Email, v.PasswordHash, v.IsEmailVerified,
		v.IsBGVAgency, v.IsActive, v.LastLoginAt, v.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, uniqueEmailConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert verifier: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.VerifierID) (*models.Verifier, error) {
	return s.findOne(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Verifier, error) {
	return s.findOne(ctx, selectColumns+` WHERE email = $1`, email)
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id domain.VerifierID, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE verifiers SET last_login_at = $2 WHERE id = $1`, uuid.UUID(id), at)
	if err != nil {
		return fmt.Errorf("update verifier last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verifier last login: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verifiers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count verifiers: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Verifier, error) {
	var (
		v       models.Verifier
		id      uuid.UUID
		lastLog sql.NullTime
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query, arg).Scan(
		&id, &v.CompanyName, &v.Email, &v.PasswordHash, &v.IsEmailVerified, &v.IsBGVAgency,
		&v.IsActive, &lastLog, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verifier: %w", err)
	}
	v.ID = domain.VerifierID(id)
	if lastLog.Valid {
		t := lastLog.Time
		v.LastLoginAt = &t
	}
	return &v, nil
}
