package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"empverify/internal/auth/models"
	"empverify/internal/platform/postgres"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/platform/tx"
)

const uniqueUsernameConstraint = "admins_username_key"

// PostgresStore persists admins in PostgreSQL. Permissions live in a TEXT[] column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT id, username, email, password_hash, full_name, department, role, permissions,
	       is_active, last_login_at, created_at
	FROM admins
`

func (s *PostgresStore) Create(ctx context.Context, a *models.Admin) error {
	perms := make([]string, len(a.Permissions))
	for i, p := range a.Permissions {
		perms[i] = string(p)
	}
	query := `
		INSERT INTO admins (id, username, email, password_hash, full_name, department, role,
		                    permissions, is_active, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Username, a.Email, a.PasswordHash, a.FullName, a.Department,
		a.Role.String(), pq.Array(perms), a.IsActive, a.LastLoginAt, a.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, uniqueUsernameConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AdminID) (*models.Admin, error) {
	return s.findOne(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return s.findOne(ctx, selectColumns+` WHERE username = $1`, username)
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id domain.AdminID, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE admins SET last_login_at = $2 WHERE id = $1`, uuid.UUID(id), at)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Admin, error) {
	var (
		a       models.Admin
		id      uuid.UUID
		role    string
		perms   []string
		lastLog sql.NullTime
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query, arg).Scan(
		&id, &a.Username, &a.Email, &a.PasswordHash, &a.FullName, &a.Department, &role,
		pq.Array(&perms), &a.IsActive, &lastLog, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	a.ID = domain.AdminID(id)
	if a.Role, err = domain.ParseRole(role); err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	a.Permissions = make([]domain.Permission, len(perms))
	for i, p := range perms {
		a.Permissions[i] = domain.Permission(p)
	}
	if lastLog.Valid {
		t := lastLog.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}
