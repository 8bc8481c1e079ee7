package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"empverify/internal/appeal/models"
	"empverify/internal/documents"
	"empverify/internal/platform/postgres"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/platform/tx"
)

const uniqueVerificationConstraint = "appeals_verification_id_key"

// PostgresStore persists appeals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT id, verification_id, verifier_id, employee_id, comments, supporting_document,
	       mismatched_fields, status, hr_response, reviewed_by, reviewed_at, created_at
	FROM appeals
`

// Create relies on the unique constraint on verification_id, so concurrent
// creates for one verification yield exactly one row.
func (s *PostgresStore) Create(ctx context.Context, a *models.Appeal) error {
	fields, err := json.Marshal(a.MismatchedFields)
	if err != nil {
		return fmt.Errorf("marshal mismatched fields: %w", err)
	}
	var doc []byte
	if a.SupportingDocument != nil {
		if doc, err = json.Marshal(a.SupportingDocument); err != nil {
			return fmt.Errorf("marshal supporting document: %w", err)
		}
	}
	query := `
		INSERT INTO appeals (id, verification_id, verifier_id, employee_id, comments,
		                     supporting_document, mismatched_fields, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID), uuid.UUID(a.VerificationID), uuid.UUID(a.VerifierID), a.EmployeeID.String(),
		a.Comments, doc, fields, a.Status.String(), a.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, uniqueVerificationConstraint) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert appeal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AppealID) (*models.Appeal, error) {
	return s.findOne(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByVerificationID(ctx context.Context, id domain.VerificationID) (*models.Appeal, error) {
	return s.findOne(ctx, selectColumns+` WHERE verification_id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Appeal, int, error) {
	where := ` WHERE ($1 = '' OR status = $1) AND ($2 = '' OR employee_id = $2)`
	args := []any{filter.Status.String(), filter.EmployeeID.String()}

	var total int
	if err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM appeals`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appeals: %w", err)
	}
	appeals, err := s.list(ctx, selectColumns+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return appeals, total, nil
}

func (s *PostgresStore) ListByVerifier(ctx context.Context, verifierID domain.VerifierID) ([]*models.Appeal, error) {
	return s.list(ctx, selectColumns+` WHERE verifier_id = $1 ORDER BY created_at DESC`, uuid.UUID(verifierID))
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.Appeal, error) {
	return s.list(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
}

// Resolve runs the conditional update and, when no pending row matched, the
// lookup that tells a missing appeal from a decided one in one transaction.
// A transaction already in ctx is joined.
func (s *PostgresStore) Resolve(ctx context.Context, id domain.AppealID, res models.Resolution) (*models.Appeal, error) {
	query := `
		UPDATE appeals
		SET status = $2, hr_response = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING id, verification_id, verifier_id, employee_id, comments, supporting_document,
		          mismatched_fields, status, hr_response, reviewed_by, reviewed_at, created_at
	`
	var resolved *models.Appeal
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		a, err := scanAppeal(tx.Exec(ctx, s.db).QueryRowContext(ctx, query,
			uuid.UUID(id), res.Status.String(), res.HRResponse, uuid.UUID(res.ReviewedBy), res.ReviewedAt,
		))
		if err == nil {
			resolved = a
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resolve appeal: %w", err)
		}
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return sentinel.ErrInvalidState
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appeals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appeals: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appeals WHERE status = $1`, status.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appeals by status: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Appeal, error) {
	a, err := scanAppeal(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find appeal: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Appeal, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	defer rows.Close()

	var out []*models.Appeal
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeals: %w", err)
	}
	return out, nil
}

type appealRow interface {
	Scan(dest ...any) error
}

func scanAppeal(row appealRow) (*models.Appeal, error) {
	var (
		a              models.Appeal
		id             uuid.UUID
		verificationID uuid.UUID
		verifierID     uuid.UUID
		employeeID     string
		doc            []byte
		fields         []byte
		status         string
		reviewedBy     uuid.NullUUID
		reviewedAt     sql.NullTime
	)
	if err := row.Scan(&id, &verificationID, &verifierID, &employeeID, &a.Comments, &doc,
		&fields, &status, &a.HRResponse, &reviewedBy, &reviewedAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(doc) > 0 {
		var stored documents.Stored
		if err := json.Unmarshal(doc, &stored); err != nil {
			return nil, fmt.Errorf("unmarshal supporting document: %w", err)
		}
		a.SupportingDocument = &stored
	}
	if err := json.Unmarshal(fields, &a.MismatchedFields); err != nil {
		return nil, fmt.Errorf("unmarshal mismatched fields: %w", err)
	}
	a.ID = domain.AppealID(id)
	a.VerificationID = domain.VerificationID(verificationID)
	a.VerifierID = domain.VerifierID(verifierID)
	a.EmployeeID = domain.EmployeeID(employeeID)
	a.Status = models.Status(status)
	if reviewedBy.Valid {
		admin := domain.AdminID(reviewedBy.UUID)
		a.ReviewedBy = &admin
	}
	if reviewedAt.Valid {
		a.ReviewedAt = &reviewedAt.Time
	}
	return &a, nil
}
