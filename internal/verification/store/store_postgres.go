package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"empverify/internal/platform/postgres"
	"empverify/internal/verification/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/platform/tx"
)

// PostgresStore persists verification records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT id, verifier_id, employee_id, submitted_data, comparison_results,
	       overall_status, match_score, consent_given, report_url, created_at, completed_at
	FROM verifications
`

// Create inserts the record in one statement so a partially written record is never visible.
func (s *PostgresStore) Create(ctx context.Context, rec *models.VerificationRecord) error {
	submitted, err := json.Marshal(rec.SubmittedData)
	if err != nil {
		return fmt.Errorf("marshal submitted data: %w", err)
	}
	results, err := json.Marshal(rec.ComparisonResults)
	if err != nil {
		return fmt.Errorf("marshal comparison results: %w", err)
	}
	query := `
		INSERT INTO verifications (id, verifier_id, employee_id, submitted_data, comparison_results,
		                           overall_status, match_score, consent_given, report_url, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(rec.ID), uuid.UUID(rec.VerifierID), rec.EmployeeID.String(), submitted, results,
		string(rec.OverallStatus), rec.MatchScore, rec.ConsentGiven, rec.ReportURL, rec.CreatedAt, rec.CompletedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.VerificationID) (*models.VerificationRecord, error) {
	rec, err := scanRecord(tx.Exec(ctx, s.db).QueryRowContext(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByVerifier(ctx context.Context, verifierID domain.VerifierID) ([]*models.VerificationRecord, error) {
	return s.list(ctx, selectColumns+` WHERE verifier_id = $1 ORDER BY created_at DESC`, uuid.UUID(verifierID))
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.VerificationRecord, error) {
	return s.list(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.VerificationRecord, error) {
	return s.list(ctx, selectColumns+` ORDER BY created_at DESC`)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verifications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count verifications: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE overall_status = 'matched'),
			COUNT(*) FILTER (WHERE overall_status = 'partial_match'),
			COUNT(*) FILTER (WHERE overall_status = 'mismatch')
		FROM verifications
	`
	var counts models.StatusCounts
	if err := s.db.QueryRowContext(ctx, query).Scan(&counts.Matched, &counts.PartialMatch, &counts.Mismatch); err != nil {
		return models.StatusCounts{}, fmt.Errorf("count verifications by status: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) AttachReport(ctx context.Context, id domain.VerificationID, reportURL string, completedAt time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE verifications SET report_url = $2, completed_at = $3 WHERE id = $1`,
		uuid.UUID(id), reportURL, completedAt,
	)
	if err != nil {
		return fmt.Errorf("attach report: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach report rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.VerificationRecord, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.VerificationRecord, error) {
	var (
		rec         models.VerificationRecord
		id          uuid.UUID
		verifierID  uuid.UUID
		employeeID  string
		submitted   []byte
		results     []byte
		status      string
		completedAt sql.NullTime
	)
	if err := row.Scan(&id, &verifierID, &employeeID, &submitted, &results, &status,
		&rec.MatchScore, &rec.ConsentGiven, &rec.ReportURL, &rec.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(submitted, &rec.SubmittedData); err != nil {
		return nil, fmt.Errorf("unmarshal submitted data: %w", err)
	}
	if err := json.Unmarshal(results, &rec.ComparisonResults); err != nil {
		return nil, fmt.Errorf("unmarshal comparison results: %w", err)
	}
	rec.ID = domain.VerificationID(id)
	rec.VerifierID = domain.VerifierID(verifierID)
	rec.EmployeeID = domain.EmployeeID(employeeID)
	rec.OverallStatus = models.Status(status)
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}
