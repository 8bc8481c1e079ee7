package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"empverify/internal/accesslog/models"
	"empverify/pkg/platform/tx"
)

// PostgresStore persists events in the access_logs table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e *models.Event) error {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	md, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal access log metadata: %w", err)
	}
	query := `
		INSERT INTO access_logs (id, email, role, action, status, failure_reason,
		                         ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		e.ID, e.Email, e.Role, string(e.Action), string(e.Status), e.FailureReason,
		e.IPAddress, e.UserAgent, md, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f models.Filter) ([]*models.Event, int, error) {
	where := ` WHERE ($1 = '' OR status = $1) AND ($2 = '' OR role = $2)`
	args := []any{f.Status, f.Role}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count access logs: %w", err)
	}

	query := `
		SELECT id, email, role, action, status, failure_reason, ip_address, user_agent, metadata, created_at
		FROM access_logs` + where + ` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list access logs: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			e      models.Event
			action string
			status string
			md     []byte
		)
		if err := rows.Scan(&e.ID, &e.Email, &e.Role, &action, &status, &e.FailureReason,
			&e.IPAddress, &e.UserAgent, &md, &e.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan access log: %w", err)
		}
		e.Action = models.Action(action)
		e.Status = models.Status(status)
		if len(md) > 0 {
			if err := json.Unmarshal(md, &e.Metadata); err != nil {
				return nil, 0, fmt.Errorf("unmarshal access log metadata: %w", err)
			}
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate access logs: %w", err)
	}
	return events, total, nil
}
