package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	notify "empverify/internal/notify/models"
)

// PostgresStore persists email logs in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, log *notify.EmailLog) error {
	query := `
		INSERT INTO email_logs (id, provider, email_type, recipient, subject, status,
		                        response_time_ms, message_id, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		log.ID, log.Provider, string(log.EmailType), log.Recipient, log.Subject, log.Status,
		log.ResponseTimeMs, log.MessageID, log.Error, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context, since time.Time) ([]notify.ProviderStats, error) {
	query := `
		SELECT provider,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'sent'),
		       COUNT(*) FILTER (WHERE status <> 'sent'),
		       COALESCE(AVG(response_time_ms), 0)::float8,
		       COALESCE(MIN(response_time_ms), 0),
		       COALESCE(MAX(response_time_ms), 0)
		FROM email_logs
		WHERE created_at >= $1
		GROUP BY provider
		ORDER BY provider
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query email stats: %w", err)
	}
	defer rows.Close()

	var out []notify.ProviderStats
	for rows.Next() {
		var st notify.ProviderStats
		if err := rows.Scan(&st.Provider, &st.Total, &st.Success, &st.Failed,
			&st.AvgResponseTimeMs, &st.MinResponseTimeMs, &st.MaxResponseTimeMs); err != nil {
			return nil, fmt.Errorf("scan email stats: %w", err)
		}
		st.SuccessRate = successRate(st.Success, st.Total)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email stats: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*notify.EmailLog, error) {
	query := `
		SELECT id, provider, email_type, recipient, subject, status,
		       response_time_ms, message_id, error, created_at
		FROM email_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query email logs: %w", err)
	}
	defer rows.Close()

	out := make([]*notify.EmailLog, 0, limit)
	for rows.Next() {
		var l notify.EmailLog
		var kind string
		if err := rows.Scan(&l.ID, &l.Provider, &kind, &l.Recipient, &l.Subject, &l.Status,
			&l.ResponseTimeMs, &l.MessageID, &l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		l.EmailType = notify.Kind(kind)
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email logs: %w", err)
	}
	return out, nil
}
