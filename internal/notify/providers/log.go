package providers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	notify "empverify/internal/notify/models"
)

// Log writes emails to the logger instead of sending them. Used in development.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (p *Log) Name() string { return NameLog }

func (p *Log) Send(ctx context.Context, email notify.Email) (string, error) {
	id := "log-" + uuid.NewString()
	p.logger.InfoContext(ctx, "email not sent (log provider)",
		"message_id", id,
		"to", strings.Join(email.To, ","),
		"subject", email.Subject,
		"text", email.Text,
	)
	return id, nil
}
