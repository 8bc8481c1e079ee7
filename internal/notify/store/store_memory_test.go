package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notify "empverify/internal/notify/models"
)

func logAt(provider, status string, ms int64, at time.Time) *notify.EmailLog {
	return &notify.EmailLog{
		ID:             uuid.New(),
		Provider:       provider,
		EmailType:      notify.KindOTP,
		Recipient:      "hr@acme.example",
		Subject:        "Your OTP Code",
		Status:         status,
		ResponseTimeMs: ms,
		CreatedAt:      at,
	}
}

func TestInMemoryStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewInMemory()

	require.NoError(t, s.Save(ctx, logAt("brevo", notify.StatusSent, 100, now)))
	require.NoError(t, s.Save(ctx, logAt("brevo", notify.StatusSent, 300, now)))
	require.NoError(t, s.Save(ctx, logAt("brevo", notify.StatusFailed, 200, now)))
	require.NoError(t, s.Save(ctx, logAt("sendgrid", notify.StatusSent, 50, now)))
	require.NoError(t, s.Save(ctx, logAt("sendgrid", notify.StatusFailed, 999, now.AddDate(0, 0, -10))))

	stats, err := s.Stats(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, notify.ProviderStats{
		Provider:          "brevo",
		Total:             3,
		Success:           2,
		Failed:            1,
		AvgResponseTimeMs: 200,
		MinResponseTimeMs: 100,
		MaxResponseTimeMs: 300,
		SuccessRate:       66.67,
	}, stats[0])
	assert.Equal(t, 1, stats[1].Total)
	assert.Equal(t, float64(100), stats[1].SuccessRate)
}

func TestInMemoryRecent(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewInMemory()
	for i := range 5 {
		require.NoError(t, s.Save(ctx, logAt("log", notify.StatusSent, int64(i), now.Add(time.Duration(i)*time.Second))))
	}

	recent, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(4), recent[0].ResponseTimeMs)
	assert.Equal(t, int64(2), recent[2].ResponseTimeMs)
}
