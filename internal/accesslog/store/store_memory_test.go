package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/internal/accesslog/models"
)

func seed(t *testing.T, s *InMemoryStore, base time.Time) {
	t.Helper()
	rows := []struct {
		email  string
		role   string
		status models.Status
	}{
		{"a@acme.example", "verifier", models.StatusSuccess},
		{"b@acme.example", "verifier", models.StatusFailure},
		{"admin", "super_admin", models.StatusSuccess},
		{"c@acme.example", "verifier", models.StatusFailure},
	}
	for i, r := range rows {
		require.NoError(t, s.Append(context.Background(), &models.Event{
			ID:        uuid.New(),
			Email:     r.email,
			Role:      r.role,
			Action:    models.ActionLoginOTP,
			Status:    r.status,
			Metadata:  map[string]any{"browser": "Chrome"},
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestInMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("newest first with total", func(t *testing.T) {
		s := NewInMemory()
		seed(t, s, base)

		logs, total, err := s.List(ctx, models.Filter{}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, logs, 4)
		assert.Equal(t, "c@acme.example", logs[0].Email)
		assert.Equal(t, "a@acme.example", logs[3].Email)
	})

	t.Run("status and role filters", func(t *testing.T) {
		s := NewInMemory()
		seed(t, s, base)

		logs, total, err := s.List(ctx, models.Filter{Status: "FAILURE", Role: "verifier"}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, "c@acme.example", logs[0].Email)

		_, total, err = s.List(ctx, models.Filter{Status: models.FilterAll, Role: "super_admin"}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("paging past the end", func(t *testing.T) {
		s := NewInMemory()
		seed(t, s, base)

		logs, total, err := s.List(ctx, models.Filter{Page: 2, Limit: 3}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, logs, 1)
		assert.Equal(t, "a@acme.example", logs[0].Email)

		logs, _, err = s.List(ctx, models.Filter{Page: 9, Limit: 3}.Normalize())
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("returned events are copies", func(t *testing.T) {
		s := NewInMemory()
		seed(t, s, base)

		logs, _, err := s.List(ctx, models.Filter{}.Normalize())
		require.NoError(t, err)
		logs[0].Metadata["browser"] = "tampered"

		again, _, err := s.List(ctx, models.Filter{}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, "Chrome", again[0].Metadata["browser"])
	})
}
