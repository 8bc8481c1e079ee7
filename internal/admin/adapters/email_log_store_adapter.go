package adapters

import (
	"context"
	"time"

	"empverify/internal/admin/types"
	notify "empverify/internal/notify/models"
)

// NotifyLogStore is the interface that notification log stores implement.
type NotifyLogStore interface {
	Stats(ctx context.Context, since time.Time) ([]notify.ProviderStats, error)
	Recent(ctx context.Context, limit int) ([]*notify.EmailLog, error)
}

// EmailLogStoreAdapter adapts a notification log store to admin's EmailLogStore interface.
type EmailLogStoreAdapter struct {
	store NotifyLogStore
}

// NewEmailLogStoreAdapter creates a new adapter wrapping a notification log store.
func NewEmailLogStoreAdapter(store NotifyLogStore) *EmailLogStoreAdapter {
	return &EmailLogStoreAdapter{store: store}
}

// Stats passes provider aggregates through unchanged.
func (a *EmailLogStoreAdapter) Stats(ctx context.Context, since time.Time) ([]notify.ProviderStats, error) {
	return a.store.Stats(ctx, since)
}

// Recent returns the newest logs with recipients masked.
func (a *EmailLogStoreAdapter) Recent(ctx context.Context, limit int) ([]*types.EmailLogEntry, error) {
	logs, err := a.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	result := make([]*types.EmailLogEntry, 0, len(logs))
	for _, l := range logs {
		result = append(result, mapEmailLog(l))
	}
	return result, nil
}

func mapEmailLog(l *notify.EmailLog) *types.EmailLogEntry {
	return &types.EmailLogEntry{
		ID:             l.ID.String(),
		Provider:       l.Provider,
		EmailType:      string(l.EmailType),
		Recipient:      maskRecipient(l.Recipient),
		Status:         l.Status,
		ResponseTimeMs: l.ResponseTimeMs,
		CreatedAt:      l.CreatedAt,
	}
}

// maskRecipient keeps the first three characters of an address.
func maskRecipient(addr string) string {
	r := []rune(addr)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r) + "****"
}
