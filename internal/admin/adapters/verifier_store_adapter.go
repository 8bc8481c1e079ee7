package adapters

import (
	"context"

	"empverify/internal/admin/types"
	authModels "empverify/internal/auth/models"
	"empverify/pkg/domain"
)

// AuthVerifierStore is the interface that auth verifier stores implement.
type AuthVerifierStore interface {
	FindByID(ctx context.Context, id domain.VerifierID) (*authModels.Verifier, error)
	Count(ctx context.Context) (int, error)
}

// VerifierStoreAdapter adapts an auth verifier store to admin's VerifierDirectory interface.
type VerifierStoreAdapter struct {
	store AuthVerifierStore
}

// NewVerifierStoreAdapter creates a new adapter wrapping an auth verifier store.
func NewVerifierStoreAdapter(store AuthVerifierStore) *VerifierStoreAdapter {
	return &VerifierStoreAdapter{store: store}
}

// FindVerifier returns the verifier mapped to admin types.
func (a *VerifierStoreAdapter) FindVerifier(ctx context.Context, id domain.VerifierID) (*types.VerifierSummary, error) {
	v, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapVerifier(v), nil
}

// Count returns the number of registered verifiers.
func (a *VerifierStoreAdapter) Count(ctx context.Context) (int, error) {
	return a.store.Count(ctx)
}

func mapVerifier(v *authModels.Verifier) *types.VerifierSummary {
	return &types.VerifierSummary{
		ID:          v.ID,
		Email:       v.Email,
		CompanyName: v.CompanyName,
		IsActive:    v.IsActive,
		LastLoginAt: v.LastLoginAt,
	}
}
