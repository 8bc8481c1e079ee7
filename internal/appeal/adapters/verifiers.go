// Package adapters connects the appeal service to other modules' stores.
package adapters

import (
	"context"

	"empverify/internal/appeal/models"
	auth "empverify/internal/auth/models"
	"empverify/pkg/domain"
)

// VerifierStore is the subset of the verifier account store appeals need.
type VerifierStore interface {
	FindByID(ctx context.Context, id domain.VerifierID) (*auth.Verifier, error)
}

// VerifierDirectory exposes verifier contact details to the appeal service.
type VerifierDirectory struct {
	store VerifierStore
}

func NewVerifierDirectory(store VerifierStore) *VerifierDirectory {
	return &VerifierDirectory{store: store}
}

// FindVerifier passes store errors through unchanged, including sentinel.ErrNotFound.
func (d *VerifierDirectory) FindVerifier(ctx context.Context, id domain.VerifierID) (*models.VerifierInfo, error) {
	v, err := d.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.VerifierInfo{
		ID:          v.ID,
		CompanyName: v.CompanyName,
		Email:       v.Email,
	}, nil
}
