package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "empverify/internal/auth/models"
	"empverify/internal/auth/store/verifier"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

func TestVerifierDirectory(t *testing.T) {
	ctx := context.Background()
	store := verifier.NewInMemory()
	v := &auth.Verifier{
		ID:          domain.NewVerifierID(),
		CompanyName: "ACME",
		Email:       "hr@acme.example",
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.Create(ctx, v))
	dir := NewVerifierDirectory(store)

	info, err := dir.FindVerifier(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, info.ID)
	assert.Equal(t, "ACME", info.CompanyName)
	assert.Equal(t, "hr@acme.example", info.Email)

	_, err = dir.FindVerifier(ctx, domain.NewVerifierID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
