package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/pkg/domain"
)

func TestNewKey_NormalizesEmployeeID(t *testing.T) {
	verifier := domain.NewVerifierID()
	assert.Equal(t, NewKey(verifier, "  ab123 "), NewKey(verifier, "AB123"))
	assert.Equal(t, domain.EmployeeID("AB123"), NewKey(verifier, "ab123").EmployeeID)
}

func TestApplyFailure_BlocksExactlyOnce(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &Attempt{}

	first := a.ApplyFailure(3, now)
	second := a.ApplyFailure(3, now)
	third := a.ApplyFailure(3, now)
	fourth := a.ApplyFailure(3, now.Add(time.Minute))

	assert.Equal(t, FailureResult{AttemptCount: 1}, first)
	assert.Equal(t, FailureResult{AttemptCount: 2}, second)
	assert.Equal(t, FailureResult{AttemptCount: 3, IsBlocked: true, JustBlocked: true}, third)
	assert.Equal(t, FailureResult{AttemptCount: 4, IsBlocked: true}, fourth)
	require.NotNil(t, a.BlockedAt)
	assert.Equal(t, now, *a.BlockedAt)
}
