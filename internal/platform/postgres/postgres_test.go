package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "appeals_verification_id_key"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert appeal: %w", dup)))
	assert.True(t, IsUniqueViolation(dup, "appeals_verification_id_key"))
	assert.False(t, IsUniqueViolation(dup, "verifiers_email_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestSchemaDeclaresAppealUniqueness(t *testing.T) {
	assert.Contains(t, Schema(), "appeals_verification_id_key")
	assert.Contains(t, Schema(), "PRIMARY KEY (verifier_id, employee_id)")
}
