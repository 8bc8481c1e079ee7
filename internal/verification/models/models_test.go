package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	employee "empverify/internal/employee/models"
	"empverify/pkg/domain"
)

func sathish() *employee.Employee {
	return &employee.Employee{
		EmployeeID:    "6002056",
		Name:          "S Sathish",
		EntityName:    "TVSCSHIB",
		Designation:   "Executive",
		DateOfJoining: time.Date(2021, time.February, 5, 0, 0, 0, 0, time.UTC),
		DateOfLeaving: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		ExitReason:    "Resigned",
	}
}

func matchingClaim() Claim {
	return Claim{
		EmployeeName:  "S. Sathish",
		EntityName:    "TVSCSHIB",
		Designation:   "executive",
		DateOfJoining: time.Date(2021, time.February, 5, 0, 0, 0, 0, time.UTC),
		DateOfLeaving: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		ExitReason:    "Resigned",
	}
}

func TestCompare_ProducesOneResultPerFieldInOrder(t *testing.T) {
	results := Compare(Fields, matchingClaim(), sathish())

	require.Len(t, results, len(Fields))
	for i, f := range Fields {
		assert.Equal(t, f.Key, results[i].Field)
		assert.True(t, results[i].IsMatch, f.Key)
	}
}

func TestAggregate(t *testing.T) {
	t.Run("all match", func(t *testing.T) {
		status, score := Aggregate(Compare(Fields, matchingClaim(), sathish()), false)
		assert.Equal(t, StatusMatched, status)
		assert.Equal(t, 100, score)
	})

	t.Run("four of six", func(t *testing.T) {
		claim := matchingClaim()
		claim.Designation = "Manager"
		claim.ExitReason = "Terminated"

		status, score := Aggregate(Compare(Fields, claim, sathish()), false)
		assert.Equal(t, StatusPartialMatch, status)
		assert.Equal(t, 67, score)
	})

	t.Run("none match", func(t *testing.T) {
		status, score := Aggregate(Compare(Fields, Claim{EmployeeName: "Nobody"}, sathish()), false)
		assert.Equal(t, StatusMismatch, status)
		assert.Equal(t, 0, score)
	})

	t.Run("identity failure forces mismatch", func(t *testing.T) {
		status, score := Aggregate(Compare(Fields, matchingClaim(), sathish()), true)
		assert.Equal(t, StatusMismatch, status)
		assert.Equal(t, 100, score)
	})

	t.Run("empty results", func(t *testing.T) {
		status, score := Aggregate(nil, false)
		assert.Equal(t, StatusMismatch, status)
		assert.Equal(t, 0, score)
	})
}

func TestMismatchedResults(t *testing.T) {
	claim := matchingClaim()
	claim.Designation = "Manager"
	now := time.Now()

	rec := NewVerificationRecord(domain.NewVerificationID(), domain.NewVerifierID(), "6002056",
		claim, Compare(Fields, claim, sathish()), false, now)

	mismatched := rec.MismatchedResults()
	require.Len(t, mismatched, 1)
	assert.Equal(t, FieldDesignation, mismatched[0].Field)
	assert.Equal(t, StatusPartialMatch, rec.OverallStatus)
	assert.Equal(t, 83, rec.MatchScore)
	assert.True(t, rec.IsOwnedBy(rec.VerifierID))
	assert.False(t, rec.IsOwnedBy(domain.NewVerifierID()))
}
