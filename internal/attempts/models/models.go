package models

import (
	"time"

	"empverify/pkg/domain"
)

// Key identifies the counter for one verifier probing one employee.
type Key struct {
	VerifierID domain.VerifierID
	EmployeeID domain.EmployeeID
}

// NewKey normalizes the employee id so "6002056 " and "6002056" share a counter.
func NewKey(verifierID domain.VerifierID, employeeID string) Key {
	return Key{
		VerifierID: verifierID,
		EmployeeID: domain.EmployeeID(domain.NormalizeEmployeeID(employeeID)),
	}
}

func (k Key) String() string {
	return k.VerifierID.String() + ":" + k.EmployeeID.String()
}

// Attempt is the persisted failure counter.
//
// Invariants:
//   - IsBlocked implies BlockedAt is set
//   - Once blocked, only Reset unblocks; there is no time-based expiry
type Attempt struct {
	VerifierID    domain.VerifierID `json:"verifierId"`
	EmployeeID    domain.EmployeeID `json:"employeeId"`
	AttemptCount  int               `json:"attemptCount"`
	IsBlocked     bool              `json:"isBlocked"`
	BlockedAt     *time.Time        `json:"blockedAt,omitempty"`
	LastAttemptAt time.Time         `json:"lastAttemptAt"`
}

// FailureResult is the outcome of recording one failed identity validation.
// JustBlocked is true only for the call that crossed the threshold.
type FailureResult struct {
	AttemptCount int  `json:"attemptCount"`
	IsBlocked    bool `json:"isBlocked"`
	JustBlocked  bool `json:"justBlocked"`
}

// ApplyFailure increments the counter and blocks at threshold. Stores that
// cannot express the increment in a single statement call this under a lock.
func (a *Attempt) ApplyFailure(threshold int, now time.Time) FailureResult {
	a.AttemptCount++
	a.LastAttemptAt = now
	justBlocked := false
	if !a.IsBlocked && a.AttemptCount >= threshold {
		a.IsBlocked = true
		a.BlockedAt = &now
		justBlocked = true
	}
	return FailureResult{AttemptCount: a.AttemptCount, IsBlocked: a.IsBlocked, JustBlocked: justBlocked}
}
