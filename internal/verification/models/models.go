package models

import (
	"math"
	"time"

	employee "empverify/internal/employee/models"
	"empverify/internal/verification/comparator"
	"empverify/pkg/domain"
)

// Status is the aggregate verdict of a verification.
type Status string

const (
	StatusMatched      Status = "matched"
	StatusPartialMatch Status = "partial_match"
	StatusMismatch     Status = "mismatch"
)

func (s Status) String() string { return string(s) }

// Field keys. Order in Fields is the order of ComparisonResults.
const (
	FieldName          = "name"
	FieldEntityName    = "entityName"
	FieldDesignation   = "designation"
	FieldDateOfJoining = "dateOfJoining"
	FieldDateOfLeaving = "dateOfLeaving"
	FieldExitReason    = "exitReason"
)

// Fields is the static comparison set for employment records.
var Fields = []comparator.Field{
	{Key: FieldName, Label: "Employee Name", Kind: comparator.KindName},
	{Key: FieldEntityName, Label: "Entity Name", Kind: comparator.KindEnum},
	{Key: FieldDesignation, Label: "Designation", Kind: comparator.KindEnum},
	{Key: FieldDateOfJoining, Label: "Date of Joining", Kind: comparator.KindDate},
	{Key: FieldDateOfLeaving, Label: "Date of Leaving", Kind: comparator.KindDate},
	{Key: FieldExitReason, Label: "Exit Reason", Kind: comparator.KindEnum},
}

// Claim is the employment record as asserted by the verifier.
type Claim struct {
	EmployeeName  string    `json:"employeeName"`
	EntityName    string    `json:"entityName"`
	Designation   string    `json:"designation"`
	DateOfJoining time.Time `json:"dateOfJoining"`
	DateOfLeaving time.Time `json:"dateOfLeaving"`
	ExitReason    string    `json:"exitReason"`
	ConsentGiven  bool      `json:"consentGiven"`
}

// VerificationRecord is the persisted outcome of one submission.
//
// Invariants:
//   - ComparisonResults has one entry per configured field, fixed at creation
//   - MatchScore is round(100 * matches / fields)
//   - Only CompletedAt and ReportURL change after creation
type VerificationRecord struct {
	ID                domain.VerificationID `json:"verificationId"`
	VerifierID        domain.VerifierID     `json:"verifierId"`
	EmployeeID        domain.EmployeeID     `json:"employeeId"`
	SubmittedData     Claim                 `json:"submittedData"`
	ComparisonResults []comparator.Result   `json:"comparisonResults"`
	OverallStatus     Status                `json:"overallStatus"`
	MatchScore        int                   `json:"matchScore"`
	ConsentGiven      bool                  `json:"consentGiven"`
	ReportURL         string                `json:"reportUrl,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	CompletedAt       *time.Time            `json:"completedAt,omitempty"`
}

// MismatchedResults returns the non-matching comparison results.
func (v *VerificationRecord) MismatchedResults() []comparator.Result {
	out := make([]comparator.Result, 0, len(v.ComparisonResults))
	for _, r := range v.ComparisonResults {
		if !r.IsMatch {
			out = append(out, r)
		}
	}
	return out
}

// IsOwnedBy reports whether the record was submitted by verifierID.
func (v *VerificationRecord) IsOwnedBy(verifierID domain.VerifierID) bool {
	return v.VerifierID == verifierID
}

// Compare runs every configured field of claim against emp.
func Compare(fields []comparator.Field, claim Claim, emp *employee.Employee) []comparator.Result {
	results := make([]comparator.Result, 0, len(fields))
	for _, f := range fields {
		var res comparator.Result
		switch f.Key {
		case FieldName:
			res = comparator.Compare(f, claim.EmployeeName, emp.Name)
		case FieldEntityName:
			res = comparator.Compare(f, claim.EntityName, emp.EntityName)
		case FieldDesignation:
			res = comparator.Compare(f, claim.Designation, emp.Designation)
		case FieldDateOfJoining:
			res = comparator.CompareDate(f, claim.DateOfJoining, emp.DateOfJoining)
		case FieldDateOfLeaving:
			res = comparator.CompareDate(f, claim.DateOfLeaving, emp.DateOfLeaving)
		case FieldExitReason:
			res = comparator.Compare(f, claim.ExitReason, emp.ExitReason)
		default:
			res = comparator.Result{Field: f.Key, Label: f.Label}
		}
		results = append(results, res)
	}
	return results
}

// Aggregate derives the overall status and score. identityFailed forces a
// mismatch regardless of the other fields.
func Aggregate(results []comparator.Result, identityFailed bool) (Status, int) {
	total := len(results)
	if total == 0 {
		return StatusMismatch, 0
	}
	matches := 0
	for _, r := range results {
		if r.IsMatch {
			matches++
		}
	}
	score := int(math.Round(100 * float64(matches) / float64(total)))

	switch {
	case identityFailed || matches == 0:
		return StatusMismatch, score
	case matches == total:
		return StatusMatched, score
	default:
		return StatusPartialMatch, score
	}
}

// NewVerificationRecord assembles a record from an already computed comparison.
func NewVerificationRecord(
	verificationID domain.VerificationID,
	verifierID domain.VerifierID,
	employeeID domain.EmployeeID,
	claim Claim,
	results []comparator.Result,
	identityFailed bool,
	now time.Time,
) *VerificationRecord {
	status, score := Aggregate(results, identityFailed)
	return &VerificationRecord{
		ID:                verificationID,
		VerifierID:        verifierID,
		EmployeeID:        employeeID,
		SubmittedData:     claim,
		ComparisonResults: results,
		OverallStatus:     status,
		MatchScore:        score,
		ConsentGiven:      claim.ConsentGiven,
		CreatedAt:         now,
		CompletedAt:       &now,
	}
}

// StatusCounts summarises records by overall status.
type StatusCounts struct {
	Matched      int `json:"matched"`
	PartialMatch int `json:"partialMatch"`
	Mismatch     int `json:"mismatch"`
}
