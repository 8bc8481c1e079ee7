package models

import (
	"time"

	"empverify/internal/documents"
	"empverify/internal/verification/comparator"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
)

// Status is the lifecycle state of an appeal. Approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseStatus accepts any lifecycle state, for list filters.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of: pending, approved, rejected")
}

// ParseDecision accepts only the terminal states an admin may choose.
func ParseDecision(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be either approved or rejected")
}

// MismatchedField is a snapshot of one failed comparison taken when the appeal is filed.
type MismatchedField struct {
	FieldName     string `json:"fieldName"`
	Label         string `json:"label"`
	VerifierValue string `json:"verifierValue"`
	CompanyValue  string `json:"companyValue"`
}

// Appeal is a verifier's dispute of a verification outcome.
type Appeal struct {
	ID                 domain.AppealID
	VerificationID     domain.VerificationID
	VerifierID         domain.VerifierID
	EmployeeID         domain.EmployeeID
	Comments           string
	SupportingDocument *documents.Stored
	MismatchedFields   []MismatchedField
	Status             Status
	HRResponse         string
	ReviewedBy         *domain.AdminID
	ReviewedAt         *time.Time
	CreatedAt          time.Time
}

// NewAppeal builds a pending appeal and snapshots the mismatched results.
func NewAppeal(
	id domain.AppealID,
	verificationID domain.VerificationID,
	verifierID domain.VerifierID,
	employeeID domain.EmployeeID,
	comments string,
	mismatched []comparator.Result,
	doc *documents.Stored,
	now time.Time,
) *Appeal {
	fields := make([]MismatchedField, 0, len(mismatched))
	for _, r := range mismatched {
		fields = append(fields, MismatchedField{
			FieldName:     r.Field,
			Label:         r.Label,
			VerifierValue: r.VerifierValue,
			CompanyValue:  r.CompanyValue,
		})
	}
	return &Appeal{
		ID:                 id,
		VerificationID:     verificationID,
		VerifierID:         verifierID,
		EmployeeID:         employeeID,
		Comments:           comments,
		SupportingDocument: doc,
		MismatchedFields:   fields,
		Status:             StatusPending,
		CreatedAt:          now,
	}
}

// CanResolve reports whether the appeal still awaits a decision.
func (a *Appeal) CanResolve() bool {
	return a.Status == StatusPending
}

// ApplyResolution moves a pending appeal to decision, stamping reviewer and time together.
func (a *Appeal) ApplyResolution(decision Status, hrResponse string, reviewer domain.AdminID, now time.Time) error {
	if !decision.IsTerminal() {
		return dErrors.New(dErrors.CodeValidation, "status must be either approved or rejected")
	}
	if !a.CanResolve() {
		return dErrors.New(dErrors.CodeConflict, "This appeal has already been reviewed")
	}
	a.Status = decision
	a.HRResponse = hrResponse
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &now
	return nil
}

// Resolution is the data written by a conditional resolve.
type Resolution struct {
	Status     Status
	HRResponse string
	ReviewedBy domain.AdminID
	ReviewedAt time.Time
}

// ListFilter selects appeals for the admin listing. Zero values disable a filter.
type ListFilter struct {
	Status     Status
	EmployeeID domain.EmployeeID
	Page       int
	Limit      int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps paging to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Offset is the number of rows skipped for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Summary is an appeal in a listing with the filing verifier, when known.
type Summary struct {
	Appeal   *Appeal
	Verifier *VerifierInfo
}

// Page is one page of appeals plus paging metadata.
type Page struct {
	Items []*Summary
	Total int
	Page  int
	Limit int
	Pages int
}

// NewPage computes the page count for total rows.
func NewPage(items []*Summary, total int, f ListFilter) *Page {
	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return &Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit, Pages: pages}
}

// VerifierInfo identifies the verifier who filed an appeal.
type VerifierInfo struct {
	ID          domain.VerifierID
	CompanyName string
	Email       string
}

// Detail is an appeal with its related records for admin review. Related
// records that no longer resolve are nil.
type Detail struct {
	Appeal       *Appeal
	EmployeeName string
	Verifier     *VerifierInfo
	Verification *VerificationInfo
}

// VerificationInfo is the part of the verification an admin needs to adjudicate.
type VerificationInfo struct {
	ID                domain.VerificationID
	ComparisonResults []comparator.Result
	OverallStatus     string
	MatchScore        int
}
