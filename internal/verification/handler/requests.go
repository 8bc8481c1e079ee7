package handler

import (
	"strings"
	"time"

	"empverify/internal/verification/comparator"
	"empverify/internal/verification/models"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/validation"
)

// ValidateEmployeeRequest is the body of POST /verify/validate-employee.
type ValidateEmployeeRequest struct {
	EmployeeID string `json:"employeeId" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=200"`
	EntityName string `json:"entityName" validate:"max=64"`
}

func (r *ValidateEmployeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	r.Name = strings.TrimSpace(r.Name)
	r.EntityName = strings.TrimSpace(r.EntityName)
	return validation.Struct(r, "Employee ID and Name are required")
}

// SubmitRequest is the body of POST /verify/submit.
type SubmitRequest struct {
	EmployeeID    string `json:"employeeId" validate:"required,max=32"`
	Name          string `json:"name" validate:"required,max=200"`
	EntityName    string `json:"entityName" validate:"required,max=64"`
	Designation   string `json:"designation" validate:"required,max=100"`
	DateOfJoining string `json:"dateOfJoining" validate:"required"`
	DateOfLeaving string `json:"dateOfLeaving" validate:"required"`
	ExitReason    string `json:"exitReason" validate:"required,max=100"`
	ConsentGiven  bool   `json:"consentGiven"`

	// Parsed values (populated by Validate)
	parsedJoining time.Time
	parsedLeaving time.Time
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, f := range []*string{&r.EmployeeID, &r.Name, &r.EntityName, &r.Designation,
		&r.DateOfJoining, &r.DateOfLeaving, &r.ExitReason} {
		*f = strings.TrimSpace(*f)
	}
	if err := validation.Struct(r, "All fields are required"); err != nil {
		return err
	}

	joining, err := comparator.ParseDate(r.DateOfJoining)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "dateOfJoining must be a date in YYYY-MM-DD format")
	}
	leaving, err := comparator.ParseDate(r.DateOfLeaving)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "dateOfLeaving must be a date in YYYY-MM-DD format")
	}
	r.parsedJoining = joining
	r.parsedLeaving = leaving
	return nil
}

// Claim returns the validated claim.
func (r *SubmitRequest) Claim() models.Claim {
	return models.Claim{
		EmployeeName:  r.Name,
		EntityName:    r.EntityName,
		Designation:   r.Designation,
		DateOfJoining: r.parsedJoining,
		DateOfLeaving: r.parsedLeaving,
		ExitReason:    r.ExitReason,
		ConsentGiven:  r.ConsentGiven,
	}
}
