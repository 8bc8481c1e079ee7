package models

import (
	"time"

	"empverify/pkg/domain"
)

// Employee is the authoritative former-employee record verifiers are compared against.
// Records are read-only to the verification workflow.
type Employee struct {
	EmployeeID    domain.EmployeeID `json:"employeeId"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	EntityName    string            `json:"entityName"`
	Designation   string            `json:"designation"`
	Department    string            `json:"department"`
	Product       string            `json:"product"`
	DateOfJoining time.Time         `json:"dateOfJoining"`
	DateOfLeaving time.Time         `json:"dateOfLeaving"`
	ExitReason    string            `json:"exitReason"`
	FnFStatus     string            `json:"fnfStatus"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Company is a legal entity a verifier may claim the employee worked for.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Companies lists the group entities, keyed by the code stored on employee records.
var Companies = []Company{
	{ID: "TVSCSHIB", Name: "TVS Credit Services Limited", DisplayName: "TVS Credit"},
	{ID: "HIB", Name: "Hinduja Leyland Finance", DisplayName: "Hinduja Leyland Finance"},
}
