package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "empverify/pkg/domain-errors"
)

// Typed identifiers. Invariant: constructed via the Parse functions at trust
// boundaries so a nil or malformed UUID never reaches a service.
type (
	VerifierID     uuid.UUID
	AdminID        uuid.UUID
	VerificationID uuid.UUID
	AppealID       uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseVerifierID(s string) (VerifierID, error) {
	u, err := parseUUID("verifier id", s)
	return VerifierID(u), err
}

func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID("admin id", s)
	return AdminID(u), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID("verification id", s)
	return VerificationID(u), err
}

func ParseAppealID(s string) (AppealID, error) {
	u, err := parseUUID("appeal id", s)
	return AppealID(u), err
}

func NewVerifierID() VerifierID         { return VerifierID(uuid.New()) }
func NewAdminID() AdminID               { return AdminID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewAppealID() AppealID             { return AppealID(uuid.New()) }

func (id VerifierID) String() string     { return uuid.UUID(id).String() }
func (id AdminID) String() string        { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id AppealID) String() string       { return uuid.UUID(id).String() }

func (id VerifierID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AppealID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func (id VerifierID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id AdminID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id VerificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AppealID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }

func (id *VerifierID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AdminID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *VerificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AppealID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }

// EmployeeID is the HR employee number. Invariant: upper-cased and trimmed.
type EmployeeID string

const maxEmployeeIDLength = 32

// ParseEmployeeID normalizes and validates an employee number from external input.
func ParseEmployeeID(s string) (EmployeeID, error) {
	normalized := NormalizeEmployeeID(s)
	if normalized == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "employee id cannot be empty")
	}
	if len(normalized) > maxEmployeeIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "employee id is too long")
	}
	for _, r := range normalized {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid employee id")
		}
	}
	return EmployeeID(normalized), nil
}

// NormalizeEmployeeID applies the upper-case and trim rule without validating.
func NormalizeEmployeeID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (id EmployeeID) String() string { return string(id) }
