package domain

import (
	"slices"

	dErrors "empverify/pkg/domain-errors"
)

// Role identifies the kind of account behind a credential.
type Role string

const (
	RoleVerifier   Role = "verifier"
	RoleAdmin      Role = "admin"
	RoleHRManager  Role = "hr_manager"
	RoleSuperAdmin Role = "super_admin"
)

var validRoles = map[Role]bool{
	RoleVerifier:   true,
	RoleAdmin:      true,
	RoleHRManager:  true,
	RoleSuperAdmin: true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsAdmin reports whether the role belongs to the admin family.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleHRManager || r == RoleSuperAdmin
}

func (r Role) String() string { return string(r) }

// Permission is a capability granted to admin accounts.
type Permission string

const (
	PermViewAppeals     Permission = "view_appeals"
	PermManageAppeals   Permission = "manage_appeals"
	PermViewEmployees   Permission = "view_employees"
	PermManageEmployees Permission = "manage_employees"
	PermSendEmails      Permission = "send_emails"
	PermViewReports     Permission = "view_reports"
	PermManageAdmins    Permission = "manage_admins"
)

// AllPermissions is granted to super admins.
var AllPermissions = []Permission{
	PermViewAppeals,
	PermManageAppeals,
	PermViewEmployees,
	PermManageEmployees,
	PermSendEmails,
	PermViewReports,
	PermManageAdmins,
}

// Principal is the authenticated caller as established by an authenticator.
type Principal struct {
	SubjectID   string
	Email       string
	Role        Role
	CompanyName string
	Permissions []Permission
}

// HasPermission reports whether the principal carries perm.
func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Permissions, perm)
}

// VerifierID returns the subject as a verifier id, failing for non-verifiers.
func (p *Principal) VerifierID() (VerifierID, error) {
	if p == nil || p.Role != RoleVerifier {
		return VerifierID{}, dErrors.New(dErrors.CodeForbidden, "Verifier access required")
	}
	return ParseVerifierID(p.SubjectID)
}

// AdminID returns the subject as an admin id, failing for non-admins.
func (p *Principal) AdminID() (AdminID, error) {
	if p == nil || !p.Role.IsAdmin() {
		return AdminID{}, dErrors.New(dErrors.CodeForbidden, "Admin access required")
	}
	return ParseAdminID(p.SubjectID)
}
