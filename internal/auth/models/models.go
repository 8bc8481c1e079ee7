package models

import (
	"strings"
	"time"

	"empverify/pkg/domain"
)

// One-time code policy.
const (
	OTPLength         = 6
	OTPExpiry         = 5 * time.Minute
	MaxOTPAttempts    = 3
	OTPResendCooldown = 60 * time.Second
)

// Verifier is an external company account that runs verifications.
type Verifier struct {
	ID              domain.VerifierID
	CompanyName     string
	Email           string
	PasswordHash    string
	IsEmailVerified bool
	IsBGVAgency     bool
	IsActive        bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
}

// HasPassword reports whether password login is possible for this account.
func (v *Verifier) HasPassword() bool {
	return strings.HasPrefix(v.PasswordHash, "$2")
}

// Principal is the authenticated identity carried by a verifier's token.
func (v *Verifier) Principal() *domain.Principal {
	return &domain.Principal{
		SubjectID:   v.ID.String(),
		Email:       v.Email,
		Role:        domain.RoleVerifier,
		CompanyName: v.CompanyName,
	}
}

// Admin is an internal HR or operations account.
type Admin struct {
	ID           domain.AdminID
	Username     string
	Email        string
	FullName     string
	Department   string
	PasswordHash string
	Role         domain.Role
	Permissions  []domain.Permission
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

func (a *Admin) Principal() *domain.Principal {
	return &domain.Principal{
		SubjectID:   a.ID.String(),
		Email:       a.Email,
		Role:        a.Role,
		Permissions: a.Permissions,
	}
}

// OTP is the single outstanding login code for an email. The code itself is
// never stored.
type OTP struct {
	Email     string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (o *OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

func (o *OTP) IsExhausted() bool {
	return o.Attempts >= MaxOTPAttempts
}

// CooldownRemaining is how long the caller must wait before a new code may be issued.
func (o *OTP) CooldownRemaining(now time.Time) time.Duration {
	if remaining := o.CreatedAt.Add(OTPResendCooldown).Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	IsNewUser bool
	Verifier  *Verifier
	Admin     *Admin
}
