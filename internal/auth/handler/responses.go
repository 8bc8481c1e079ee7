package handler

import (
	"time"

	"empverify/internal/auth/models"
)

// OTPSentResponse is returned from POST /auth/send-otp.
type OTPSentResponse struct {
	Email         string `json:"email"`
	ExpiryMinutes int    `json:"expiryMinutes"`
}

type VerifierResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	CompanyName     string     `json:"companyName"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsBGVAgency     bool       `json:"isBgvAgency"`
	LastLoginAt     *time.Time `json:"lastLoginAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// VerifierSessionResponse is returned from the verifier login and register endpoints.
type VerifierSessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	IsNewUser bool             `json:"isNewUser"`
	Verifier  VerifierResponse `json:"verifier"`
}

type AdminResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Role        string     `json:"role"`
	Department  string     `json:"department"`
	Permissions []string   `json:"permissions"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AdminSessionResponse is returned from POST /admin/login.
type AdminSessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     AdminResponse `json:"admin"`
}

func toVerifierSession(s *models.Session) VerifierSessionResponse {
	v := s.Verifier
	return VerifierSessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		IsNewUser: s.IsNewUser,
		Verifier: VerifierResponse{
			ID:              v.ID.String(),
			Email:           v.Email,
			CompanyName:     v.CompanyName,
			IsEmailVerified: v.IsEmailVerified,
			IsBGVAgency:     v.IsBGVAgency,
			LastLoginAt:     v.LastLoginAt,
			CreatedAt:       v.CreatedAt,
		},
	}
}

func toAdminSession(s *models.Session) AdminSessionResponse {
	a := s.Admin
	perms := make([]string, len(a.Permissions))
	for i, p := range a.Permissions {
		perms[i] = string(p)
	}
	return AdminSessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Admin: AdminResponse{
			ID:          a.ID.String(),
			Username:    a.Username,
			Email:       a.Email,
			FullName:    a.FullName,
			Role:        a.Role.String(),
			Department:  a.Department,
			Permissions: perms,
			LastLoginAt: a.LastLoginAt,
			CreatedAt:   a.CreatedAt,
		},
	}
}
