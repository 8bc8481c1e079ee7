package handler

import (
	"strings"

	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/validation"
)

// SendOTPRequest is the body of POST /auth/send-otp.
type SendOTPRequest struct {
	Email string `json:"email"`
}

func (r *SendOTPRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "Email is required")
	}
	return nil
}

// VerifyOTPRequest is the body of POST /auth/verify-otp. CompanyName is only
// used when the login creates the account.
type VerifyOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp" validate:"len=6,numeric"`
	CompanyName string `json:"companyName" validate:"max=200"`
}

func (r *VerifyOTPRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	if r.Email == "" || r.OTP == "" {
		return dErrors.New(dErrors.CodeValidation, "Email and OTP are required")
	}
	return validation.Struct(r, "")
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	IsBGVAgency bool   `json:"isBgvAgency"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.Email = strings.TrimSpace(r.Email)
	return validation.Struct(r, "")
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	return validation.Struct(r, "Email and password are required")
}

// AdminLoginRequest is the body of POST /admin/login.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *AdminLoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Username = strings.TrimSpace(r.Username)
	return validation.Struct(r, "Username and password are required")
}
