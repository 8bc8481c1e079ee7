package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"empverify/internal/auth/models"
	"empverify/internal/auth/service"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// Service defines the authentication operations the handler needs.
type Service interface {
	SendOTP(ctx context.Context, email string) (*service.SendOTPResult, error)
	VerifyOTP(ctx context.Context, req service.VerifyOTPRequest) (*models.Session, error)
	RegisterVerifier(ctx context.Context, req service.RegisterRequest) (*models.Session, error)
	LoginVerifier(ctx context.Context, email, password string) (*models.Session, error)
	LoginAdmin(ctx context.Context, username, password string) (*models.Session, error)
}

// Handler serves the public login endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the unauthenticated endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/send-otp", h.HandleSendOTP)
	r.Post("/auth/verify-otp", h.HandleVerifyOTP)
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/admin/login", h.HandleAdminLogin)
}

// HandleSendOTP handles POST /auth/send-otp.
func (h *Handler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SendOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.SendOTP(ctx, req.Email)
	if err != nil {
		h.logger.WarnContext(ctx, "send otp failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK,
		fmt.Sprintf("OTP sent to %s. Valid for %d minutes.", res.Email, res.ExpiryMinutes),
		OTPSentResponse{Email: res.Email, ExpiryMinutes: res.ExpiryMinutes})
}

// HandleVerifyOTP handles POST /auth/verify-otp.
func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	session, err := h.service.VerifyOTP(ctx, service.VerifyOTPRequest{
		Email:       req.Email,
		Code:        req.OTP,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "otp verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login successful", toVerifierSession(session))
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	session, err := h.service.RegisterVerifier(ctx, service.RegisterRequest{
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    req.Password,
		IsBGVAgency: req.IsBGVAgency,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "verifier registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "verifier registered",
		"request_id", requestID,
		"verifier_id", session.Verifier.ID,
	)
	httputil.WriteSuccess(w, http.StatusCreated, "Verifier registered successfully!", toVerifierSession(session))
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	session, err := h.service.LoginVerifier(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "verifier login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login successful", toVerifierSession(session))
}

// HandleAdminLogin handles POST /admin/login.
func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AdminLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	session, err := h.service.LoginAdmin(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "admin login failed",
			"request_id", requestID,
			"username", req.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Admin login successful", toAdminSession(session))
}
