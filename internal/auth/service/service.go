// Package service implements verifier and admin authentication: one-time code
// login, password registration and login, and token issuance.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	accesslog "empverify/internal/accesslog/models"
	"empverify/internal/auth/models"
	"empverify/internal/auth/secrets"
	notify "empverify/internal/notify/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/email"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

const (
	msgEmailRequired      = "Email is required"
	msgInvalidEmail       = "Please enter a valid email address"
	msgPersonalEmail      = "Please use your company email address. Personal emails are not allowed."
	msgOTPNotFound        = "No OTP found. Please request a new one."
	msgOTPExpired         = "OTP has expired. Please request a new one."
	msgOTPExhausted       = "Maximum attempts exceeded. Please request a new OTP."
	msgOTPSendFailed      = "Failed to send OTP. Please try again."
	msgAccountExists      = "An account with this email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidAdmin       = "Invalid username or password"
	msgDeactivated        = "Your account has been deactivated. Please contact support."
	msgAdminDeactivated   = "Your account has been deactivated. Please contact an administrator."

	roleUnknown = "unknown"
)

// VerifierStore persists verifier accounts. Create must return
// sentinel.ErrAlreadyUsed for a taken email.
type VerifierStore interface {
	Create(ctx context.Context, v *models.Verifier) error
	FindByEmail(ctx context.Context, email string) (*models.Verifier, error)
	UpdateLastLogin(ctx context.Context, id domain.VerifierID, at time.Time) error
}

type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id domain.AdminID, at time.Time) error
}

// OTPStore holds at most one outstanding code per email.
type OTPStore interface {
	Save(ctx context.Context, otp *models.OTP) error
	Find(ctx context.Context, email string) (*models.OTP, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type TokenIssuer interface {
	Issue(p *domain.Principal, now time.Time) (string, time.Time, error)
}

// Notifier delivers a notification and waits for the outcome.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) (*notify.Result, error)
}

// Enqueuer queues a notification without waiting for delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, n notify.Notification) bool
}

// AccessLog records login attempts. Implementations must not block on failure.
type AccessLog interface {
	Record(ctx context.Context, e accesslog.Event)
}

// TxRunner runs fn as one unit of work. Store calls made with the ctx handed to
// fn take part in it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	verifiers VerifierStore
	admins    AdminStore
	otps      OTPStore
	tokens    TokenIssuer
	notifier  Notifier
	async     Enqueuer
	accessLog AccessLog
	tx        TxRunner
	passwords secrets.Hasher
	codes     secrets.Hasher
	generate  func(n int) (string, error)
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNotifiers sets the synchronous sender used for codes and the queue used
// for welcome emails.
func WithNotifiers(sync Notifier, async Enqueuer) Option {
	return func(s *Service) {
		s.notifier = sync
		s.async = async
	}
}

func WithAccessLog(l AccessLog) Option {
	return func(s *Service) {
		s.accessLog = l
	}
}

// WithTxRunner makes a first login's account insert and login stamp commit
// together.
func WithTxRunner(r TxRunner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

// WithHashCost overrides the bcrypt cost for passwords and codes.
func WithHashCost(passwordCost, codeCost int) Option {
	return func(s *Service) {
		s.passwords = secrets.Hasher{Cost: passwordCost}
		s.codes = secrets.Hasher{Cost: codeCost}
	}
}

func WithCodeGenerator(fn func(n int) (string, error)) Option {
	return func(s *Service) {
		s.generate = fn
	}
}

func New(verifiers VerifierStore, admins AdminStore, otps OTPStore, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if verifiers == nil || admins == nil || otps == nil {
		return nil, errors.New("verifier, admin and otp stores are required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	svc := &Service{
		verifiers: verifiers,
		admins:    admins,
		otps:      otps,
		tokens:    tokens,
		tx:        noTx{},
		passwords: secrets.Hasher{Cost: secrets.PasswordCost},
		codes:     secrets.Hasher{Cost: 10},
		generate:  secrets.GenerateCode,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// SendOTPResult describes an issued code without revealing it.
type SendOTPResult struct {
	Email         string
	ExpiryMinutes int
}

// SendOTP issues a fresh code for a company email and mails it. A code issued
// within the last minute blocks a new one.
func (s *Service) SendOTP(ctx context.Context, address string) (*SendOTPResult, error) {
	addr, err := companyEmail(address)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	existing, err := s.otps.Find(ctx, addr)
	switch {
	case err == nil:
		if wait := existing.CooldownRemaining(now); wait > 0 {
			secs := int(math.Ceil(wait.Seconds()))
			return nil, dErrors.WithDetail(dErrors.New(dErrors.CodeRateLimited,
				fmt.Sprintf("Please wait %d seconds before requesting a new OTP.", secs)),
				"cooldownSeconds", secs)
		}
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, msgOTPSendFailed)
	}

	code, err := s.generate(models.OTPLength)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgOTPSendFailed)
	}
	hash, err := s.codes.Hash(code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgOTPSendFailed)
	}
	otp := &models.OTP{
		Email:     addr,
		CodeHash:  hash,
		ExpiresAt: now.Add(models.OTPExpiry),
		CreatedAt: now,
	}
	if err := s.otps.Save(ctx, otp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to generate OTP. Please try again.")
	}

	expiry := int(models.OTPExpiry / time.Minute)
	if s.notifier != nil {
		_, err := s.notifier.Notify(ctx, notify.Notification{
			Kind: notify.KindOTP,
			To:   []string{addr},
			Data: notify.OTPData{Code: code, ExpiryMinutes: expiry},
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to deliver otp",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, msgOTPSendFailed)
		}
	}
	s.logger.InfoContext(ctx, "otp issued",
		"request_id", requestcontext.RequestID(ctx),
		"email_domain", email.Domain(addr),
	)
	return &SendOTPResult{Email: addr, ExpiryMinutes: expiry}, nil
}

type VerifyOTPRequest struct {
	Email       string
	Code        string
	CompanyName string
}

// VerifyOTP checks a code and logs the verifier in, creating the account on
// first login.
func (s *Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*models.Session, error) {
	addr := email.Normalize(req.Email)
	code := strings.TrimSpace(req.Code)
	if addr == "" || code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Email and OTP are required")
	}
	now := requestcontext.Now(ctx)

	if err := s.checkCode(ctx, addr, code, now); err != nil {
		if de, ok := dErrors.From(err); ok && de.Code == dErrors.CodeValidation {
			s.record(ctx, accesslog.Event{
				Email:         addr,
				Role:          domain.RoleVerifier.String(),
				Action:        accesslog.ActionLoginOTP,
				Status:        accesslog.StatusFailure,
				FailureReason: "Invalid OTP",
			})
		}
		return nil, err
	}

	v, isNew, err := s.findOrRegister(ctx, addr, req.CompanyName, now)
	if err != nil {
		return nil, err
	}
	if !isNew {
		if err := s.verifiers.UpdateLastLogin(ctx, v.ID, now); err != nil {
			s.logger.WarnContext(ctx, "failed to update last login",
				"request_id", requestcontext.RequestID(ctx),
				"verifier_id", v.ID,
				"error", err,
			)
		} else {
			v.LastLoginAt = &now
		}
	}
	s.record(ctx, accesslog.Event{
		Email:    addr,
		Role:     domain.RoleVerifier.String(),
		Action:   accesslog.ActionLoginOTP,
		Status:   accesslog.StatusSuccess,
		Metadata: map[string]any{"companyName": v.CompanyName, "isNewUser": isNew},
	})
	session, err := s.verifierSession(v, now)
	if err != nil {
		return nil, err
	}
	session.IsNewUser = isNew
	return session, nil
}

// checkCode consumes one attempt and deletes the code once it is used,
// expired or exhausted.
func (s *Service) checkCode(ctx context.Context, addr, code string, now time.Time) error {
	otp, err := s.otps.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, msgOTPNotFound)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "Verification failed. Please try again.")
	}
	if otp.IsExpired(now) {
		s.deleteCode(ctx, addr)
		return dErrors.New(dErrors.CodeValidation, msgOTPExpired)
	}
	if otp.IsExhausted() {
		s.deleteCode(ctx, addr)
		return dErrors.New(dErrors.CodeValidation, msgOTPExhausted)
	}

	attempts, err := s.otps.IncrementAttempts(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, msgOTPNotFound)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "Verification failed. Please try again.")
	}
	ok, err := s.codes.Verify(code, otp.CodeHash)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "Verification failed. Please try again.")
	}
	if !ok {
		remaining := max(models.MaxOTPAttempts-attempts, 0)
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("Invalid OTP. %d attempt(s) remaining.", remaining))
	}
	s.deleteCode(ctx, addr)
	return nil
}

func (s *Service) deleteCode(ctx context.Context, addr string) {
	if err := s.otps.Delete(ctx, addr); err != nil {
		s.logger.WarnContext(ctx, "failed to delete otp",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) findOrRegister(ctx context.Context, addr, companyName string, now time.Time) (*models.Verifier, bool, error) {
	v, err := s.verifiers.FindByEmail(ctx, addr)
	if err == nil {
		if !v.IsActive {
			return nil, false, dErrors.New(dErrors.CodeForbidden, msgDeactivated)
		}
		return v, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verifier")
	}

	company := strings.TrimSpace(companyName)
	if company == "" {
		company = email.DeriveCompanyName(addr)
	}
	v = &models.Verifier{
		ID:              domain.NewVerifierID(),
		CompanyName:     company,
		Email:           addr,
		IsEmailVerified: true,
		IsActive:        true,
		CreatedAt:       now,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.verifiers.Create(ctx, v); err != nil {
			return err
		}
		return s.verifiers.UpdateLastLogin(ctx, v.ID, now)
	})
	if err != nil {
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verifier")
		}
		// Lost a race with a concurrent first login for the same email.
		existing, findErr := s.verifiers.FindByEmail(ctx, addr)
		if findErr != nil {
			return nil, false, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to load verifier")
		}
		return existing, false, nil
	}
	v.LastLoginAt = &now
	s.logger.InfoContext(ctx, "verifier auto-registered",
		"request_id", requestcontext.RequestID(ctx),
		"verifier_id", v.ID,
	)
	return v, true, nil
}

type RegisterRequest struct {
	CompanyName string
	Email       string
	Password    string
	IsBGVAgency bool
}

// RegisterVerifier creates a password account and sends a welcome email.
func (s *Service) RegisterVerifier(ctx context.Context, req RegisterRequest) (*models.Session, error) {
	addr, err := companyEmail(req.Email)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, "password is invalid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register verifier")
	}
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		company = email.DeriveCompanyName(addr)
	}
	v := &models.Verifier{
		ID:              domain.NewVerifierID(),
		CompanyName:     company,
		Email:           addr,
		PasswordHash:    hash,
		IsEmailVerified: true,
		IsBGVAgency:     req.IsBGVAgency,
		IsActive:        true,
		CreatedAt:       now,
	}
	if err := s.verifiers.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.record(ctx, accesslog.Event{
				Email:         addr,
				Role:          domain.RoleVerifier.String(),
				Action:        accesslog.ActionRegister,
				Status:        accesslog.StatusFailure,
				FailureReason: "Account already exists",
			})
			return nil, dErrors.New(dErrors.CodeConflict, msgAccountExists)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register verifier")
	}
	s.record(ctx, accesslog.Event{
		Email:    addr,
		Role:     domain.RoleVerifier.String(),
		Action:   accesslog.ActionRegister,
		Status:   accesslog.StatusSuccess,
		Metadata: map[string]any{"companyName": v.CompanyName},
	})
	if s.async != nil {
		queued := s.async.Enqueue(ctx, notify.Notification{
			Kind: notify.KindWelcome,
			To:   []string{addr},
			Data: notify.WelcomeData{CompanyName: v.CompanyName, DisplayName: email.DeriveDisplayName(addr)},
		})
		if !queued {
			s.logger.WarnContext(ctx, "welcome email dropped",
				"request_id", requestcontext.RequestID(ctx),
				"verifier_id", v.ID,
			)
		}
	}
	session, err := s.verifierSession(v, now)
	if err != nil {
		return nil, err
	}
	session.IsNewUser = true
	return session, nil
}

// LoginVerifier checks a verifier password. Unknown emails, accounts without a
// password and wrong passwords all fail the same way.
func (s *Service) LoginVerifier(ctx context.Context, address, password string) (*models.Session, error) {
	addr := email.Normalize(address)
	now := requestcontext.Now(ctx)
	fail := func(role, reason string) error {
		s.record(ctx, accesslog.Event{
			Email:         addr,
			Role:          role,
			Action:        accesslog.ActionLoginPassword,
			Status:        accesslog.StatusFailure,
			FailureReason: reason,
		})
		return dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}

	v, err := s.verifiers.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fail(roleUnknown, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Login failed. Please try again.")
	}
	if !v.IsActive {
		s.record(ctx, accesslog.Event{
			Email:         addr,
			Role:          domain.RoleVerifier.String(),
			Action:        accesslog.ActionLoginPassword,
			Status:        accesslog.StatusFailure,
			FailureReason: "Account deactivated",
		})
		return nil, dErrors.New(dErrors.CodeForbidden, msgDeactivated)
	}
	ok, err := s.passwords.Verify(password, v.PasswordHash)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Login failed. Please try again.")
	}
	if !ok {
		return nil, fail(domain.RoleVerifier.String(), "Invalid password")
	}

	if err := s.verifiers.UpdateLastLogin(ctx, v.ID, now); err == nil {
		v.LastLoginAt = &now
	}
	s.record(ctx, accesslog.Event{
		Email:    addr,
		Role:     domain.RoleVerifier.String(),
		Action:   accesslog.ActionLoginPassword,
		Status:   accesslog.StatusSuccess,
		Metadata: map[string]any{"companyName": v.CompanyName},
	})
	return s.verifierSession(v, now)
}

// LoginAdmin checks an admin password.
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	now := requestcontext.Now(ctx)
	fail := func(role, reason string) error {
		s.record(ctx, accesslog.Event{
			Email:         username,
			Role:          role,
			Action:        accesslog.ActionAdminLogin,
			Status:        accesslog.StatusFailure,
			FailureReason: reason,
		})
		return dErrors.New(dErrors.CodeUnauthorized, msgInvalidAdmin)
	}

	a, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fail(roleUnknown, "Admin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Login failed. Please try again.")
	}
	if !a.IsActive {
		s.record(ctx, accesslog.Event{
			Email:         a.Email,
			Role:          a.Role.String(),
			Action:        accesslog.ActionAdminLogin,
			Status:        accesslog.StatusFailure,
			FailureReason: "Account deactivated",
		})
		return nil, dErrors.New(dErrors.CodeForbidden, msgAdminDeactivated)
	}
	ok, err := s.passwords.Verify(password, a.PasswordHash)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Login failed. Please try again.")
	}
	if !ok {
		return nil, fail(a.Role.String(), "Invalid password")
	}

	if err := s.admins.UpdateLastLogin(ctx, a.ID, now); err == nil {
		a.LastLoginAt = &now
	}
	s.record(ctx, accesslog.Event{
		Email:    a.Email,
		Role:     a.Role.String(),
		Action:   accesslog.ActionAdminLogin,
		Status:   accesslog.StatusSuccess,
		Metadata: map[string]any{"username": a.Username},
	})
	tok, exp, err := s.tokens.Issue(a.Principal(), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.Session{Token: tok, ExpiresAt: exp, Admin: a}, nil
}

// CleanupExpiredOTPs purges codes past their expiry.
func (s *Service) CleanupExpiredOTPs(ctx context.Context) (int, error) {
	n, err := s.otps.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, fmt.Errorf("cleanup expired otps: %w", err)
	}
	return n, nil
}

func (s *Service) verifierSession(v *models.Verifier, now time.Time) (*models.Session, error) {
	tok, exp, err := s.tokens.Issue(v.Principal(), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.Session{Token: tok, ExpiresAt: exp, Verifier: v}, nil
}

func (s *Service) record(ctx context.Context, e accesslog.Event) {
	if s.accessLog == nil {
		return
	}
	e.IPAddress = requestcontext.ClientIP(ctx)
	e.UserAgent = requestcontext.UserAgent(ctx)
	s.accessLog.Record(ctx, e)
}

func companyEmail(address string) (string, error) {
	addr := email.Normalize(address)
	if addr == "" {
		return "", dErrors.New(dErrors.CodeValidation, msgEmailRequired)
	}
	if !email.IsValid(addr) {
		return "", dErrors.New(dErrors.CodeValidation, msgInvalidEmail)
	}
	if email.IsPersonalDomain(addr) {
		return "", dErrors.New(dErrors.CodeValidation, msgPersonalEmail)
	}
	return addr, nil
}
