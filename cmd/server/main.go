package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	accesslogPublisher "empverify/internal/accesslog/publisher"
	adminAdapters "empverify/internal/admin/adapters"
	adminHandler "empverify/internal/admin/handler"
	adminService "empverify/internal/admin/service"
	appealAdapters "empverify/internal/appeal/adapters"
	appealHandler "empverify/internal/appeal/handler"
	appealMetrics "empverify/internal/appeal/metrics"
	appealService "empverify/internal/appeal/service"
	attemptsMetrics "empverify/internal/attempts/metrics"
	attemptsService "empverify/internal/attempts/service"
	"empverify/internal/auth/cleanup"
	authHandler "empverify/internal/auth/handler"
	"empverify/internal/auth/secrets"
	authService "empverify/internal/auth/service"
	adminStore "empverify/internal/auth/store/admin"
	"empverify/internal/auth/token"
	"empverify/internal/documents"
	employeeHandler "empverify/internal/employee/handler"
	employee "empverify/internal/employee/models"
	employeeStore "empverify/internal/employee/store"
	httpapi "empverify/internal/http"
	notifyMetrics "empverify/internal/notify/metrics"
	"empverify/internal/notify/providers"
	notifyService "empverify/internal/notify/service"
	"empverify/internal/notify/templates"
	"empverify/internal/platform/config"
	"empverify/internal/platform/httpserver"
	"empverify/internal/platform/logger"
	"empverify/internal/platform/metrics"
	"empverify/internal/platform/redis"
	verificationHandler "empverify/internal/verification/handler"
	verificationMetrics "empverify/internal/verification/metrics"
	verificationService "empverify/internal/verification/service"
	authmw "empverify/pkg/platform/middleware/auth"
	"empverify/pkg/platform/tx"
)

const (
	shutdownGrace   = 15 * time.Second
	accessLogBuffer = 512
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if db != nil {
		defer db.Close()
	}
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	st := openStores(db, rdb, log)
	if cfg.Seed.Enabled {
		if err := seed(ctx, st, cfg.Seed, log); err != nil {
			return err
		}
	}

	// Notifications
	renderer, err := templates.New(templates.Brand{
		CompanyName:  cfg.Email.CompanyName,
		SupportEmail: cfg.Email.SupportEmail,
		FromAddress:  cfg.Email.FromAddress,
		FromName:     cfg.Email.FromName,
	})
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	mailMetrics := notifyMetrics.New()
	dispatcher, err := notifyService.NewDispatcher(
		cfg.Email.Provider,
		renderer,
		st.emailLogs,
		emailProviders(cfg.Email, log),
		notifyService.WithLogger(log),
		notifyService.WithMetrics(mailMetrics),
	)
	if err != nil {
		return fmt.Errorf("build email dispatcher: %w", err)
	}
	mailer := notifyService.NewAsync(dispatcher,
		notifyService.WithQueueSize(cfg.Email.QueueSize),
		notifyService.WithWorkers(cfg.Email.Workers),
		notifyService.WithAsyncLogger(log),
		notifyService.WithAsyncMetrics(mailMetrics),
	)
	mailer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := mailer.Shutdown(shutdownCtx); err != nil {
			log.Warn("email queue did not drain", "error", err)
		}
	}()

	// Access logs
	publisherOpts := []accesslogPublisher.Option{
		accesslogPublisher.WithAsyncBuffer(accessLogBuffer),
		accesslogPublisher.WithLogger(log),
		accesslogPublisher.WithMetrics(accesslogPublisher.NewMetrics()),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		mirror, err := accesslogPublisher.NewKafkaMirror(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer mirror.Close()
		publisherOpts = append(publisherOpts, accesslogPublisher.WithMirror(mirror))
		log.Info("mirroring access logs to kafka", "topic", cfg.Kafka.Topic)
	}
	accessLogs := accesslogPublisher.NewPublisher(st.accessLogs, publisherOpts...)
	defer accessLogs.Close()

	// Authentication
	jwtService := token.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	authOpts := []authService.Option{
		authService.WithLogger(log),
		authService.WithNotifiers(dispatcher, mailer),
		authService.WithAccessLog(accessLogs),
	}
	if db != nil {
		authOpts = append(authOpts, authService.WithTxRunner(tx.Runner{DB: db}))
	}
	authSvc, err := authService.New(st.verifiers, st.admins, st.otps, jwtService, authOpts...)
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}
	authenticator, err := buildAuthenticator(cfg.Auth, jwtService)
	if err != nil {
		return err
	}

	purge, err := cleanup.New(authSvc, cfg.Auth.OTPCleanup, log)
	if err != nil {
		return fmt.Errorf("schedule code cleanup: %w", err)
	}
	purge.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := purge.Stop(stopCtx); err != nil {
			log.Warn("code cleanup did not stop", "error", err)
		}
	}()

	// Verification
	limiter, err := attemptsService.New(st.attempts,
		attemptsService.WithLogger(log),
		attemptsService.WithMetrics(attemptsMetrics.New()),
		attemptsService.WithMaxAttempts(cfg.Attempts.MaxAttempts),
		attemptsService.WithExitTeamEmail(cfg.Attempts.ExitTeamEmail),
	)
	if err != nil {
		return fmt.Errorf("build attempt limiter: %w", err)
	}
	verifyMetrics := verificationMetrics.New()
	verificationSvc, err := verificationService.New(st.verifications, st.employees, limiter,
		verificationService.WithLogger(log),
		verificationService.WithMetrics(verifyMetrics),
		verificationService.WithNotifier(mailer),
	)
	if err != nil {
		return fmt.Errorf("build verification service: %w", err)
	}

	// Appeals
	docs, err := buildDocumentStore(cfg.Documents)
	if err != nil {
		return err
	}
	appealSvc, err := appealService.New(st.appeals, st.verifications,
		appealService.WithLogger(log),
		appealService.WithMetrics(appealMetrics.New()),
		appealService.WithNotifier(mailer, cfg.Email.AdminRecipients),
		appealService.WithDocuments(docs),
		appealService.WithVerifiers(appealAdapters.NewVerifierDirectory(st.verifiers)),
		appealService.WithEmployees(st.employees),
	)
	if err != nil {
		return fmt.Errorf("build appeal service: %w", err)
	}

	// Reporting
	adminSvc, err := adminService.New(
		st.verifications,
		st.appeals,
		st.employees,
		adminAdapters.NewVerifierStoreAdapter(st.verifiers),
		adminService.WithLogger(log),
		adminService.WithEmailLogs(adminAdapters.NewEmailLogStoreAdapter(st.emailLogs)),
		adminService.WithAccessLogs(accessLogs),
	)
	if err != nil {
		return fmt.Errorf("build admin service: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:        log,
		Authenticator: authenticator,
		Metrics:       metrics.New(),
		Health:        httpapi.NewHealthHandler(healthChecks(db, rdb), log),
		Auth:          authHandler.New(authSvc, log),
		Companies:     employeeHandler.New(employee.Companies, log),
		Verification:  verificationHandler.New(verificationSvc, log, verifyMetrics),
		Appeals:       appealHandler.New(appealSvc, log),
		Admin:         adminHandler.New(adminSvc, log),
	})
	if cfg.Documents.Backend == "local" && strings.HasPrefix(cfg.Documents.PublicURL, "/") {
		router = withUploads(router, cfg.Documents)
	}

	log.Info("starting empverify", "addr", cfg.Addr, "env", cfg.Environment, "email_provider", cfg.Email.Provider)
	return httpserver.Run(ctx, httpserver.New(cfg.Addr, router), log, shutdownGrace)
}

func seed(ctx context.Context, st *stores, creds config.SeedConfig, log *slog.Logger) error {
	if err := employeeStore.SeedEmployees(ctx, st.employees); err != nil {
		return fmt.Errorf("seed employees: %w", err)
	}
	err := adminStore.SeedAdmins(ctx, st.admins, secrets.Hasher{}, adminStore.SeedCredentials{
		AdminPassword:     creds.AdminPassword,
		HRManagerPassword: creds.HRManagerPassword,
	})
	if err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}
	log.Info("seed data loaded")
	return nil
}

// emailProviders always includes the log provider; real providers are added
// when their API key is configured.
func emailProviders(cfg config.EmailConfig, log *slog.Logger) []notifyService.Provider {
	provs := []notifyService.Provider{providers.NewLog(log)}
	if cfg.SendGridAPIKey != "" {
		provs = append(provs, providers.NewSendGrid(cfg.SendGridAPIKey, ""))
	}
	if cfg.BrevoAPIKey != "" {
		provs = append(provs, providers.NewBrevo(cfg.BrevoAPIKey, "", nil))
	}
	return provs
}

func buildAuthenticator(cfg config.AuthConfig, jwt *token.JWTService) (authmw.Authenticator, error) {
	if cfg.Mode != config.AuthModeStatic {
		return jwt, nil
	}
	static, err := token.NewStatic(cfg.StaticTokens)
	if err != nil {
		return nil, fmt.Errorf("static tokens: %w", err)
	}
	return static, nil
}

func buildDocumentStore(cfg config.DocumentsConfig) (appealService.DocumentStore, error) {
	if cfg.Backend == "http" {
		return documents.NewHTTP(cfg.UploadURL, cfg.UploadToken, &http.Client{Timeout: 30 * time.Second}), nil
	}
	store, err := documents.NewLocal(cfg.LocalDir, cfg.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("document directory: %w", err)
	}
	return store, nil
}

// withUploads serves locally stored documents under their public prefix.
func withUploads(next http.Handler, cfg config.DocumentsConfig) http.Handler {
	mux := http.NewServeMux()
	prefix := cfg.PublicURL + "/"
	mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.LocalDir))))
	mux.Handle("/", next)
	return mux
}

func healthChecks(db *sql.DB, rdb *redis.Client) map[string]httpapi.Check {
	checks := map[string]httpapi.Check{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}
	return checks
}
