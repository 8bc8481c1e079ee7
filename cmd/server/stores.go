package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	accesslogPublisher "empverify/internal/accesslog/publisher"
	accesslogStore "empverify/internal/accesslog/store"
	adminAdapters "empverify/internal/admin/adapters"
	adminService "empverify/internal/admin/service"
	appealAdapters "empverify/internal/appeal/adapters"
	appealService "empverify/internal/appeal/service"
	appealStore "empverify/internal/appeal/store"
	attemptsService "empverify/internal/attempts/service"
	attemptsStore "empverify/internal/attempts/store"
	auth "empverify/internal/auth/models"
	authService "empverify/internal/auth/service"
	adminStore "empverify/internal/auth/store/admin"
	otpStore "empverify/internal/auth/store/otp"
	verifierStore "empverify/internal/auth/store/verifier"
	employee "empverify/internal/employee/models"
	employeeStore "empverify/internal/employee/store"
	notifyService "empverify/internal/notify/service"
	notifyStore "empverify/internal/notify/store"
	"empverify/internal/platform/config"
	"empverify/internal/platform/postgres"
	"empverify/internal/platform/redis"
	verificationService "empverify/internal/verification/service"
	verificationStore "empverify/internal/verification/store"
)

// The record interfaces join what each consumer reads from the same table.
type (
	verificationRecords interface {
		verificationService.Store
		adminService.VerificationStore
	}

	appealRecords interface {
		appealService.Store
		adminService.AppealStore
	}

	employeeRecords interface {
		adminService.EmployeeStore
		Upsert(ctx context.Context, emp *employee.Employee) error
	}

	verifierRecords interface {
		authService.VerifierStore
		adminAdapters.AuthVerifierStore
		appealAdapters.VerifierStore
	}

	adminRecords interface {
		authService.AdminStore
		Create(ctx context.Context, a *auth.Admin) error
	}

	emailLogRecords interface {
		notifyService.LogStore
		adminAdapters.NotifyLogStore
	}
)

type stores struct {
	verifications verificationRecords
	appeals       appealRecords
	employees     employeeRecords
	verifiers     verifierRecords
	admins        adminRecords
	otps          authService.OTPStore
	attempts      attemptsService.Store
	emailLogs     emailLogRecords
	accessLogs    accesslogPublisher.Store
}

// openStores selects Postgres when a database is open and in-memory stores
// otherwise. A configured Redis takes over attempt counters and login codes.
func openStores(db *sql.DB, rdb *redis.Client, logger *slog.Logger) *stores {
	var s *stores
	if db != nil {
		logger.Info("using postgres stores")
		s = &stores{
			verifications: verificationStore.NewPostgres(db),
			appeals:       appealStore.NewPostgres(db),
			employees:     employeeStore.NewPostgres(db),
			verifiers:     verifierStore.NewPostgres(db),
			admins:        adminStore.NewPostgres(db),
			otps:          otpStore.NewPostgres(db),
			attempts:      attemptsStore.NewPostgres(db),
			emailLogs:     notifyStore.NewPostgres(db),
			accessLogs:    accesslogStore.NewPostgres(db),
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		s = &stores{
			verifications: verificationStore.NewInMemory(),
			appeals:       appealStore.NewInMemory(),
			employees:     employeeStore.NewInMemory(),
			verifiers:     verifierStore.NewInMemory(),
			admins:        adminStore.NewInMemory(),
			otps:          otpStore.NewInMemory(),
			attempts:      attemptsStore.NewInMemory(),
			emailLogs:     notifyStore.NewInMemory(),
			accessLogs:    accesslogStore.NewInMemory(),
		}
	}
	if rdb != nil {
		logger.Info("using redis for attempt counters and login codes")
		s.attempts = attemptsStore.NewRedis(rdb.Client)
		s.otps = otpStore.NewRedis(rdb.Client)
	}
	return s
}

// openDatabase connects and migrates when a DSN is configured.
func openDatabase(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
