package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Authenticator modes selectable at startup.
const (
	AuthModeJWT    = "jwt"
	AuthModeStatic = "static"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	Postgres    PostgresConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Email       EmailConfig
	Documents   DocumentsConfig
	Kafka       KafkaConfig
	Attempts    AttemptsConfig
	Seed        SeedConfig
}

// PostgresConfig configures the primary database. An empty DSN selects in-memory stores.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional Redis client used by the attempt and OTP stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig selects the request authenticator and holds token settings.
type AuthConfig struct {
	Mode         string
	JWTSecret    string
	TokenTTL     time.Duration
	Issuer       string
	Audience     string
	StaticTokens map[string]string // token -> "role:subject:email"
	OTPCleanup   string            // cron spec
}

// EmailConfig configures the notification providers.
type EmailConfig struct {
	Provider        string
	SendGridAPIKey  string
	BrevoAPIKey     string
	FromAddress     string
	FromName        string
	CompanyName     string
	SupportEmail    string
	AdminRecipients []string
	QueueSize       int
	Workers         int
}

// DocumentsConfig configures supporting document storage.
type DocumentsConfig struct {
	Backend     string // local | http
	LocalDir    string
	PublicURL   string
	UploadURL   string
	UploadToken string
}

// KafkaConfig configures the optional access log mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AttemptsConfig configures identity validation limits.
type AttemptsConfig struct {
	MaxAttempts   int
	ExitTeamEmail string
}

// SeedConfig holds initial admin credentials for fresh deployments.
type SeedConfig struct {
	Enabled           bool
	AdminPassword     string
	HRManagerPassword string
}

// IsProduction reports whether the service runs in production.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:        getEnv("EMPVERIFY_ADDR", ":8080"),
		Environment: getEnv("APP_ENV", EnvDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Auth: AuthConfig{
			Mode:         getEnv("AUTH_MODE", AuthModeJWT),
			JWTSecret:    getEnv("JWT_SECRET", "dev-secret-key-change-in-production"),
			TokenTTL:     getDuration("JWT_TTL", 7*24*time.Hour),
			Issuer:       "employee-verification-portal",
			Audience:     "verification-users",
			StaticTokens: parsePairs(os.Getenv("AUTH_STATIC_TOKENS")),
			OTPCleanup:   getEnv("OTP_CLEANUP_SCHEDULE", "@every 10m"),
		},
		Email: EmailConfig{
			Provider:        getEnv("EMAIL_PROVIDER", "log"),
			SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
			BrevoAPIKey:     os.Getenv("BREVO_API_KEY"),
			FromAddress:     getEnv("EMAIL_FROM", "noreply@example.com"),
			FromName:        getEnv("EMAIL_FROM_NAME", "Employee Verification Portal"),
			CompanyName:     getEnv("COMPANY_NAME", "TVS Credit Services Limited"),
			SupportEmail:    getEnv("SUPPORT_EMAIL", "support@example.com"),
			AdminRecipients: splitList(os.Getenv("ADMIN_NOTIFY_EMAILS")),
			QueueSize:       getInt("EMAIL_QUEUE_SIZE", 256),
			Workers:         getInt("EMAIL_WORKERS", 4),
		},
		Documents: DocumentsConfig{
			Backend:     getEnv("DOCUMENT_STORE", "local"),
			LocalDir:    getEnv("DOCUMENT_DIR", "uploads"),
			PublicURL:   getEnv("DOCUMENT_PUBLIC_URL", "/uploads"),
			UploadURL:   os.Getenv("DOCUMENT_UPLOAD_URL"),
			UploadToken: os.Getenv("DOCUMENT_UPLOAD_TOKEN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_ACCESS_LOG_TOPIC", "empverify.access-logs"),
		},
		Attempts: AttemptsConfig{
			MaxAttempts:   getInt("MAX_VALIDATION_ATTEMPTS", 3),
			ExitTeamEmail: getEnv("EXIT_TEAM_EMAIL", "exitteam@example.com"),
		},
		Seed: SeedConfig{
			Enabled:           getBool("SEED_DATA", true),
			AdminPassword:     getEnv("SEED_ADMIN_PASSWORD", "admin123"),
			HRManagerPassword: getEnv("SEED_HR_PASSWORD", "hr123"),
		},
	}
	if len(cfg.Email.AdminRecipients) == 0 {
		cfg.Email.AdminRecipients = []string{cfg.Email.SupportEmail}
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that must never run.
func (s Server) Validate() error {
	switch s.Auth.Mode {
	case AuthModeJWT:
	case AuthModeStatic:
		if s.IsProduction() {
			return errors.New("static authentication is not allowed in production")
		}
		if len(s.Auth.StaticTokens) == 0 {
			return errors.New("AUTH_STATIC_TOKENS is required when AUTH_MODE=static")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", s.Auth.Mode)
	}
	if s.IsProduction() && s.Auth.JWTSecret == "dev-secret-key-change-in-production" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if s.Attempts.MaxAttempts < 1 {
		return errors.New("MAX_VALIDATION_ATTEMPTS must be positive")
	}
	switch s.Documents.Backend {
	case "local":
	case "http":
		if s.Documents.UploadURL == "" {
			return errors.New("DOCUMENT_UPLOAD_URL is required when DOCUMENT_STORE=http")
		}
	default:
		return fmt.Errorf("unknown DOCUMENT_STORE %q", s.Documents.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePairs reads "token=value,token2=value2".
func parsePairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range splitList(raw) {
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}
