// Package httpapi assembles the HTTP surface from the module handlers.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminHandler "empverify/internal/admin/handler"
	appealHandler "empverify/internal/appeal/handler"
	authHandler "empverify/internal/auth/handler"
	employeeHandler "empverify/internal/employee/handler"
	"empverify/internal/platform/metrics"
	verificationHandler "empverify/internal/verification/handler"
	"empverify/pkg/domain"
	adminmw "empverify/pkg/platform/middleware/admin"
	authmw "empverify/pkg/platform/middleware/auth"
	"empverify/pkg/platform/middleware/metadata"
	"empverify/pkg/platform/middleware/requesttime"
)

const requestTimeout = 60 * time.Second

// Deps are the handlers and cross-cutting services the router mounts.
type Deps struct {
	Logger        *slog.Logger
	Authenticator authmw.Authenticator
	Metrics       *metrics.Metrics
	Health        *HealthHandler
	Auth          *authHandler.Handler
	Companies     *employeeHandler.Handler
	Verification  *verificationHandler.Handler
	Appeals       *appealHandler.Handler
	Admin         *adminHandler.Handler
}

// NewRouter wires every endpoint under /api plus the operational endpoints.
// Verifier routes require a verifier token; admin routes require an admin
// role and, per route, a permission.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/health", d.Health.HandleLive)
	r.Get("/debug/health-db", d.Health.HandleDependencies)
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := authmw.RequireAuth(d.Authenticator, d.Logger)
	permission := func(p domain.Permission) func(http.Handler) http.Handler {
		return adminmw.RequirePermission(p, d.Logger)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(requestTimeout))

		d.Auth.Register(api)
		d.Companies.Register(api)

		api.Group(func(v chi.Router) {
			v.Use(requireAuth, authmw.RequireVerifier(d.Logger))
			d.Verification.Register(v)
			d.Appeals.RegisterVerifier(v)
		})

		api.Group(func(a chi.Router) {
			a.Use(requireAuth, adminmw.RequireAdmin(d.Logger))
			d.Appeals.RegisterAdmin(a, permission(domain.PermViewAppeals), permission(domain.PermManageAppeals))
			d.Admin.RegisterAdmin(a, permission(domain.PermViewReports))
		})
	})
	return r
}
