package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// RequireAdmin allows only principals in the admin role family
// (admin, hr_manager, super_admin). Must run after auth.RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.Principal(ctx)
			if principal == nil || !principal.Role.IsAdmin() {
				logger.WarnContext(ctx, "admin access denied",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission allows only principals holding perm.
func RequirePermission(perm domain.Permission, logger *slog.Logger) func(http.Handler) http.Handler {
	message := "Insufficient permissions to " + strings.ReplaceAll(string(perm), "_", " ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.Principal(ctx)
			if !principal.HasPermission(perm) {
				logger.WarnContext(ctx, "permission denied",
					"request_id", requestcontext.RequestID(ctx),
					"permission", perm,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
