package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// Authenticator turns a bearer credential into a principal. The implementation is
// chosen once at startup; nothing in the request other than the bearer token
// influences authentication.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

const bearerPrefix = "Bearer "

// RequireAuth rejects requests without a valid bearer token and stores the
// principal in the request context.
func RequireAuth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Access token is required"))
				return
			}

			principal, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only principals holding one of roles.
func RequireRole(logger *slog.Logger, message string, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.Principal(ctx)
			if principal == nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Access token is required"))
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "forbidden - role not allowed",
				"request_id", requestcontext.RequestID(ctx),
				"role", principal.Role,
				"subject_id", principal.SubjectID,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, message))
		})
	}
}

// RequireVerifier allows only verifier principals.
func RequireVerifier(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, "Verifier access required", domain.RoleVerifier)
}
