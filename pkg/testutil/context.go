package testutil

import (
	"context"
	"net/http"

	"empverify/pkg/domain"
	"empverify/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated caller to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithPrincipal(req *http.Request, p *domain.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// VerifierPrincipal builds a verifier principal for the given subject.
func VerifierPrincipal(subject string, email, company string) *domain.Principal {
	return &domain.Principal{
		SubjectID:   subject,
		Email:       email,
		Role:        domain.RoleVerifier,
		CompanyName: company,
	}
}

// AdminPrincipal builds an admin principal with the given role and permissions.
func AdminPrincipal(subject string, role domain.Role, perms ...domain.Permission) *domain.Principal {
	return &domain.Principal{
		SubjectID:   subject,
		Email:       "admin@example.com",
		Role:        role,
		Permissions: perms,
	}
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
