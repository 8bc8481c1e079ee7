package token

import (
	"context"
	"fmt"
	"strings"

	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
)

// StaticAuthenticator maps fixed bearer tokens to principals. It exists for
// local development and test environments and is refused in production by
// configuration validation.
type StaticAuthenticator struct {
	principals map[string]*domain.Principal
}

// NewStatic parses entries of the form token -> "role:subject:email[:company]".
// Admin roles receive every permission.
func NewStatic(entries map[string]string) (*StaticAuthenticator, error) {
	principals := make(map[string]*domain.Principal, len(entries))
	for tok, spec := range entries {
		parts := strings.SplitN(spec, ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("static token %q: want role:subject:email[:company]", redact(tok))
		}
		role, err := domain.ParseRole(parts[0])
		if err != nil {
			return nil, fmt.Errorf("static token %q: %w", redact(tok), err)
		}
		p := &domain.Principal{SubjectID: parts[1], Email: parts[2], Role: role}
		if len(parts) == 4 {
			p.CompanyName = parts[3]
		}
		if role.IsAdmin() {
			p.Permissions = domain.AllPermissions
		}
		principals[tok] = p
	}
	return &StaticAuthenticator{principals: principals}, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, tok string) (*domain.Principal, error) {
	p, ok := a.principals[tok]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	clone := *p
	return &clone, nil
}

func redact(tok string) string {
	if len(tok) <= 4 {
		return "****"
	}
	return tok[:4] + "****"
}
