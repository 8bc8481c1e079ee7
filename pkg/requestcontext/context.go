// Package requestcontext carries request-scoped values from HTTP middleware to
// services without the services importing net/http.
//
// Middleware sets the principal, client metadata, request id and request time;
// services and stores read them. Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipal(ctx, &domain.Principal{Role: domain.RoleVerifier})
package requestcontext

import (
	"context"
	"time"

	"empverify/pkg/domain"
)

type key int

const (
	keyPrincipal key = iota
	keyClientIP
	keyUserAgent
	keyRequestID
	keyRequestTime
)

func value[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

// Principal is the authenticated caller, or nil for anonymous requests.
func Principal(ctx context.Context) *domain.Principal {
	return value[*domain.Principal](ctx, keyPrincipal)
}

func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// ClientIP is the caller address as resolved by the metadata middleware.
func ClientIP(ctx context.Context) string {
	return value[string](ctx, keyClientIP)
}

func UserAgent(ctx context.Context) string {
	return value[string](ctx, keyUserAgent)
}

// WithClientMetadata records the caller address and User-Agent. Access log
// events read both.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func RequestID(ctx context.Context) string {
	return value[string](ctx, keyRequestID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// Now is the time captured when the request started. Outside a request
// (cron jobs, queue workers) it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins Now for the rest of the request, so a reviewedAt and the
// access log entry written with it agree.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyRequestTime, t)
}
