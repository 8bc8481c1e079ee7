// Package service renders notifications and delivers them through the
// configured email providers, recording every attempt.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"empverify/internal/notify/metrics"
	notify "empverify/internal/notify/models"
	"empverify/internal/notify/providers"
	"empverify/pkg/platform/circuit"
	"empverify/pkg/requestcontext"
)

// Delivery modes selectable with EMAIL_PROVIDER.
const (
	ModeSendGrid = "sendgrid"
	ModeBrevo    = "brevo"
	ModeABTest   = "ab_test"
	ModeFallback = "fallback"
	ModeLog      = "log"
)

// ErrNoRecipients is returned for notifications without a destination.
var ErrNoRecipients = errors.New("notification has no recipients")

// Provider sends one email and returns the provider's message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, email notify.Email) (string, error)
}

// Renderer turns a single-recipient notification into an email.
type Renderer interface {
	Render(n notify.Notification) (notify.Email, error)
}

// LogStore records delivery attempts.
type LogStore interface {
	Save(ctx context.Context, log *notify.EmailLog) error
}

// Dispatcher delivers notifications synchronously.
type Dispatcher struct {
	mode      string
	renderer  Renderer
	logs      LogStore
	providers map[string]Provider
	breakers  map[string]*circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	coinFlip  func() bool
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithBreakerThresholds tunes the per-provider circuit breakers.
func WithBreakerThresholds(failures, successes int) Option {
	return func(d *Dispatcher) {
		for name := range d.breakers {
			d.breakers[name] = circuit.New(name,
				circuit.WithFailureThreshold(failures),
				circuit.WithSuccessThreshold(successes),
			)
		}
	}
}

// WithCoinFlip replaces the A/B selector. true picks brevo.
func WithCoinFlip(f func() bool) Option {
	return func(d *Dispatcher) {
		d.coinFlip = f
	}
}

func NewDispatcher(mode string, renderer Renderer, logs LogStore, provs []Provider, opts ...Option) (*Dispatcher, error) {
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if logs == nil {
		return nil, errors.New("email log store is required")
	}
	d := &Dispatcher{
		mode:      mode,
		renderer:  renderer,
		logs:      logs,
		providers: make(map[string]Provider, len(provs)),
		breakers:  make(map[string]*circuit.Breaker, len(provs)),
		logger:    slog.Default(),
		coinFlip:  func() bool { return rand.IntN(2) == 0 },
	}
	for _, p := range provs {
		d.providers[p.Name()] = p
		d.breakers[p.Name()] = circuit.New(p.Name())
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, name := range requiredProviders(mode) {
		if _, ok := d.providers[name]; !ok {
			return nil, fmt.Errorf("email mode %q needs provider %q", mode, name)
		}
	}
	return d, nil
}

// Notify delivers n to every recipient. The result describes the last successful
// delivery; failures for individual recipients are joined into the error.
func (d *Dispatcher) Notify(ctx context.Context, n notify.Notification) (*notify.Result, error) {
	if len(n.To) == 0 {
		return nil, ErrNoRecipients
	}

	result := &notify.Result{}
	var errs []error
	for _, to := range n.To {
		single := n
		single.To = []string{to}
		email, err := d.renderer.Render(single)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", n.Kind, err)
		}
		res, err := d.deliver(ctx, n.Kind, email)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = res
	}
	if err := errors.Join(errs...); err != nil {
		return result, err
	}
	return result, nil
}

// requiredProviders lists every provider a mode may pick. It must not draw
// from coinFlip.
func requiredProviders(mode string) []string {
	switch mode {
	case ModeSendGrid:
		return []string{providers.NameSendGrid}
	case ModeBrevo:
		return []string{providers.NameBrevo}
	case ModeABTest, ModeFallback:
		return []string{providers.NameBrevo, providers.NameSendGrid}
	default:
		return []string{providers.NameLog}
	}
}

// candidates lists providers in preference order for the configured mode.
func (d *Dispatcher) candidates() []string {
	switch d.mode {
	case ModeSendGrid:
		return []string{providers.NameSendGrid}
	case ModeBrevo:
		return []string{providers.NameBrevo}
	case ModeABTest:
		if d.coinFlip() {
			return []string{providers.NameBrevo}
		}
		return []string{providers.NameSendGrid}
	case ModeFallback:
		return []string{providers.NameBrevo, providers.NameSendGrid}
	default:
		return []string{providers.NameLog}
	}
}

// ordered moves providers with an open breaker behind healthy ones.
func (d *Dispatcher) ordered() []string {
	names := d.candidates()
	healthy := make([]string, 0, len(names))
	var tripped []string
	for _, name := range names {
		if d.breakers[name].IsOpen() {
			tripped = append(tripped, name)
			continue
		}
		healthy = append(healthy, name)
	}
	return append(healthy, tripped...)
}

func (d *Dispatcher) deliver(ctx context.Context, kind notify.Kind, email notify.Email) (*notify.Result, error) {
	var lastErr error
	for i, name := range d.ordered() {
		if i > 0 {
			d.logger.InfoContext(ctx, "trying fallback email provider",
				"request_id", requestcontext.RequestID(ctx),
				"provider", name,
				"kind", kind,
			)
		}
		provider := d.providers[name]
		start := time.Now()
		messageID, err := provider.Send(ctx, email)
		elapsed := time.Since(start)

		entry := &notify.EmailLog{
			ID:             uuid.New(),
			Provider:       name,
			EmailType:      kind,
			Recipient:      email.To[0],
			Subject:        email.Subject,
			ResponseTimeMs: elapsed.Milliseconds(),
			CreatedAt:      requestcontext.Now(ctx),
		}
		if err != nil {
			entry.Status = notify.StatusFailed
			entry.Error = err.Error()
			d.recordFailure(ctx, name)
		} else {
			entry.Status = notify.StatusSent
			entry.MessageID = messageID
			d.recordSuccess(ctx, name)
		}
		d.metrics.ObserveDelivery(name, kind.String(), entry.Status, elapsed)
		d.saveLog(ctx, entry)

		if err == nil {
			d.logger.InfoContext(ctx, "email sent",
				"request_id", requestcontext.RequestID(ctx),
				"provider", name,
				"kind", kind,
				"message_id", messageID,
				"duration_ms", entry.ResponseTimeMs,
			)
			return &notify.Result{Delivered: true, Provider: name, MessageID: messageID}, nil
		}
		d.logger.WarnContext(ctx, "email provider failed",
			"request_id", requestcontext.RequestID(ctx),
			"provider", name,
			"kind", kind,
			"error", err,
		)
		lastErr = err
	}
	return nil, fmt.Errorf("send %s email: %w", kind, lastErr)
}

func (d *Dispatcher) recordFailure(ctx context.Context, name string) {
	if _, change := d.breakers[name].RecordFailure(); change.Opened {
		d.metrics.IncrementBreaker(name, circuit.StateOpen.String())
		d.logger.WarnContext(ctx, "email provider circuit opened", "provider", name)
	}
}

func (d *Dispatcher) recordSuccess(ctx context.Context, name string) {
	if _, change := d.breakers[name].RecordSuccess(); change.Closed {
		d.metrics.IncrementBreaker(name, circuit.StateClosed.String())
		d.logger.InfoContext(ctx, "email provider circuit closed", "provider", name)
	}
}

// saveLog never fails the delivery.
func (d *Dispatcher) saveLog(ctx context.Context, entry *notify.EmailLog) {
	if err := d.logs.Save(context.WithoutCancel(ctx), entry); err != nil {
		d.logger.WarnContext(ctx, "failed to record email log",
			"request_id", requestcontext.RequestID(ctx),
			"provider", entry.Provider,
			"error", err,
		)
	}
}
