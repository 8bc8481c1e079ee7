// Package publisher records access log events through a store and optional
// mirrors. Recording never fails the login flow that produced the event.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"empverify/internal/accesslog/models"
	"empverify/pkg/requestcontext"
)

var (
	ErrBufferFull = errors.New("access log buffer full")
	ErrClosed     = errors.New("access log publisher closed")
)

type Store interface {
	Append(ctx context.Context, e *models.Event) error
	List(ctx context.Context, f models.Filter) ([]*models.Event, int, error)
}

// Mirror receives a copy of every persisted event.
type Mirror interface {
	Publish(ctx context.Context, e *models.Event) error
}

// Publisher persists events synchronously, or through a bounded buffer
// drained by a single worker when WithAsyncBuffer is set.
type Publisher struct {
	store   Store
	mirrors []Mirror
	logger  *slog.Logger
	metrics *Metrics

	buffer chan *models.Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables buffered publishing. Emit drops when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan *models.Event, size)
		}
	}
}

func WithMirror(m Mirror) Option {
	return func(p *Publisher) {
		if m != nil {
			p.mirrors = append(p.mirrors, m)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit fills in id, timestamp and client metadata, then persists the event
// or hands it to the async worker.
func (p *Publisher) Emit(ctx context.Context, e models.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	md := models.ClientMetadata(e.UserAgent)
	for k, v := range e.Metadata {
		md[k] = v
	}
	e.Metadata = md

	if p.buffer == nil {
		return p.persist(ctx, &e)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.metrics.IncDropped()
		return ErrClosed
	}
	select {
	case p.buffer <- &e:
		return nil
	default:
		p.metrics.IncDropped()
		return ErrBufferFull
	}
}

// Record emits and logs any failure instead of returning it.
func (p *Publisher) Record(ctx context.Context, e models.Event) {
	if err := p.Emit(ctx, e); err != nil {
		p.logger.WarnContext(ctx, "failed to record access log",
			"action", e.Action,
			"status", e.Status,
			"error", err,
		)
	}
}

// List returns one page of events, newest first.
func (p *Publisher) List(ctx context.Context, f models.Filter) (*models.Page, error) {
	f = f.Normalize()
	logs, total, err := p.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list access logs: %w", err)
	}
	return models.NewPage(logs, total, f), nil
}

// Close stops accepting events and drains the buffer.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for e := range p.buffer {
		if err := p.persist(context.Background(), e); err != nil {
			p.logger.Warn("failed to persist access log", "action", e.Action, "error", err)
		}
	}
}

func (p *Publisher) persist(ctx context.Context, e *models.Event) error {
	if err := p.store.Append(ctx, e); err != nil {
		p.metrics.IncPersistFailures()
		return fmt.Errorf("persist access log: %w", err)
	}
	p.metrics.IncEmitted(string(e.Action), string(e.Status))
	for _, m := range p.mirrors {
		if err := m.Publish(ctx, e); err != nil {
			p.metrics.IncMirrorFailures()
			p.logger.WarnContext(ctx, "failed to mirror access log", "action", e.Action, "error", err)
		}
	}
	return nil
}
