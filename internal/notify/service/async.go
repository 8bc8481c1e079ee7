package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"empverify/internal/notify/metrics"
	notify "empverify/internal/notify/models"
	"empverify/pkg/requestcontext"
)

const (
	defaultQueueSize   = 256
	defaultWorkers     = 4
	defaultSendTimeout = 30 * time.Second
)

// Sender is the synchronous delivery path the async queue drains into.
type Sender interface {
	Notify(ctx context.Context, n notify.Notification) (*notify.Result, error)
}

type job struct {
	ctx context.Context
	n   notify.Notification
}

// Async queues notifications for background delivery. Callers never wait for a
// provider; outcomes are visible only in logs, metrics and email logs.
type Async struct {
	sender      Sender
	queue       chan job
	workers     int
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type AsyncOption func(*Async)

func WithQueueSize(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.queue = make(chan job, n)
		}
	}
}

func WithWorkers(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithSendTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		if d > 0 {
			a.sendTimeout = d
		}
	}
}

func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(a *Async) {
		a.logger = logger
	}
}

func WithAsyncMetrics(m *metrics.Metrics) AsyncOption {
	return func(a *Async) {
		a.metrics = m
	}
}

func NewAsync(sender Sender, opts ...AsyncOption) *Async {
	a := &Async{
		sender:      sender,
		queue:       make(chan job, defaultQueueSize),
		workers:     defaultWorkers,
		sendTimeout: defaultSendTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the worker goroutines.
func (a *Async) Start() {
	for range a.workers {
		a.wg.Add(1)
		go a.run()
	}
}

// Enqueue schedules n and reports whether it was accepted. The job keeps the
// caller's values but not its cancellation.
func (a *Async) Enqueue(ctx context.Context, n notify.Notification) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.drop(ctx, n, "closed")
		return false
	}
	select {
	case a.queue <- job{ctx: context.WithoutCancel(ctx), n: n}:
		return true
	default:
		a.drop(ctx, n, "full")
		return false
	}
}

// Shutdown stops accepting work and waits for queued jobs to finish or ctx to end.
func (a *Async) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer a.wg.Done()
	for j := range a.queue {
		a.handle(j)
	}
}

func (a *Async) handle(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, a.sendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "notification worker panic",
				"request_id", requestcontext.RequestID(ctx),
				"kind", j.n.Kind,
				"panic", r,
			)
		}
	}()

	if _, err := a.sender.Notify(ctx, j.n); err != nil {
		a.logger.ErrorContext(ctx, "background notification failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", j.n.Kind,
			"recipients", len(j.n.To),
			"error", err,
		)
	}
}

func (a *Async) drop(ctx context.Context, n notify.Notification, reason string) {
	a.metrics.IncrementDropped()
	a.logger.WarnContext(ctx, "notification dropped",
		"request_id", requestcontext.RequestID(ctx),
		"kind", n.Kind,
		"reason", reason,
	)
}
