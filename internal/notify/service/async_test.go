package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notify "empverify/internal/notify/models"
)

type recordingSender struct {
	mu      sync.Mutex
	got     []notify.Notification
	ctxErrs []error
	block   chan struct{}
}

func (r *recordingSender) Notify(ctx context.Context, n notify.Notification) (*notify.Result, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return &notify.Result{Delivered: true}, nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsyncDeliversAfterCallerCancels(t *testing.T) {
	sender := &recordingSender{}
	a := NewAsync(sender, WithWorkers(2), WithAsyncLogger(discard()))
	a.Start()

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, a.Enqueue(ctx, otp("hr@acme.example")))
	cancel()

	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, 1, sender.count())
	assert.NoError(t, sender.ctxErrs[0])
}

func TestAsyncDropsWhenFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	a := NewAsync(sender, WithWorkers(1), WithQueueSize(1), WithAsyncLogger(discard()))
	a.Start()

	require.True(t, a.Enqueue(context.Background(), otp("a@acme.example")))
	// The single worker may or may not have taken the first job yet, so fill
	// until the queue rejects.
	accepted := 1
	for a.Enqueue(context.Background(), otp("b@acme.example")) {
		accepted++
		require.LessOrEqual(t, accepted, 2)
	}

	close(sender.block)
	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, accepted, sender.count())
}

func TestAsyncRejectsAfterShutdown(t *testing.T) {
	a := NewAsync(&recordingSender{}, WithAsyncLogger(discard()))
	a.Start()
	require.NoError(t, a.Shutdown(context.Background()))

	assert.False(t, a.Enqueue(context.Background(), otp("hr@acme.example")))
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestAsyncShutdownHonoursDeadline(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	a := NewAsync(sender, WithWorkers(1), WithAsyncLogger(discard()))
	a.Start()
	require.True(t, a.Enqueue(context.Background(), otp("hr@acme.example")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Shutdown(ctx), context.DeadlineExceeded)

	close(sender.block)
}
