package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/internal/accesslog/models"
	"empverify/internal/accesslog/store"
	"empverify/pkg/requestcontext"
)

type recordingMirror struct {
	mu     sync.Mutex
	events []*models.Event
	err    error
}

func (m *recordingMirror) Publish(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

type failingStore struct{ *store.InMemoryStore }

func (failingStore) Append(context.Context, *models.Event) error {
	return errors.New("db down")
}

type blockingStore struct {
	*store.InMemoryStore
	release chan struct{}
}

func (s blockingStore) Append(ctx context.Context, e *models.Event) error {
	<-s.release
	return s.InMemoryStore.Append(ctx, e)
}

func loginEvent(status models.Status) models.Event {
	return models.Event{
		Email:     "hr@acme.example",
		Role:      "verifier",
		Action:    models.ActionLoginOTP,
		Status:    status,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Metadata:  map[string]any{"companyName": "ACME"},
	}
}

func TestPublisher_SyncMode(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s := store.NewInMemory()
	mirror := &recordingMirror{}
	pub := NewPublisher(s, WithMirror(mirror))
	defer pub.Close()

	require.NoError(t, pub.Emit(ctx, loginEvent(models.StatusSuccess)))

	page, err := pub.List(ctx, models.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	got := page.Logs[0]
	assert.NotEqual(t, "", got.ID.String())
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), got.Timestamp)
	assert.Equal(t, "Chrome", got.Metadata["browser"])
	assert.Equal(t, "ACME", got.Metadata["companyName"])
	assert.Equal(t, models.Pagination{Total: 1, Pages: 1, Page: 1, Limit: models.DefaultPageSize}, page.Pagination)
	assert.Len(t, mirror.events, 1)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	s := store.NewInMemory()
	pub := NewPublisher(s, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), loginEvent(models.StatusFailure)))
	}
	pub.Close()

	_, total, err := s.List(context.Background(), models.Filter{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 10, total, "all events should be drained on close")
	assert.ErrorIs(t, pub.Emit(context.Background(), loginEvent(models.StatusSuccess)), ErrClosed)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	s := blockingStore{InMemoryStore: store.NewInMemory(), release: make(chan struct{})}
	pub := NewPublisher(s, WithAsyncBuffer(1))

	// The worker takes the first event and blocks on the store; the second fills the buffer.
	require.NoError(t, pub.Emit(context.Background(), loginEvent(models.StatusSuccess)))
	require.Eventually(t, func() bool {
		return pub.Emit(context.Background(), loginEvent(models.StatusSuccess)) == nil
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, pub.Emit(context.Background(), loginEvent(models.StatusSuccess)), ErrBufferFull)

	close(s.release)
	pub.Close()
}

func TestPublisher_StoreFailure(t *testing.T) {
	mirror := &recordingMirror{}
	pub := NewPublisher(failingStore{store.NewInMemory()}, WithMirror(mirror))
	defer pub.Close()

	err := pub.Emit(context.Background(), loginEvent(models.StatusSuccess))
	assert.ErrorContains(t, err, "db down")
	assert.Empty(t, mirror.events, "unpersisted events are not mirrored")

	assert.NotPanics(t, func() { pub.Record(context.Background(), loginEvent(models.StatusSuccess)) })
}

func TestPublisher_MirrorFailureDoesNotFailEmit(t *testing.T) {
	s := store.NewInMemory()
	pub := NewPublisher(s, WithMirror(&recordingMirror{err: errors.New("broker down")}))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), loginEvent(models.StatusSuccess)))
	_, total, err := s.List(context.Background(), models.Filter{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
