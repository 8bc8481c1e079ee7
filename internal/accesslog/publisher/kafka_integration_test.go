//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"empverify/internal/accesslog/models"
	"empverify/internal/accesslog/publisher"
	"empverify/internal/accesslog/store"
	"empverify/pkg/testutil/containers"
)

func TestKafkaMirrorPublishesPersistedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t)
	topic := "access-logs-" + uuid.NewString()

	mirror, err := publisher.NewKafkaMirror(ctx, broker.Brokers, topic)
	require.NoError(t, err)
	defer mirror.Close()

	pub := publisher.NewPublisher(store.NewInMemory(), publisher.WithMirror(mirror))
	defer pub.Close()
	require.NoError(t, pub.Emit(ctx, models.Event{
		Email:  "hr@acme.example",
		Role:   "verifier",
		Action: models.ActionRegister,
		Status: models.StatusSuccess,
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "hr@acme.example", string(records[0].Key))

	var got models.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, models.ActionRegister, got.Action)
	assert.Equal(t, models.StatusSuccess, got.Status)
}
