package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"empverify/internal/accesslog/models"
)

// KafkaMirror produces every event as JSON to a topic, keyed by email.
type KafkaMirror struct {
	client *kgo.Client
	topic  string
}

// NewKafkaMirror connects to the brokers and makes sure the topic exists.
func NewKafkaMirror(ctx context.Context, brokers []string, topic string) (*KafkaMirror, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, -1, nil, topic); err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	return &KafkaMirror{client: client, topic: topic}, nil
}

func (m *KafkaMirror) Publish(ctx context.Context, e *models.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal access log: %w", err)
	}
	record := &kgo.Record{Topic: m.topic, Key: []byte(e.Email), Value: payload}
	if err := m.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce access log: %w", err)
	}
	return nil
}

func (m *KafkaMirror) Close() {
	m.client.Close()
}
