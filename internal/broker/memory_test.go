package broker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumflow/internal/config"
	"forumflow/internal/events"
	"forumflow/internal/logger"
)

func configWithType(brokerType string) config.BrokerConfig {
	return config.BrokerConfig{Type: brokerType}
}

func publishEnvelope(t *testing.T, p Producer, topic, id string) {
	t.Helper()
	err := p.Publish(context.Background(), topic, "key", events.Envelope{
		ID:        id,
		EventName: "topic.viewed",
		EmittedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func collect(ctx context.Context, t *testing.T, c Consumer, topic string, out chan<- string) {
	t.Helper()
	go func() {
		_ = c.Consume(ctx, topic, func(_ context.Context, env events.Envelope) error {
			out <- env.ID
			return nil
		})
	}()
}

func TestMemoryBrokerDelivery(t *testing.T) {
	b := NewMemoryBroker(logger.NopLogger())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 10)
	collect(ctx, t, b.Consumer(), "events", received)

	// Give the consumer a moment to subscribe before publishing.
	time.Sleep(10 * time.Millisecond)

	producer := b.Producer()
	publishEnvelope(t, producer, "events", "e-1")

	select {
	case id := <-received:
		assert.Equal(t, "e-1", id)
	case <-time.After(time.Second):
		t.Fatal("envelope not delivered")
	}
}

func TestMemoryBrokerOrdering(t *testing.T) {
	b := NewMemoryBroker(logger.NopLogger())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 100)
	collect(ctx, t, b.Consumer(), "events", received)
	time.Sleep(10 * time.Millisecond)

	producer := b.Producer()
	for i := 0; i < 50; i++ {
		publishEnvelope(t, producer, "events", fmt.Sprintf("e-%d", i))
	}

	for i := 0; i < 50; i++ {
		select {
		case id := <-received:
			assert.Equal(t, fmt.Sprintf("e-%d", i), id)
		case <-time.After(time.Second):
			t.Fatalf("envelope %d not delivered", i)
		}
	}
}

func TestMemoryBrokerFanout(t *testing.T) {
	b := NewMemoryBroker(logger.NopLogger())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan string, 10)
	second := make(chan string, 10)
	collect(ctx, t, b.Consumer(), "events", first)
	collect(ctx, t, b.Consumer(), "events", second)
	time.Sleep(10 * time.Millisecond)

	publishEnvelope(t, b.Producer(), "events", "e-1")

	for _, ch := range []chan string{first, second} {
		select {
		case id := <-ch:
			assert.Equal(t, "e-1", id)
		case <-time.After(time.Second):
			t.Fatal("envelope not fanned out to all consumers")
		}
	}
}

func TestMemoryBrokerTopicIsolation(t *testing.T) {
	b := NewMemoryBroker(logger.NopLogger())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 10)
	collect(ctx, t, b.Consumer(), "other", received)
	time.Sleep(10 * time.Millisecond)

	publishEnvelope(t, b.Producer(), "events", "e-1")

	select {
	case id := <-received:
		t.Fatalf("received envelope %s from wrong topic", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBrokerPublishAfterClose(t *testing.T) {
	b := NewMemoryBroker(logger.NopLogger())
	producer := b.Producer()
	consumer := b.Consumer()

	assert.True(t, consumer.Connected())
	b.Close()
	assert.False(t, consumer.Connected())

	err := producer.Publish(context.Background(), "events", "k", events.Envelope{ID: "e-1"})
	assert.Error(t, err)
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	_, err := NewFactory(configWithType("rabbitmq"), logger.NopLogger())
	assert.Error(t, err)
}

func TestFactoryMemorySharesBroker(t *testing.T) {
	f, err := NewFactory(configWithType("memory"), logger.NopLogger())
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 10)
	collect(ctx, t, f.Consumer(), "events", received)
	time.Sleep(10 * time.Millisecond)

	publishEnvelope(t, f.Producer(), "events", "e-1")

	select {
	case id := <-received:
		assert.Equal(t, "e-1", id)
	case <-time.After(time.Second):
		t.Fatal("factory producer and consumer are not connected")
	}
}
