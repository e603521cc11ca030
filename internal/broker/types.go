package broker

import (
	"context"

	"forumflow/internal/events"
)

// Producer appends envelopes to a topic. The key selects the partition:
// envelopes sharing a key are strictly ordered relative to each other.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, env events.Envelope) error
	Close() error
}

// Consumer reads a topic and hands each decoded envelope to the
// handler. The offset for a record is committed only after its handler
// has returned.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Connected() bool
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, env events.Envelope) error
