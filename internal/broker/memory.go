package broker

import (
	"context"
	"fmt"
	"sync"

	"forumflow/internal/events"
	"forumflow/internal/logger"
)

// MemoryBroker is a channel-backed broker for tests and single-process
// development. Publish order is preserved per topic, which subsumes the
// per-key ordering guarantee of the Kafka broker.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string][]chan events.Envelope
	closed bool
	logger logger.Logger
}

func NewMemoryBroker(log logger.Logger) *MemoryBroker {
	return &MemoryBroker{
		subs:   make(map[string][]chan events.Envelope),
		logger: log,
	}
}

func (b *MemoryBroker) publish(topic string, env events.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("memory broker is closed")
	}
	for _, ch := range b.subs[topic] {
		ch <- env
	}
	return nil
}

func (b *MemoryBroker) subscribe(topic string) chan events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan events.Envelope, 1024)
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

func (b *MemoryBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[string][]chan events.Envelope)
}

// Producer returns a Producer view of the broker.
func (b *MemoryBroker) Producer() Producer {
	return &memoryProducer{broker: b}
}

// Consumer returns a new independent Consumer view of the broker. Each
// consumer sees every envelope published after it subscribes.
func (b *MemoryBroker) Consumer() Consumer {
	return &memoryConsumer{broker: b}
}

type memoryProducer struct {
	broker *MemoryBroker
}

func (p *memoryProducer) Publish(_ context.Context, topic string, _ string, env events.Envelope) error {
	return p.broker.publish(topic, env)
}

func (p *memoryProducer) Close() error {
	return nil
}

type memoryConsumer struct {
	broker      *MemoryBroker
	serviceName string
}

func (c *memoryConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *memoryConsumer) Connected() bool {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return !c.broker.closed
}

func (c *memoryConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	ch := c.broker.subscribe(topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			if err := handler(ctx, env); err != nil && c.broker.logger != nil {
				c.broker.logger.ErrorwCtx(ctx, "Handler failed, advancing checkpoint",
					"error", err,
					"topic", topic,
				)
			}
		}
	}
}

func (c *memoryConsumer) Close() error {
	return nil
}
