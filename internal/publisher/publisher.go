// Package publisher emits domain events to the broker after a mutation
// has committed. Publishing is best effort: nothing in this package
// returns an error into the mutation path.
package publisher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"forumflow/internal/broker"
	"forumflow/internal/constants"
	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/pkg/circuitbreaker"
	"forumflow/pkg/metrics"
)

type Publisher struct {
	producer broker.Producer
	topic    string
	timeout  time.Duration
	breaker  *circuitbreaker.Wrapper
	logger   logger.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

type Option func(*Publisher)

// WithBreaker guards broker writes with a circuit breaker so a dead
// broker fails publishes immediately instead of burning the timeout on
// every call.
func WithBreaker(w *circuitbreaker.Wrapper) Option {
	return func(p *Publisher) { p.breaker = w }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) { p.timeout = d }
}

func New(producer broker.Producer, topic string, log logger.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		timeout:  constants.PublishTimeout,
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish emits the event asynchronously. The caller's mutation has
// already committed; failures here are logged and counted, never
// surfaced. The caller never waits on broker acknowledgement.
func (p *Publisher) Publish(ctx context.Context, ev events.Event) {
	if p.closed.Load() {
		p.logger.WarnwCtx(ctx, "Publish after close, dropping event",
			"event", ev.Kind().Name(),
		)
		metrics.EventsPublishedTotal.WithLabelValues(p.topic, "dropped").Inc()
		return
	}

	env, err := events.Wrap(ev)
	if err != nil {
		p.logger.ErrorwCtx(ctx, "Failed to serialize event, dropping",
			"error", err,
			"event", ev.Kind().Name(),
		)
		metrics.EventsPublishedTotal.WithLabelValues(p.topic, "dropped").Inc()
		return
	}

	key := ev.PartitionKey()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// Detached from the caller's cancellation: the mutation
		// response must not wait on us, and us on it.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		err := p.write(pubCtx, key, env)
		if err != nil {
			p.logger.ErrorwCtx(pubCtx, "Failed to publish event",
				"error", err,
				"event", env.EventName,
				"key", key,
				"topic", p.topic,
			)
			metrics.EventsPublishedTotal.WithLabelValues(p.topic, "error").Inc()
			return
		}
		metrics.EventsPublishedTotal.WithLabelValues(p.topic, "published").Inc()
	}()
}

func (p *Publisher) write(ctx context.Context, key string, env events.Envelope) error {
	if p.breaker == nil {
		return p.producer.Publish(ctx, p.topic, key, env)
	}
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.producer.Publish(ctx, p.topic, key, env)
	})
	return err
}

// Close drains in-flight publishes and closes the producer.
func (p *Publisher) Close() error {
	p.closed.Store(true)
	p.wg.Wait()
	return p.producer.Close()
}
