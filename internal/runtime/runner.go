// Package runtime hosts the consumer loop shared by the derived-store
// services: it subscribes to topics, dispatches envelopes to typed
// handlers by event kind, and tracks lifecycle and health.
package runtime

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"forumflow/internal/broker"
	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/pkg/errors"
	"forumflow/pkg/metrics"
)

// HandlerSet holds one typed handler per event kind. A nil field means
// the consumer does not care about that kind. Envelope, when set, is
// invoked with the raw envelope for every known event before the typed
// handler.
type HandlerSet struct {
	Envelope func(ctx context.Context, env events.Envelope) error

	ContentCreated   func(ctx context.Context, p events.ContentPayload) error
	ContentUpdated   func(ctx context.Context, p events.ContentPayload) error
	ContentDeleted   func(ctx context.Context, p events.ContentPayload) error
	ContentModerated func(ctx context.Context, p events.ContentPayload) error
	UserRegistered   func(ctx context.Context, p events.UserPayload) error
	UserLogin        func(ctx context.Context, p events.UserPayload) error
	TopicCreated     func(ctx context.Context, p events.TopicPayload) error
	TopicViewed      func(ctx context.Context, p events.TopicViewPayload) error
	PostCreated      func(ctx context.Context, p events.PostPayload) error
	SearchPerformed  func(ctx context.Context, p events.SearchPayload) error
}

type Runner struct {
	name     string
	consumer broker.Consumer
	topics   []string
	handlers HandlerSet
	logger   logger.Logger

	state      atomic.Int32
	degraded   atomic.Bool
	errorCount atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(name string, consumer broker.Consumer, topics []string, handlers HandlerSet, log logger.Logger) *Runner {
	consumer.SetServiceName(name)
	return &Runner{
		name:     name,
		consumer: consumer,
		topics:   topics,
		handlers: handlers,
		logger:   log,
	}
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

// Healthy reports true only while Running and not degraded.
func (r *Runner) Healthy() bool {
	return r.State() == StateRunning && !r.degraded.Load()
}

func (r *Runner) Degraded() bool {
	return r.degraded.Load()
}

// Connected reports broker connectivity as last observed.
func (r *Runner) Connected() bool {
	return r.consumer.Connected()
}

// ErrorCount is the number of records whose handler failed. These
// records were logged and skipped, not retried.
func (r *Runner) ErrorCount() int64 {
	return r.errorCount.Load()
}

// Start subscribes to the runner's topics and begins processing.
func (r *Runner) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("consumer %s is not stopped (state %s)", r.name, r.State())
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	g, gCtx := errgroup.WithContext(runCtx)
	for _, topic := range r.topics {
		topic := topic
		g.Go(func() error {
			return r.consumer.Consume(gCtx, topic, r.dispatch)
		})
	}
	g.Go(func() error {
		r.watchConnectivity(gCtx)
		return nil
	})

	go func() {
		defer close(r.done)
		if err := g.Wait(); err != nil && gCtx.Err() == nil {
			r.logger.ErrorwCtx(ctx, "Consumer loop exited",
				"consumer", r.name,
				"error", err,
			)
		}
	}()

	r.state.Store(int32(StateRunning))
	r.logger.InfowCtx(ctx, "Consumer running",
		"consumer", r.name,
		"topics", r.topics,
	)
	return nil
}

// Stop drains in-flight processing, then disconnects. The offset of a
// record whose handler has not finished is never committed: the broker
// consumer commits after the handler returns, and we wait for the loop
// to wind down before closing.
func (r *Runner) Stop(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		return fmt.Errorf("consumer %s is not running (state %s)", r.name, r.State())
	}

	r.logger.InfowCtx(ctx, "Consumer draining", "consumer", r.name)
	r.cancel()

	select {
	case <-r.done:
	case <-ctx.Done():
		r.logger.WarnwCtx(ctx, "Drain window expired before in-flight work finished",
			"consumer", r.name,
		)
	}

	err := r.consumer.Close()
	r.state.Store(int32(StateStopped))
	r.degraded.Store(false)
	r.logger.InfowCtx(ctx, "Consumer stopped", "consumer", r.name)
	return err
}

func (r *Runner) watchConnectivity(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.State() != StateRunning {
				continue
			}
			r.degraded.Store(!r.consumer.Connected())
		}
	}
}

// dispatch routes one envelope to its typed handler. It always returns
// nil: handler and decode failures are logged and counted so the
// checkpoint advances, and unknown event names are skipped for forward
// compatibility.
func (r *Runner) dispatch(ctx context.Context, env events.Envelope) error {
	kind, ok := events.KindOf(env.EventName)
	if !ok {
		metrics.UnknownEventsTotal.WithLabelValues(r.name).Inc()
		r.logger.DebugwCtx(ctx, "Skipping unknown event", "event", env.EventName)
		return nil
	}

	if r.handlers.Envelope != nil {
		if err := r.handlers.Envelope(ctx, env); err != nil {
			r.recordError(ctx, env.EventName, err)
		}
	}

	r.invoke(ctx, env, kind)
	return nil
}

func (r *Runner) invoke(ctx context.Context, env events.Envelope, kind events.Kind) {
	start := time.Now()
	err := r.handle(ctx, env, kind)
	metrics.HandlerProcessingDuration.WithLabelValues(r.name, env.EventName).
		Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		r.recordError(ctx, env.EventName, err)
		metrics.EventsConsumedTotal.WithLabelValues(r.name, env.EventName, "error").Inc()
		return
	}
	metrics.EventsConsumedTotal.WithLabelValues(r.name, env.EventName, "ok").Inc()
}

func (r *Runner) handle(ctx context.Context, env events.Envelope, kind events.Kind) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.RecoverPanic(rec)
		}
	}()

	switch kind {
	case events.KindContentCreated:
		return decodeAndCall(ctx, env, r.handlers.ContentCreated, events.DecodeContent)
	case events.KindContentUpdated:
		return decodeAndCall(ctx, env, r.handlers.ContentUpdated, events.DecodeContent)
	case events.KindContentDeleted:
		return decodeAndCall(ctx, env, r.handlers.ContentDeleted, events.DecodeContent)
	case events.KindContentModerated:
		return decodeAndCall(ctx, env, r.handlers.ContentModerated, events.DecodeContent)
	case events.KindUserRegistered:
		return decodeAndCall(ctx, env, r.handlers.UserRegistered, events.DecodeUser)
	case events.KindUserLogin:
		return decodeAndCall(ctx, env, r.handlers.UserLogin, events.DecodeUser)
	case events.KindTopicCreated:
		return decodeAndCall(ctx, env, r.handlers.TopicCreated, events.DecodeTopic)
	case events.KindTopicViewed:
		return decodeAndCall(ctx, env, r.handlers.TopicViewed, events.DecodeTopicView)
	case events.KindPostCreated:
		return decodeAndCall(ctx, env, r.handlers.PostCreated, events.DecodePost)
	case events.KindSearchPerformed:
		return decodeAndCall(ctx, env, r.handlers.SearchPerformed, events.DecodeSearch)
	default:
		return nil
	}
}

func decodeAndCall[T any](ctx context.Context, env events.Envelope, handler func(context.Context, T) error, decode func(events.Envelope) (T, error)) error {
	if handler == nil {
		return nil
	}
	payload, err := decode(env)
	if err != nil {
		return err
	}
	return handler(ctx, payload)
}

func (r *Runner) recordError(ctx context.Context, eventName string, err error) {
	r.errorCount.Add(1)
	r.logger.ErrorwCtx(ctx, "Event handler failed",
		"consumer", r.name,
		"event", eventName,
		"error", err,
	)
}
