package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"forumflow/internal/config"
	"forumflow/internal/constants"
	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/pkg/logging"
	"forumflow/pkg/retry"
	"forumflow/pkg/tracing"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr: kafka.TCP(cfg.Brokers...),
		// Hash keeps all records for one partition key on one
		// partition, which is what gives per-entity ordering.
		Balancer:     &kafka.Hash{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}
	return &KafkaProducer{writer: w, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, env events.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	headers := tracing.InjectTraceContext(ctx, nil)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   body,
		Headers: headers,
		Time:    env.EmittedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	policy      retry.Policy
	logger      logger.Logger
	serviceName string

	mu        sync.Mutex
	readers   []*kafka.Reader
	connected atomic.Bool
	wg        sync.WaitGroup
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	policy := retry.Policy{
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		Multiplier:      cfg.Retry.Multiplier,
	}
	if policy.InitialInterval == 0 {
		policy = retry.DefaultPolicy()
	}
	return &KafkaConsumer{
		cfg:         cfg,
		policy:      policy,
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *KafkaConsumer) Connected() bool {
	return c.connected.Load()
}

// Consume fetches records until ctx is cancelled. Processing is
// sequential per reader, so per-partition ordering holds through the
// handler.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})

	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	// Optimistic until the first fetch says otherwise.
	c.connected.Store(true)

	c.wg.Add(1)
	defer c.wg.Done()

	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
	)

	for {
		var m kafka.Message
		// Ride out broker outages with exponential backoff instead of
		// hammering the cluster.
		err := retry.Notify(ctx, c.policy, func() error {
			var fetchErr error
			m, fetchErr = reader.FetchMessage(ctx)
			if fetchErr != nil && ctx.Err() == nil {
				c.connected.Store(false)
			}
			return fetchErr
		}, func(err error, next time.Duration) {
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
				"next_attempt_in", next,
			)
		})
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", topic,
					"reason", "context canceled",
				)
				return ctx.Err()
			}
			return err
		}
		c.connected.Store(true)

		env, err := events.Decode(m.Value)
		if err != nil {
			c.logger.ErrorwCtx(consumeCtx, "Failed to decode envelope, skipping record",
				"error", err,
				"topic", topic,
				"offset", m.Offset,
			)
			c.commit(reader, m, consumeCtx, topic)
			continue
		}

		msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "kafka.consume", m.Headers)
		msgCtx = logging.WithEventID(msgCtx, env.ID)
		msgCtx = logging.WithEventName(msgCtx, env.EventName)
		msgCtx = logging.WithServiceName(msgCtx, c.serviceName)

		if err := handler(msgCtx, env); err != nil {
			// Derived-state updates are best effort; a failing
			// record must not block the partition. Log and move on.
			c.logger.ErrorwCtx(msgCtx, "Handler failed, advancing checkpoint",
				"error", err,
				"topic", topic,
				"offset", m.Offset,
			)
		}
		span.End()

		c.commit(reader, m, msgCtx, topic)
	}
}

// commit advances the checkpoint with a context that survives shutdown
// so the record finished during draining is not re-delivered.
func (c *KafkaConsumer) commit(reader *kafka.Reader, m kafka.Message, logCtx context.Context, topic string) {
	commitCtx, cancel := context.WithTimeout(context.Background(), constants.KafkaWriteTimeout)
	defer cancel()
	if err := reader.CommitMessages(commitCtx, m); err != nil {
		c.logger.ErrorwCtx(logCtx, "Failed to commit offset",
			"error", err,
			"topic", topic,
			"offset", m.Offset,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	readers := c.readers
	c.readers = nil
	c.mu.Unlock()

	var err error
	for _, r := range readers {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	c.wg.Wait()
	c.connected.Store(false)
	return err
}
