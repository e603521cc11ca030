package bootstrap

import (
	"context"
	"fmt"

	"forumflow/internal/broker"
	"forumflow/internal/config"
	"forumflow/internal/logger"
)

// Base carries the pieces every service starts from: config, logger
// and the broker endpoints.
type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Factory  *broker.Factory
	Producer broker.Producer
	Consumer broker.Consumer
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitBroker(serviceName string) error {
	factory, err := broker.NewFactory(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create broker factory: %w", err)
	}

	b.Factory = factory
	b.Producer = factory.Producer()
	b.Consumer = factory.Consumer()

	if serviceName != "" {
		b.Consumer.SetServiceName(serviceName)
	}
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if b.Consumer != nil {
		if err := b.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}

	if b.Factory != nil {
		b.Factory.Close()
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	errs = append(errs, b.ShutdownBroker()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
