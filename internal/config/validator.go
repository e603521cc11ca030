package config

import (
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Server.Port),
		})
	}

	switch cfg.Broker.Type {
	case "kafka":
		if len(cfg.Broker.Kafka.Brokers) == 0 {
			errs = append(errs, &ValidationError{
				Field:   "broker.kafka.brokers",
				Message: "at least one broker address is required",
			})
		}
	case "memory":
		// No connection settings required.
	default:
		errs = append(errs, &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type %q", cfg.Broker.Type),
		})
	}

	if cfg.Analytics.EventLogSize < 0 {
		errs = append(errs, &ValidationError{
			Field:   "analytics.event_log_size",
			Message: "event log size must not be negative",
		})
	}

	if cfg.Analytics.Snapshot.Enabled && cfg.Database.Postgres.Host == "" {
		errs = append(errs, &ValidationError{
			Field:   "analytics.snapshot.enabled",
			Message: "snapshots require database.postgres to be configured",
		})
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}
