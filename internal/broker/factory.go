package broker

import (
	"fmt"

	"forumflow/internal/config"
	"forumflow/internal/logger"
)

// Factory builds producers and consumers for the configured broker
// type. It exists so the memory broker can be shared between the
// producer and consumer views within one process; the Kafka paths are
// stateless.
type Factory struct {
	cfg config.BrokerConfig
	log logger.Logger
	mem *MemoryBroker
}

func NewFactory(cfg config.BrokerConfig, log logger.Logger) (*Factory, error) {
	f := &Factory{cfg: cfg, log: log}
	switch cfg.Type {
	case "kafka":
	case "memory":
		f.mem = NewMemoryBroker(log)
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
	return f, nil
}

func (f *Factory) Producer() Producer {
	if f.mem != nil {
		return f.mem.Producer()
	}
	return NewKafkaProducer(f.cfg.Kafka, f.log)
}

func (f *Factory) Consumer() Consumer {
	if f.mem != nil {
		return f.mem.Consumer()
	}
	return NewKafkaConsumer(f.cfg.Kafka, f.log)
}

func (f *Factory) Close() {
	if f.mem != nil {
		f.mem.Close()
	}
}
