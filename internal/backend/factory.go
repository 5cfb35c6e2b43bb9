package backend

import (
	"context"
	"fmt"

	"despesas/internal/amqp"
	"despesas/internal/ledger"
	applog "despesas/internal/log"
	"despesas/internal/services"
	"despesas/internal/store"
	"despesas/internal/store/memory"
	"despesas/internal/store/sqlite"
)

// DefaultFactory opens memory or sqlite stores and, when configured, dials
// the AMQP broker.
type DefaultFactory struct {
	logger *applog.Logger
	dial   func(url, exchange, routingKey string) (services.EventPublisher, error)
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.WithComponent(applog.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
		dial: func(url, exchange, routingKey string) (services.EventPublisher, error) {
			c, err := amqp.NewClient(url, exchange, routingKey)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var stores ledger.StoreFactory
	switch cfg.Type {
	case SQLiteBackend:
		stores = func(ctx context.Context, ledgerID string) (store.EntryStore, error) {
			return sqlite.Open(ctx, ledgerID)
		}
	case MemoryBackend:
		stores = func(context.Context, string) (store.EntryStore, error) {
			return memory.New(), nil
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	result := &BackendResult{Stores: stores}

	// Events are optional; a broker that cannot be reached only disables them.
	if cfg.AMQPURL != "" {
		pub, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			f.logger.Warn("Broker unreachable, ledger events disabled", applog.FieldError, err)
		} else {
			result.Publisher = pub
			f.logger.Info("Publishing ledger events",
				"exchange", cfg.AMQPExchange,
				"routing_key", cfg.AMQPRoutingKey)
		}
	}

	f.logger.Info("Backend ready",
		"type", cfg.Type.String(),
		"amqp_enabled", result.Publisher != nil)
	return result, nil
}
