package backend

import (
	"context"
	"slices"

	"despesas/internal/ledger"
	"despesas/internal/services"
)

// BackendResult holds what the application needs from a backend: a way to
// open per-ledger entry stores and an optional event publisher. The ledger
// service that receives the publisher closes it.
type BackendResult struct {
	Stores    ledger.StoreFactory
	Publisher services.EventPublisher // nil when events are disabled
}

// Factory turns a Config into the stores and publisher of one process.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// Optional ledger events
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
