package backend

import (
	"context"
	"errors"
	"testing"

	"despesas/internal/config"
	"despesas/internal/core"
	"despesas/internal/services"
	"despesas/internal/store/memory"
	"despesas/internal/store/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", AMQPURL: "amqp://x", AMQPExchange: "e", AMQPRoutingKey: "k"})
	if err != nil || cfg.Type != SQLiteBackend || cfg.AMQPRoutingKey != "k" {
		t.Fatalf("unexpected config %+v err=%v", cfg, err)
	}
}

func TestCreateBackendStores(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	tests := []struct {
		typ  BackendType
		want func(any) bool
	}{
		{MemoryBackend, func(s any) bool { _, ok := s.(*memory.Store); return ok }},
		{SQLiteBackend, func(s any) bool { _, ok := s.(*sqlite.Store); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, Config{Type: tt.typ})
			if err != nil {
				t.Fatalf("create backend: %v", err)
			}
			if res.Publisher != nil {
				t.Fatal("publisher should be disabled without AMQP URL")
			}
			s, err := res.Stores(ctx, "ledger-1")
			if err != nil {
				t.Fatalf("open store: %v", err)
			}
			defer s.Close()
			if !tt.want(s) {
				t.Fatalf("unexpected store type %T", s)
			}
		})
	}
}

func TestCreateBackendInvalidType(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error")
	}
}

type nopPublisher struct{ closed bool }

func (p *nopPublisher) PublishEntryAdded(context.Context, string, core.Entry, core.Summary) error {
	return nil
}
func (p *nopPublisher) PublishEntryRemoved(context.Context, string, int64, core.Summary) error {
	return nil
}
func (p *nopPublisher) Close() error { p.closed = true; return nil }

func TestCreateBackendWithEvents(t *testing.T) {
	pub := &nopPublisher{}
	f := &DefaultFactory{
		logger: NewFactory(nil).(*DefaultFactory).logger,
		dial: func(string, string, string) (services.EventPublisher, error) {
			return pub, nil
		},
	}
	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "despesas", AMQPRoutingKey: "ledger",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Publisher != pub {
		t.Fatalf("publisher not wired: %+v", res)
	}
	if pub.closed {
		t.Fatal("publisher closed by the factory")
	}
}

func TestCreateBackendBrokerDown(t *testing.T) {
	f := &DefaultFactory{
		logger: NewFactory(nil).(*DefaultFactory).logger,
		dial: func(string, string, string) (services.EventPublisher, error) {
			return nil, errors.New("connection refused")
		},
	}
	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "despesas", AMQPRoutingKey: "ledger",
	})
	if err != nil {
		t.Fatalf("broker failure should not fail the backend: %v", err)
	}
	if res.Publisher != nil {
		t.Fatal("publisher should stay disabled")
	}
}
