package ledger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"despesas/internal/core"
	"despesas/internal/store"
	"despesas/internal/store/memory"
)

type countingStore struct {
	*memory.Store
	closed *atomic.Int32
}

func (c countingStore) Close() error {
	c.closed.Add(1)
	return c.Store.Close()
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(func(context.Context, string) (store.EntryStore, error) {
		return memory.New(), nil
	}, 10, time.Hour)

	a, err := r.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := r.Create(context.Background())
	if a.ID() == b.ID() {
		t.Fatalf("ledger ids must be unique")
	}
	got, err := r.Get(a.ID())
	if err != nil || got != a {
		t.Fatalf("unexpected get: %v %v", got, err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, core.ErrLedgerNotFound) {
		t.Fatalf("expected ErrLedgerNotFound, got %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 ledgers, got %d", r.Len())
	}
}

func TestRegistryClosesEvictedLedgers(t *testing.T) {
	var closed atomic.Int32
	r := NewRegistry(func(context.Context, string) (store.EntryStore, error) {
		return countingStore{Store: memory.New(), closed: &closed}, nil
	}, 2, time.Hour)
	ctx := context.Background()

	first, _ := r.Create(ctx)
	_, _ = r.Create(ctx)
	_, _ = r.Create(ctx)

	if closed.Load() != 1 {
		t.Fatalf("expected 1 closed store, got %d", closed.Load())
	}
	if _, err := r.Get(first.ID()); !errors.Is(err, core.ErrLedgerNotFound) {
		t.Fatalf("oldest ledger should be gone")
	}

	_ = r.Close()
	if closed.Load() != 3 || r.Len() != 0 {
		t.Fatalf("expected all stores closed, got %d (len %d)", closed.Load(), r.Len())
	}
}

func TestRegistryStoreFailure(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(func(context.Context, string) (store.EntryStore, error) {
		return nil, boom
	}, 2, time.Hour)
	if _, err := r.Create(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("failed ledger should not be registered")
	}
}
