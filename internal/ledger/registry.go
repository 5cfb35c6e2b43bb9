package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"despesas/internal/cache"
	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/store"
)

// StoreFactory opens an empty entry store for a new ledger.
type StoreFactory func(ctx context.Context, ledgerID string) (store.EntryStore, error)

// Registry keeps the live ledgers, one per page session. Ledgers idle for
// longer than the TTL, or pushed out by the size bound, are closed.
type Registry struct {
	ledgers *cache.LRUCache[*Ledger]
	open    StoreFactory
	opts    []Option
	logger  *applog.Logger
}

func NewRegistry(open StoreFactory, maxLedgers int, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		open:   open,
		opts:   opts,
		logger: applog.WithComponent(applog.ComponentLedger),
	}
	r.ledgers = cache.NewLRUCache[*Ledger](maxLedgers, ttl,
		cache.WithSlidingTTL[*Ledger](),
		cache.WithEvictHandler(r.evict))
	return r
}

func (r *Registry) evict(id string, l *Ledger) {
	if err := l.Close(); err != nil {
		r.logger.Warn("Failed to close evicted ledger", applog.FieldLedgerID, id, applog.FieldError, err)
		return
	}
	r.logger.Debug("Ledger closed", applog.FieldLedgerID, id)
}

// Create starts an empty ledger under a fresh id.
func (r *Registry) Create(ctx context.Context) (*Ledger, error) {
	id := uuid.NewString()
	s, err := r.open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open store for ledger %s: %w", id, err)
	}
	l := New(id, s, r.opts...)
	r.ledgers.Set(id, l)
	r.logger.Debug("Ledger created", applog.FieldLedgerID, id, applog.FieldLedgers, r.ledgers.Size())
	return l, nil
}

// Get returns the ledger for id or core.ErrLedgerNotFound when it never
// existed or has expired.
func (r *Registry) Get(id string) (*Ledger, error) {
	l, ok := r.ledgers.Get(id)
	if !ok {
		return nil, fmt.Errorf("ledger %q: %w", id, core.ErrLedgerNotFound)
	}
	return l, nil
}

// Discard closes and forgets a ledger.
func (r *Registry) Discard(id string) {
	r.ledgers.Delete(id)
}

func (r *Registry) Len() int {
	return r.ledgers.Size()
}

// CleanExpired closes idle ledgers; it lets a cache.Manager drive the registry.
func (r *Registry) CleanExpired() int {
	return r.ledgers.CleanExpired()
}

// Close closes every live ledger.
func (r *Registry) Close() error {
	n := r.ledgers.Purge()
	r.logger.Info("Ledgers closed", applog.FieldLedgers, n)
	return nil
}
