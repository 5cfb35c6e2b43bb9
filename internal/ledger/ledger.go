// Package ledger owns the entries of one page session and keeps their count
// and total in step with every change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"despesas/internal/core"
	"despesas/internal/store"
)

// Ledger is the ordered entry collection of one session. All methods are
// safe for concurrent use; each one runs to completion under the ledger lock.
type Ledger struct {
	id    string
	store store.EntryStore
	now   func() time.Time

	mu      sync.Mutex
	summary core.Summary
	lastID  int64
	closed  bool
}

type Option func(*Ledger)

// WithClock replaces time.Now as the source of entry ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(id string, s store.EntryStore, opts ...Option) *Ledger {
	l := &Ledger{id: id, store: s, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) ID() string { return l.id }

// Summary returns the last successfully computed count and total.
func (l *Ledger) Summary() core.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// Entries lists the current entries in insertion order.
func (l *Ledger) Entries(ctx context.Context) ([]core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.openLocked(); err != nil {
		return nil, err
	}
	return l.store.List(ctx)
}

// Add appends a new entry for cat. A category already in the ledger is
// rejected with core.ErrDuplicateCategory and nothing changes. Once the entry
// is stored the totals are recomputed; a failing recompute is returned along
// with the stored entry and the previous summary.
func (l *Ledger) Add(ctx context.Context, description string, cat core.Category, amountText string) (core.Entry, core.Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.openLocked(); err != nil {
		return core.Entry{}, l.summary, err
	}

	dup, err := l.store.HasCategory(ctx, cat.ID)
	if err != nil {
		return core.Entry{}, l.summary, fmt.Errorf("check category: %w", err)
	}
	if dup {
		return core.Entry{}, l.summary, fmt.Errorf("add %q: %w", cat.ID, core.ErrDuplicateCategory)
	}

	now := l.now()
	entry := core.NewEntry(l.nextID(now), description, cat, amountText, now)
	if err := l.store.Insert(ctx, entry); err != nil {
		return core.Entry{}, l.summary, fmt.Errorf("store entry: %w", err)
	}
	l.lastID = entry.ID

	sum, err := l.recompute(ctx)
	return entry, sum, err
}

// Remove deletes the entry with entryID and recomputes. An unknown id yields
// core.ErrEntryNotFound, still together with a fresh summary.
func (l *Ledger) Remove(ctx context.Context, entryID int64) (core.Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.openLocked(); err != nil {
		return l.summary, err
	}

	found, err := l.store.Delete(ctx, entryID)
	if err != nil {
		return l.summary, fmt.Errorf("delete entry: %w", err)
	}
	sum, err := l.recompute(ctx)
	if err != nil {
		return sum, err
	}
	if !found {
		return sum, fmt.Errorf("remove %d: %w", entryID, core.ErrEntryNotFound)
	}
	return sum, nil
}

// Recompute folds the current entries into a new summary. It is a no-op when
// nothing changed since the last pass.
func (l *Ledger) Recompute(ctx context.Context) (core.Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recompute(ctx)
}

func (l *Ledger) recompute(ctx context.Context) (core.Summary, error) {
	if err := l.openLocked(); err != nil {
		return l.summary, err
	}
	entries, err := l.store.List(ctx)
	if err != nil {
		return l.summary, fmt.Errorf("list entries: %w", err)
	}
	sum, err := Aggregate(entries)
	if err != nil {
		return l.summary, err
	}
	l.summary = sum
	return sum, nil
}

// Aggregate counts entries and sums their amounts. Every display string must
// read back as the entry's numeric amount; the first one that does not fails
// the whole pass with core.ErrAggregationParse.
func Aggregate(entries []core.Entry) (core.Summary, error) {
	var sum core.Summary
	for _, e := range entries {
		shown, err := core.ParseDisplayAmount(e.Display)
		if err != nil {
			return core.Summary{}, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		if !shown.Equal(e.Amount.Decimal()) {
			return core.Summary{}, fmt.Errorf("entry %d shows %s for %s: %w",
				e.ID, shown, e.Amount.Decimal(), core.ErrAggregationParse)
		}
		sum.Count++
		sum.Total = sum.Total.Add(e.Amount)
	}
	return sum, nil
}

// nextID is the creation time in milliseconds, bumped past the previous id
// when two submissions share a millisecond.
func (l *Ledger) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	return id
}

// openLocked fails once the registry has evicted and closed the ledger, so a
// request that still holds it sees an expired session.
func (l *Ledger) openLocked() error {
	if l.closed {
		return fmt.Errorf("ledger %s closed: %w", l.id, core.ErrLedgerNotFound)
	}
	return nil
}

// Close releases the entry store. Closing twice is harmless.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.store.Close(); err != nil {
		return fmt.Errorf("close ledger %s: %w", l.id, err)
	}
	return nil
}

// IsUserError reports whether err is an expected outcome of user input
// rather than a fault.
func IsUserError(err error) bool {
	return errors.Is(err, core.ErrDuplicateCategory) || errors.Is(err, core.ErrEntryNotFound)
}
