package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"despesas/internal/core"
	"despesas/internal/ledger"
	applog "despesas/internal/log"
)

// EventPublisher announces ledger changes to the outside world. Publishing
// is best effort: a failure is logged and never undoes the change.
type EventPublisher interface {
	PublishEntryAdded(ctx context.Context, ledgerID string, e core.Entry, sum core.Summary) error
	PublishEntryRemoved(ctx context.Context, ledgerID string, entryID int64, sum core.Summary) error
	Close() error
}

// NewEntryInput carries the submitted form fields as typed by the user.
type NewEntryInput struct {
	Description string
	CategoryID  string
	Amount      string
}

// Metrics counts ledger operations since start.
type Metrics struct {
	Ledgers             int   `json:"ledgers"`
	EntriesAdded        int64 `json:"entries_added"`
	EntriesRemoved      int64 `json:"entries_removed"`
	DuplicatesRejected  int64 `json:"duplicates_rejected"`
	AggregationFailures int64 `json:"aggregation_failures"`
}

// LedgerService orchestrates ledger operations and event publishing
type LedgerService struct {
	registry  *ledger.Registry
	catalog   core.Catalog
	publisher EventPublisher
	logger    *applog.Logger
	events    *applog.StructuredLogger

	added, removed, rejected, aggFailures atomic.Int64
}

// NewLedgerService wires the registry to the catalog offered by the page.
// publisher may be nil.
func NewLedgerService(registry *ledger.Registry, catalog core.Catalog, publisher EventPublisher) *LedgerService {
	logger := applog.WithComponent(applog.ComponentLedger)
	return &LedgerService{
		registry:  registry,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
	}
}

func (s *LedgerService) Catalog() core.Catalog {
	return s.catalog
}

// OpenLedger starts the ledger of a new page session.
func (s *LedgerService) OpenLedger(ctx context.Context) (*ledger.Ledger, error) {
	l, err := s.registry.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return l, nil
}

func (s *LedgerService) Ledger(id string) (*ledger.Ledger, error) {
	return s.registry.Get(id)
}

// DiscardLedger closes a ledger whose page never reached the client.
func (s *LedgerService) DiscardLedger(id string) {
	s.registry.Discard(id)
}

// AddEntry validates and appends a submitted expense. The returned entry is
// non-zero whenever it was stored, even if the totals could not be
// recomputed afterwards.
func (s *LedgerService) AddEntry(ctx context.Context, ledgerID string, in NewEntryInput) (core.Entry, core.Summary, error) {
	l, err := s.registry.Get(ledgerID)
	if err != nil {
		return core.Entry{}, core.Summary{}, err
	}
	cat, ok := s.catalog.Lookup(in.CategoryID)
	if !ok {
		return core.Entry{}, l.Summary(), fmt.Errorf("category %q: %w", strings.TrimSpace(in.CategoryID), core.ErrUnknownCategory)
	}

	entry, sum, err := l.Add(ctx, in.Description, cat, in.Amount)
	switch {
	case errors.Is(err, core.ErrDuplicateCategory):
		s.rejected.Add(1)
		s.logger.InfoContext(ctx, "Duplicate category rejected",
			applog.FieldLedgerID, ledgerID, applog.FieldCategory, cat.ID)
		return core.Entry{}, sum, err
	case errors.Is(err, core.ErrAggregationParse):
		s.added.Add(1)
		s.aggFailures.Add(1)
		s.events.LogError(ctx, "Totals not updated after add", err, applog.OpRecompute,
			applog.NewFields().WithEntry(ledgerID, entry.ID, cat.ID, entry.Amount.Cents))
		return entry, sum, err
	case err != nil:
		return core.Entry{}, sum, fmt.Errorf("add entry: %w", err)
	}

	s.added.Add(1)
	s.events.LogEntryAdded(ctx, ledgerID, entry.ID, cat.ID, entry.Amount.Cents, sum.Count, sum.Total.Cents)
	if s.publisher != nil {
		if err := s.publisher.PublishEntryAdded(ctx, ledgerID, entry, sum); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish entry added event",
				applog.FieldLedgerID, ledgerID, applog.FieldEntryID, entry.ID, applog.FieldError, err)
		}
	}
	return entry, sum, nil
}

// RemoveEntry deletes an entry and returns the recomputed summary. Removing
// an entry that is already gone reports core.ErrEntryNotFound together with
// a valid summary.
func (s *LedgerService) RemoveEntry(ctx context.Context, ledgerID string, entryID int64) (core.Summary, error) {
	l, err := s.registry.Get(ledgerID)
	if err != nil {
		return core.Summary{}, err
	}

	sum, err := l.Remove(ctx, entryID)
	switch {
	case errors.Is(err, core.ErrEntryNotFound):
		s.logger.InfoContext(ctx, "Entry already removed",
			applog.FieldLedgerID, ledgerID, applog.FieldEntryID, entryID)
		return sum, err
	case errors.Is(err, core.ErrAggregationParse):
		s.aggFailures.Add(1)
		s.events.LogError(ctx, "Totals not updated after remove", err, applog.OpRecompute, nil)
		return sum, err
	case err != nil:
		return sum, fmt.Errorf("remove entry: %w", err)
	}

	s.removed.Add(1)
	s.events.LogEntryRemoved(ctx, ledgerID, entryID, sum.Count, sum.Total.Cents)
	if s.publisher != nil {
		if err := s.publisher.PublishEntryRemoved(ctx, ledgerID, entryID, sum); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish entry removed event",
				applog.FieldLedgerID, ledgerID, applog.FieldEntryID, entryID, applog.FieldError, err)
		}
	}
	return sum, nil
}

// RecomputeTotals runs an aggregation pass without changing any entry.
func (s *LedgerService) RecomputeTotals(ctx context.Context, ledgerID string) (core.Summary, error) {
	l, err := s.registry.Get(ledgerID)
	if err != nil {
		return core.Summary{}, err
	}
	sum, err := l.Recompute(ctx)
	if err != nil {
		if errors.Is(err, core.ErrAggregationParse) {
			s.aggFailures.Add(1)
		}
		return sum, fmt.Errorf("recompute totals: %w", err)
	}
	return sum, nil
}

// Entries lists a ledger's entries in insertion order.
func (s *LedgerService) Entries(ctx context.Context, ledgerID string) ([]core.Entry, error) {
	l, err := s.registry.Get(ledgerID)
	if err != nil {
		return nil, err
	}
	return l.Entries(ctx)
}

func (s *LedgerService) Metrics() Metrics {
	return Metrics{
		Ledgers:             s.registry.Len(),
		EntriesAdded:        s.added.Load(),
		EntriesRemoved:      s.removed.Load(),
		DuplicatesRejected:  s.rejected.Load(),
		AggregationFailures: s.aggFailures.Load(),
	}
}

// Close closes every ledger and the event publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ledgers: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
