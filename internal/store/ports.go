package store

import (
	"context"

	"despesas/internal/core"
)

// Ports for ledger entry storage. One store holds the entries of one ledger.
type (
	EntryWriter interface {
		// Insert appends the entry. A second entry for the same category
		// fails with core.ErrDuplicateCategory.
		Insert(ctx context.Context, e core.Entry) error
		// Delete removes the entry with the given id and reports whether it existed.
		Delete(ctx context.Context, id int64) (bool, error)
	}

	EntryReader interface {
		// List returns entries in insertion order.
		List(ctx context.Context) ([]core.Entry, error)
		HasCategory(ctx context.Context, categoryID string) (bool, error)
	}

	EntryStore interface {
		EntryWriter
		EntryReader
		Close() error
	}
)
