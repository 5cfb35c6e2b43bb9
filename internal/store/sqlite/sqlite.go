// Package sqlite stores the entries of one ledger in a private in-memory
// SQLite database. Nothing is written to disk, so a ledger's entries go away
// with the ledger.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"despesas/internal/core"
	applog "despesas/internal/log"

	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	logger *applog.Logger
}

// Open creates an empty in-memory database for ledgerID and applies the schema.
func Open(ctx context.Context, ledgerID string) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger := applog.WithComponent(applog.ComponentStore).With(applog.FieldLedgerID, ledgerID)
	logger.Debug("SQLite entry store opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, e core.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, description, category_id, category_name, amount_cents, display, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.CategoryID, e.CategoryName, e.Amount.Cents, e.Display,
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %q: %w", e.CategoryID, core.ErrDuplicateCategory)
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	s.logger.Debug("Entry stored",
		applog.FieldEntryID, e.ID,
		applog.FieldCategory, e.CategoryID,
		applog.FieldAmountCents, e.Amount.Cents)
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns entries ordered by id; ids grow with every insert.
func (s *Store) List(ctx context.Context) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, category_id, category_name, amount_cents, display, created_at
		 FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		var (
			e       core.Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.CategoryID, &e.CategoryName,
			&e.Amount.Cents, &e.Display, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (s *Store) HasCategory(ctx context.Context, categoryID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM entries WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category %q: %w", categoryID, err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
