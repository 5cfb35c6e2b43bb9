package memory

import (
	"context"
	"fmt"
	"sync"

	"despesas/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Entry
}

func New() *Store {
	return &Store{}
}

// Insert appends the entry unless its category is already present.
func (s *Store) Insert(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.CategoryID == e.CategoryID {
			return fmt.Errorf("insert %q: %w", e.CategoryID, core.ErrDuplicateCategory)
		}
	}
	s.items = append(s.items, e)
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// List returns a copy of the entries in insertion order.
func (s *Store) List(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.items...), nil
}

func (s *Store) HasCategory(_ context.Context, categoryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

// Close drops every entry.
func (s *Store) Close() error {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	return nil
}
