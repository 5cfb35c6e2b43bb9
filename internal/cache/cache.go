package cache

import (
	"context"
	"time"

	applog "despesas/internal/log"
)

// Cleaner drops expired entries and reports how many it removed. Both
// LRUCache and ledger.Registry qualify.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically drops expired entries from its registered caches.
type Manager struct {
	caches []Cleaner
	logger *applog.Logger
}

func NewManager() *Manager {
	return &Manager{
		logger: applog.WithComponent(applog.ComponentCache),
	}
}

// Register adds c to the sweep. Call before Run.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Sweep runs one cleanup pass and returns the number of removed entries.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Debug("Cache cleanup started", "interval", interval.String())
	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("Expired cache entries removed", "removed", n)
			}
		case <-ctx.Done():
			m.logger.Debug("Cache cleanup stopped")
			return nil
		}
	}
}
