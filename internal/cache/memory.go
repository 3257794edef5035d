// file: internal/cache/memory.go
// version: 1.1.0
// guid: 762743f8-e280-43fa-bd50-960780755af6

package cache

import (
	"time"

	"github.com/jdfalk/spit/internal/models"
)

// MemoryStore is a process-local Store backed by Cache.
type MemoryStore struct {
	c *Cache[[]models.RawItem]
}

// NewMemoryStore creates an in-memory store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: New[[]models.RawItem](ttl)}
}

func (m *MemoryStore) Get(key string) ([]models.RawItem, bool, error) {
	items, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return cloneItems(items), true, nil
}

func (m *MemoryStore) Put(key string, items []models.RawItem) error {
	m.c.Set(key, cloneItems(items))
	return nil
}

func (m *MemoryStore) Purge() error {
	m.c.InvalidateAll()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int { return m.c.Sweep() }

// Count sweeps, then returns the number of live entries.
func (m *MemoryStore) Count() (int, error) {
	m.c.Sweep()
	return m.c.Len(), nil
}

func (m *MemoryStore) Close() error { return nil }
