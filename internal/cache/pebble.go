// file: internal/cache/pebble.go
// version: 1.0.0
// guid: 78f46586-acd7-43bf-9225-88d11b27308f

package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble/v2"

	"github.com/jdfalk/spit/internal/models"
)

// PebbleStore persists provider output in a PebbleDB directory.
//
// Key Schema:
// - result:<blake2b(key)> -> record JSON
type PebbleStore struct {
	db  *pebble.DB
	ttl time.Duration
	now func() time.Time
}

const pebblePrefix = "result:"

// NewPebbleStore opens (or creates) a PebbleDB store at path.
func NewPebbleStore(path string, ttl time.Duration) (*PebbleStore, error) {
	if path == "" {
		return nil, errors.New("pebble cache requires a path")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db, ttl: ttl, now: time.Now}, nil
}

func pebbleKey(key string) []byte {
	return []byte(pebblePrefix + HashKey(key))
}

func (p *PebbleStore) Get(key string) ([]models.RawItem, bool, error) {
	value, closer, err := p.db.Get(pebbleKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	defer closer.Close()
	return decodeRecord(value, p.now())
}

func (p *PebbleStore) Put(key string, items []models.RawItem) error {
	b, err := encodeRecord(items, p.ttl, p.now())
	if err != nil {
		return err
	}
	if err := p.db.Set(pebbleKey(key), b, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge deletes every cached result.
func (p *PebbleStore) Purge() error {
	// ';' sorts directly after ':' so this range covers the whole prefix.
	if err := p.db.DeleteRange([]byte(pebblePrefix), []byte("result;"), pebble.Sync); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Count returns the number of stored results, expired ones included.
func (p *PebbleStore) Count() (int, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pebblePrefix),
		UpperBound: []byte("result;"),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

func (p *PebbleStore) Close() error {
	return p.db.Close()
}
