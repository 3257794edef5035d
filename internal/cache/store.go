// file: internal/cache/store.go
// version: 1.1.0
// guid: 556b643e-3920-4b0e-9c57-84c7f88bb4bd

package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/jdfalk/spit/internal/models"
)

// Store keeps provider output keyed by Key. Implementations must allow
// concurrent reads and writes; a later Put for the same key replaces the
// earlier one.
type Store interface {
	// Get returns the items stored under key. The bool is false on a miss.
	Get(key string) ([]models.RawItem, bool, error)
	// Put stores items under key. An empty slice is a valid value.
	Put(key string, items []models.RawItem) error
	// Purge removes every entry.
	Purge() error
	Close() error
}

// Counter is implemented by stores that can report their size.
type Counter interface {
	Count() (int, error)
}

// Sweeper is implemented by stores that hold expired entries until swept.
type Sweeper interface {
	Sweep() int
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
)

// Open creates the store named by backend. path is ignored by the memory
// and none backends.
func Open(backend, path string, ttl time.Duration) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendNone:
		return NopStore{}, nil
	case "", BackendMemory:
		return NewMemoryStore(ttl), nil
	case BackendPebble:
		return NewPebbleStore(path, ttl)
	case BackendSQLite:
		return NewSQLiteStore(path, ttl)
	}
	return nil, fmt.Errorf("unknown cache backend %q", backend)
}

const keySep = "\x1f"

// Key builds the cache key for one provider answering q. Subject fields are
// case-folded; unset fields are kept distinct from any real value.
func Key(provider string, q models.Query) string {
	field := func(v string, ok bool) string {
		if !ok {
			return "\x00"
		}
		return strings.ToLower(v)
	}
	artist, aok := q.Artist()
	album, bok := q.Album()
	track, tok := q.Track()
	return strings.Join([]string{
		strings.ToLower(provider),
		q.Category().String(),
		field(artist, aok),
		field(album, bok),
		field(track, tok),
	}, keySep)
}

// HashKey returns a fixed-length form of key for on-disk backends.
func HashKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// record is the serialized form used by on-disk backends.
type record struct {
	Items     []models.RawItem `json:"items"`
	ExpiresAt int64            `json:"expires_at,omitempty"` // unix seconds, 0 never expires
}

func encodeRecord(items []models.RawItem, ttl time.Duration, now time.Time) ([]byte, error) {
	rec := record{Items: items}
	if rec.Items == nil {
		rec.Items = []models.RawItem{}
	}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl).Unix()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache record: %w", err)
	}
	return b, nil
}

func decodeRecord(b []byte, now time.Time) ([]models.RawItem, bool, error) {
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache record: %w", err)
	}
	if rec.ExpiresAt != 0 && now.Unix() >= rec.ExpiresAt {
		return nil, false, nil
	}
	if rec.Items == nil {
		rec.Items = []models.RawItem{}
	}
	return rec.Items, true, nil
}

// cloneItems copies the slice and each payload so callers cannot alias
// stored values.
func cloneItems(items []models.RawItem) []models.RawItem {
	out := make([]models.RawItem, len(items))
	for i, it := range items {
		it.Data = append([]byte(nil), it.Data...)
		out[i] = it
	}
	return out
}

// NopStore never stores anything.
type NopStore struct{}

func (NopStore) Get(string) ([]models.RawItem, bool, error) { return nil, false, nil }
func (NopStore) Put(string, []models.RawItem) error         { return nil }
func (NopStore) Purge() error                               { return nil }
func (NopStore) Close() error                               { return nil }
