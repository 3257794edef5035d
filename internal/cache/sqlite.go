// file: internal/cache/sqlite.go
// version: 1.0.0
// guid: fa447f99-a866-49b2-96a4-77a4e5282aa5

package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jdfalk/spit/internal/models"
)

// SQLiteStore persists provider output in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the cache database at path.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite cache requires a path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db, ttl: ttl, now: time.Now}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		record BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(key string) ([]models.RawItem, bool, error) {
	var b []byte
	err := s.db.QueryRow("SELECT record FROM results WHERE key = ?", HashKey(key)).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return decodeRecord(b, s.now())
}

func (s *SQLiteStore) Put(key string, items []models.RawItem) error {
	b, err := encodeRecord(items, s.ttl, s.now())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO results (key, record, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		HashKey(key), b)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge deletes every cached result.
func (s *SQLiteStore) Purge() error {
	if _, err := s.db.Exec("DELETE FROM results"); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Count returns the number of stored results, expired ones included.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
