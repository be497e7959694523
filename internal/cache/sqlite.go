package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a local SQLite file so they survive restarts.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	maxRows int
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path    string
	MaxRows int // zero means unlimited
}

// NewSQLite opens or creates the database file and its table.
func NewSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), "newsfeed-cache.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		written_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &SQLiteStore{db: db, path: path, maxRows: cfg.MaxRows}, nil
}

// Path returns the database file path.
func (c *SQLiteStore) Path() string {
	return c.path
}

func (c *SQLiteStore) Get(key string) (Entry, bool) {
	var (
		data    []byte
		written int64
	)
	err := c.db.QueryRow(`SELECT data, written_at FROM cache_entries WHERE key = ?`, key).Scan(&data, &written)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Data: data, Timestamp: time.Unix(0, written).UTC()}, true
}

func (c *SQLiteStore) Set(key string, e Entry) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache write: %w", err)
	}
	defer tx.Rollback()

	if c.maxRows > 0 {
		var exists bool
		err := tx.QueryRow(`SELECT 1 FROM cache_entries WHERE key = ?`, key).Scan(&exists)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check cache entry: %w", err)
		}
		if !exists {
			var count int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count cache entries: %w", err)
			}
			if count >= c.maxRows {
				return ErrQuotaExceeded
			}
		}
	}

	_, err = tx.Exec(`
		INSERT INTO cache_entries (key, data, written_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, written_at = excluded.written_at
	`, key, e.Data, e.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return tx.Commit()
}

func (c *SQLiteStore) Delete(key string) {
	c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
}

// DeleteByPrefix compares with substr rather than LIKE so '%' and '_' in keys are literal.
func (c *SQLiteStore) DeleteByPrefix(prefix string) error {
	_, err := c.db.Exec(`DELETE FROM cache_entries WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return nil
}

func (c *SQLiteStore) Close() error {
	return c.db.Close()
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
