// Package sqlite implements ports.KeyValueStore on a single SQLite table.
//
// It is the alternative durable backend to bbolt: WAL journaling lets an
// observer read while another process writes, at the cost of a cgo-free but
// heavier driver.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/corey/storyboard/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS local_storage (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Store provides SQLite-backed key-value persistence.
type Store struct {
	sqlDB *sql.DB
	path  string
}

// Open opens a SQLite store at the provided path, creating the table if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps every statement on the same view of the WAL.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{sqlDB: sqlDB, path: cleanPath}, nil
}

// OpenReadOnly opens an existing store with mode=ro. It runs no DDL and sets
// no journal pragmas, so observers never write to the file or its journals.
// Writes fail with ports.ErrBackendUnavailable.
func OpenReadOnly(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?mode=ro&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	// mode=ro opens lazily; touch the table so a missing store fails here.
	var n int
	if err := sqlDB.QueryRow(`SELECT count(*) FROM local_storage`).Scan(&n); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("read sqlite db: %w", err)
	}

	return &Store{sqlDB: sqlDB, path: cleanPath}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// classify maps driver errors onto the ports error kinds.
func classify(op string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3lib.SQLITE_FULL {
		return fmt.Errorf("sqlite %s: %w: %w", op, ports.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("sqlite %s: %w: %w", op, ports.ErrBackendUnavailable, err)
}

// Get returns the value stored under key, or ports.ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.sqlDB.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", classify("get", err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	_, err := s.sqlDB.Exec(
		`INSERT INTO local_storage (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return classify("set", err)
	}
	return nil
}

// Remove deletes key. Idempotent.
func (s *Store) Remove(key string) error {
	if _, err := s.sqlDB.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return classify("remove", err)
	}
	return nil
}

// Clear deletes every row.
func (s *Store) Clear() error {
	if _, err := s.sqlDB.Exec(`DELETE FROM local_storage`); err != nil {
		return classify("clear", err)
	}
	return nil
}

// Keys returns every key ordered by key.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.sqlDB.Query(`SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, classify("keys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, classify("keys", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("keys", err)
	}
	return keys, nil
}

var _ ports.KeyValueStore = (*Store)(nil)
