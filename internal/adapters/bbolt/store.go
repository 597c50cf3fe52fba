// Package bbolt implements the ports.KeyValueStore interface using bbolt (embedded B+ tree).
// All entries live in a single "local_storage" bucket: flat string keys, raw string
// values. Writes are transactional; a crash mid-write cannot corrupt previously
// committed data, and Clear swaps the bucket out in one transaction.
package bbolt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/corey/storyboard/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var bucketLocal = []byte("local_storage")

// openTimeout bounds how long Open waits for the file lock held by another process.
const openTimeout = 1 * time.Second

// Store implements ports.KeyValueStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path for writing.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLocal)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing database with a shared lock. Writes fail
// with ports.ErrBackendUnavailable. Used by observers such as `cache watch`.
func OpenReadOnly(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("bbolt %s: %w: %w", op, ports.ErrBackendUnavailable, err)
}

// Get returns the value stored under key, or ports.ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLocal)
		if b == nil {
			return nil
		}
		// Seek instead of Get so a zero-length value is distinguishable
		// from a missing key. string() copies out of the mmap.
		k, v := b.Cursor().Seek([]byte(key))
		if k != nil && bytes.Equal(k, []byte(key)) {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", unavailable("get", err)
	}
	if !found {
		return "", ports.ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketLocal)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Remove deletes key. Idempotent: removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLocal)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return unavailable("remove", err)
	}
	return nil
}

// Clear deletes every key by dropping and recreating the bucket.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketLocal); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketLocal)
		return err
	})
	if err != nil {
		return unavailable("clear", err)
	}
	return nil
}

// Keys returns every key in byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLocal)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, unavailable("keys", err)
	}
	return keys, nil
}
