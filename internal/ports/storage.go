// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "errors"

// Error kinds a backend may report. Adapters wrap their native errors so
// callers can classify them with errors.Is.
var (
	// ErrNotFound means the key is absent. Not a failure.
	ErrNotFound = errors.New("key not found")

	// ErrBackendUnavailable means storage is disabled, locked, closed or broken.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrQuotaExceeded means a write was rejected for lack of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrMalformedPayload means a stored value could not be decoded as JSON.
	ErrMalformedPayload = errors.New("malformed payload")
)

// KeyValueStore is the synchronous string key-value backend the storage
// layer persists through. It plays the role of the browser's per-origin
// localStorage: flat string keys, string values, no namespaces.
//
// Implementations must be safe for use from one goroutine at a time; the
// domain layer serializes access.
type KeyValueStore interface {
	// Get returns the value for key, or ErrNotFound if absent.
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Clear deletes every key.
	Clear() error

	// Keys returns all keys currently stored, in backend order.
	Keys() ([]string, error)
}
