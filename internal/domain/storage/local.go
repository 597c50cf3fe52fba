// Package storage is the versioned persistence layer every storyboard feature
// writes through: the login session, the theme preference, cached documents.
//
// A Local wraps one ports.KeyValueStore. Its public accessors never return
// backend errors; failures are logged and degrade to "absent" for reads and a
// no-op for writes. Lookup exposes the underlying error for callers that need
// to tell an absent key from a failing backend.
//
// On start-up Guard compares the stored version marker with the version this
// build expects and wipes everything except the allow-listed keys on mismatch.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/corey/storyboard/internal/ports"
	"go.uber.org/zap"
)

// Local is the fault-isolating accessor layer over a single backend.
// All methods are safe for concurrent use; operations run one at a time,
// like calls on a browser tab's main thread.
type Local struct {
	mu      sync.Mutex
	backend ports.KeyValueStore
	version string
	log     *zap.Logger
}

// Option configures a Local.
type Option func(*Local)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(log *zap.Logger) Option {
	return func(l *Local) {
		if log != nil {
			l.log = log
		}
	}
}

// WithVersion overrides the expected schema version (default CurrentVersion).
func WithVersion(v string) Option {
	return func(l *Local) {
		if v != "" {
			l.version = v
		}
	}
}

// New wraps backend.
func New(backend ports.KeyValueStore, opts ...Option) *Local {
	l := &Local{
		backend: backend,
		version: CurrentVersion,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Version returns the schema version this Local expects.
func (l *Local) Version() string {
	return l.version
}

// normalize classifies a backend error into the ports error kinds.
// Unknown errors are treated as an unavailable backend.
func normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, ports.ErrBackendUnavailable),
		errors.Is(err, ports.ErrQuotaExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ports.ErrBackendUnavailable, err)
	}
}

// safely runs fn, converting a panic inside the backend into
// ErrBackendUnavailable so nothing escapes the layer.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ports.ErrBackendUnavailable, r)
		}
	}()
	return normalize(fn())
}

func (l *Local) lookup(key string) (string, error) {
	var v string
	err := safely(func() error {
		var err error
		v, err = l.backend.Get(key)
		return err
	})
	if err != nil {
		return "", err
	}
	return v, nil
}

func (l *Local) set(key, value string) error {
	return safely(func() error { return l.backend.Set(key, value) })
}

func (l *Local) remove(key string) error {
	return safely(func() error { return l.backend.Remove(key) })
}

func (l *Local) clear() error {
	return safely(l.backend.Clear)
}

func (l *Local) keys() ([]string, error) {
	var keys []string
	err := safely(func() error {
		var err error
		keys, err = l.backend.Keys()
		return err
	})
	return keys, err
}

// Lookup returns the raw value for key. The error is ports.ErrNotFound when
// the key is absent, or wraps ports.ErrBackendUnavailable / ErrQuotaExceeded.
func (l *Local) Lookup(key string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookup(key)
}

// GetItem returns the raw value for key. ok is false when the key is absent
// or the backend failed; failures are logged.
func (l *Local) GetItem(key string) (value string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, err := l.lookup(key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			l.warn("getItem", key, err)
		}
		return "", false
	}
	return v, true
}

// SetItem stores value under key. A rejected write (quota, unavailable
// backend) is logged and otherwise ignored.
func (l *Local) SetItem(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.set(key, value); err != nil {
		l.warn("setItem", key, err)
	}
}

// RemoveItem deletes key. Absence and backend failure are tolerated.
func (l *Local) RemoveItem(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.remove(key); err != nil {
		l.warn("removeItem", key, err)
	}
}

func (l *Local) warn(op, key string, err error) {
	l.log.Warn("storage operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}
