package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corey/storyboard/internal/ports"
	"go.uber.org/zap"
)

// decodeJSON reads key and unmarshals it into target.
func (l *Local) decodeJSON(key string, target any) error {
	raw, err := l.lookup(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrMalformedPayload, err)
	}
	return nil
}

// GetJSON decodes the JSON value stored under key into target (a pointer).
// It returns false when the key is absent, the backend fails, or the payload
// is not valid JSON for target; the last two are logged.
func (l *Local) GetJSON(key string, target any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.decodeJSON(key, target); err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			l.warn("getJSON", key, err)
		}
		return false
	}
	return true
}

// LoadJSON is the typed form of GetJSON.
func LoadJSON[T any](l *Local, key string) (T, bool) {
	var v T
	if !l.GetJSON(key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}

// SetJSON encodes value as JSON and stores it under key. Values that cannot
// be encoded (channels, NaN, cycles) are logged and the write is skipped.
func (l *Local) SetJSON(key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		l.log.Warn("storage encode failed",
			zap.String("op", "setJSON"),
			zap.String("key", key),
			zap.Error(err))
		return
	}
	if err := l.set(key, string(data)); err != nil {
		l.warn("setJSON", key, err)
	}
}
