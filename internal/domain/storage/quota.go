package storage

import (
	"errors"
	"fmt"

	"github.com/corey/storyboard/internal/ports"
)

// DefaultQuotaKB matches the per-origin budget browsers give localStorage.
const DefaultQuotaKB = 5120

// quotaStore rejects writes that would push the total size of the store
// past limit code units. Sizes are measured the same way as Snapshot.
type quotaStore struct {
	ports.KeyValueStore
	limit int
}

// WithQuota decorates backend with a size budget of limitKB kilo-units.
// A non-positive limit returns backend unchanged.
func WithQuota(backend ports.KeyValueStore, limitKB int) ports.KeyValueStore {
	if limitKB <= 0 {
		return backend
	}
	return &quotaStore{KeyValueStore: backend, limit: limitKB * 1024}
}

// Set computes the store size as it would be after the write and fails
// with ports.ErrQuotaExceeded if it exceeds the budget.
func (q *quotaStore) Set(key, value string) error {
	keys, err := q.KeyValueStore.Keys()
	if err != nil {
		return err
	}
	used := 0
	for _, k := range keys {
		if k == key {
			continue
		}
		v, err := q.KeyValueStore.Get(k)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return err
		}
		used += entrySize(k, v)
	}
	if need := used + entrySize(key, value); need > q.limit {
		return fmt.Errorf("set %q: %d of %d units: %w", key, need, q.limit, ports.ErrQuotaExceeded)
	}
	return q.KeyValueStore.Set(key, value)
}
