// Package memory implements ports.KeyValueStore with an in-process map.
// It backs the "memory" backend and doubles as the fault-injecting fake in
// tests: any operation can be made to fail with a chosen error.
package memory

import (
	"fmt"
	"sort"

	"github.com/corey/storyboard/internal/ports"
)

// Op names a store operation for fault injection.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpKeys   Op = "keys"
)

// Store implements ports.KeyValueStore in memory.
type Store struct {
	data   map[string]string
	faults map[Op]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		data:   make(map[string]string),
		faults: make(map[Op]error),
	}
}

// NewStoreWith returns a store seeded with a copy of entries.
func NewStoreWith(entries map[string]string) *Store {
	s := NewStore()
	for k, v := range entries {
		s.data[k] = v
	}
	return s
}

// FailOn makes every call of op return err until Heal is called.
// A nil err defaults to ports.ErrBackendUnavailable.
func (s *Store) FailOn(op Op, err error) {
	if err == nil {
		err = ports.ErrBackendUnavailable
	}
	s.faults[op] = err
}

// Heal clears all injected faults.
func (s *Store) Heal() {
	s.faults = make(map[Op]error)
}

func (s *Store) fault(op Op) error {
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("memory %s: %w", op, err)
	}
	return nil
}

// Get returns the value for key.
func (s *Store) Get(key string) (string, error) {
	if err := s.fault(OpGet); err != nil {
		return "", err
	}
	v, ok := s.data[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	if err := s.fault(OpSet); err != nil {
		return err
	}
	s.data[key] = value
	return nil
}

// Remove deletes key. Idempotent.
func (s *Store) Remove(key string) error {
	if err := s.fault(OpRemove); err != nil {
		return err
	}
	delete(s.data, key)
	return nil
}

// Clear deletes every key.
func (s *Store) Clear() error {
	if err := s.fault(OpClear); err != nil {
		return err
	}
	s.data = make(map[string]string)
	return nil
}

// Keys returns all keys, sorted for deterministic output.
func (s *Store) Keys() ([]string, error) {
	if err := s.fault(OpKeys); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Dump returns a copy of the raw contents, bypassing injected faults.
func (s *Store) Dump() map[string]string {
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}
