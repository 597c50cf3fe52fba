package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf16"

	"github.com/corey/storyboard/internal/ports"
)

// Snapshot is the read-only view the diagnostic panel renders.
type Snapshot struct {
	Version      string   `json:"version" yaml:"version"` // marker, or NotSet
	State        string   `json:"state" yaml:"state"`
	KeyCount     int      `json:"keyCount" yaml:"keyCount"`
	ApproxSizeKB float64  `json:"approxSizeKB" yaml:"approxSizeKB"`
	Keys         []string `json:"keys" yaml:"keys"`
}

// utf16Len counts UTF-16 code units, the unit browser storage sizes are
// measured in. Invalid UTF-8 decodes to U+FFFD, one unit.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// entrySize is the cost of one entry in code units.
func entrySize(key, value string) int {
	return utf16Len(key) + utf16Len(value)
}

// Snapshot enumerates the backend and summarises it. On a failing backend
// the snapshot is empty with version NotSet; per-key read failures count
// only the key's length.
func (l *Local) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{Version: NotSet, State: Unversioned.String(), Keys: []string{}}

	keys, err := l.keys()
	if err != nil {
		l.warn("snapshot", "", err)
		return snap
	}
	sort.Strings(keys)

	units := 0
	for _, k := range keys {
		v, err := l.lookup(k)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			l.warn("snapshot", k, err)
		}
		units += entrySize(k, v)
		if k == VersionKey && err == nil {
			snap.Version = v
			snap.State = Classify(v, true, l.version).String()
		}
	}

	snap.Keys = keys
	snap.KeyCount = len(keys)
	snap.ApproxSizeKB = math.Round(float64(units)/1024*100) / 100
	return snap
}

// Digest hashes every key and value in the store, sorted by key. Two stores
// with the same snapshot but different values have different digests.
// Returns "" when the backend cannot be enumerated.
func (l *Local) Digest() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys, err := l.keys()
	if err != nil {
		l.warn("digest", "", err)
		return ""
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		v, err := l.lookup(k)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			l.warn("digest", k, err)
			return ""
		}
		fmt.Fprintf(h, "%d:%s%d:%s", len(k), k, len(v), v)
	}
	return hex.EncodeToString(h.Sum(nil))
}
