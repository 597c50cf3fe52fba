package storage

import (
	"errors"
	"fmt"

	"github.com/corey/storyboard/internal/ports"
	"go.uber.org/zap"
)

// GuardResult describes one run of the version guard.
type GuardResult struct {
	Before    State    // state found on entry
	Stored    string   // marker found on entry, "" when absent
	Wiped     bool     // non-allow-listed keys were cleared
	Preserved []string // allow-listed keys carried across the wipe
	Aborted   bool     // a backend failure stopped the run; the marker was not written
}

// Guard reconciles the stored version marker with the expected version.
//
//	Unversioned                 -> write marker, clear nothing
//	Versioned                   -> no-op
//	PendingInvalidation, Stale  -> wipe all but the allow-list, write marker
//
// A failure reading the marker aborts the run without touching the store.
// A failed first-run marker write also reports Aborted; the next run retries.
func (l *Local) Guard() GuardResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.lookup(VersionKey)
	present := err == nil
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		l.warn("versionGuard", VersionKey, err)
		return GuardResult{Aborted: true}
	}

	res := GuardResult{
		Before: Classify(stored, present, l.version),
		Stored: stored,
	}

	switch {
	case res.Before == Unversioned:
		if err := l.set(VersionKey, l.version); err != nil {
			l.warn("versionGuard", VersionKey, err)
			res.Aborted = true
			return res
		}
		l.log.Info("storage version initialised", zap.String("version", l.version))
	case res.Before.NeedsWipe():
		preserved, err := l.wipe()
		if err != nil {
			l.warn("versionGuard", "", err)
			res.Aborted = true
			return res
		}
		res.Wiped = true
		res.Preserved = preserved
		l.log.Info("storage version mismatch, cleared",
			zap.String("stored", stored),
			zap.String("version", l.version),
			zap.Stringer("state", res.Before),
			zap.Strings("preserved", preserved))
	}
	return res
}

// wipe clears every key except the allow-list and rewrites the marker.
// Caller holds l.mu. An allow-listed value that cannot be read aborts the
// wipe before Clear so a session is never dropped by a transient failure.
func (l *Local) wipe() ([]string, error) {
	type entry struct{ key, value string }
	var keep []entry
	for _, k := range allowList {
		v, err := l.lookup(k)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("capture %q: %w", k, err)
		}
		keep = append(keep, entry{k, v})
	}

	if err := l.clear(); err != nil {
		return nil, fmt.Errorf("clear: %w", err)
	}

	preserved := make([]string, 0, len(keep))
	for _, e := range keep {
		if err := l.set(e.key, e.value); err != nil {
			l.warn("restore", e.key, err)
			continue
		}
		preserved = append(preserved, e.key)
	}

	if err := l.set(VersionKey, l.version); err != nil {
		l.warn("restore", VersionKey, err)
	}
	return preserved, nil
}

// ClearAppStorage resets app state immediately while keeping the session
// and theme: everything but the allow-list is removed and the marker is
// rewritten to the current version. Failures are logged.
func (l *Local) ClearAppStorage() {
	l.mu.Lock()
	defer l.mu.Unlock()

	preserved, err := l.wipe()
	if err != nil {
		l.warn("clearAppStorage", "", err)
		return
	}
	l.log.Info("app storage cleared", zap.Strings("preserved", preserved))
}

// InvalidateStorageCache schedules a wipe for the next Guard run by writing
// the invalidation marker, Bump(version). No data is removed now.
func (l *Local) InvalidateStorageCache() {
	l.mu.Lock()
	defer l.mu.Unlock()

	marker := Bump(l.version)
	if err := l.set(VersionKey, marker); err != nil {
		l.warn("invalidateStorageCache", VersionKey, err)
		return
	}
	l.log.Info("storage invalidation scheduled", zap.String("marker", marker))
}

// PendingMarker returns the marker InvalidateStorageCache writes.
func (l *Local) PendingMarker() string {
	return Bump(l.version)
}
