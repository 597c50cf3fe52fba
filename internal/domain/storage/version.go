package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionKey holds the schema generation of everything else in the store.
const VersionKey = "storyboard-storage-version"

// CurrentVersion is the schema generation this build expects.
const CurrentVersion = "1.0.0"

// NotSet is reported in snapshots when the version marker is absent.
const NotSet = "Not set"

// allowList is the set of keys preserved verbatim across a wipe: the login
// session and the theme preference.
var allowList = []string{"user", "theme"}

// AllowList returns a copy of the keys preserved across a wipe.
func AllowList() []string {
	return append([]string(nil), allowList...)
}

// IsAllowListed reports whether key survives a wipe.
func IsAllowListed(key string) bool {
	for _, k := range allowList {
		if k == key {
			return true
		}
	}
	return false
}

// State is the version guard's view of the stored marker.
type State int

const (
	// Unversioned: no marker. First run; nothing is cleared.
	Unversioned State = iota
	// Versioned: marker equals the current version.
	Versioned
	// PendingInvalidation: marker equals Bump(current), written by
	// InvalidateStorageCache. The next guard run wipes.
	PendingInvalidation
	// Stale: any other marker, typically an older release. The next guard run wipes.
	Stale
)

func (s State) String() string {
	switch s {
	case Unversioned:
		return "unversioned"
	case Versioned:
		return "versioned"
	case PendingInvalidation:
		return "pending-invalidation"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// NeedsWipe reports whether the guard clears the store in this state.
func (s State) NeedsWipe() bool {
	return s == PendingInvalidation || s == Stale
}

// Classify maps a stored marker onto a State relative to current.
func Classify(stored string, present bool, current string) State {
	switch {
	case !present:
		return Unversioned
	case stored == current:
		return Versioned
	case stored == Bump(current):
		return PendingInvalidation
	default:
		return Stale
	}
}

// Bump derives the invalidation marker for v: major kept, minor incremented,
// patch dropped ("1.0.0" -> "1.1"). A version that is not dotted numbers gets
// a "-invalidated" suffix. The result never equals v.
func Bump(v string) string {
	parts := strings.Split(v, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return v + "-invalidated"
	}
	minor := 0
	if len(parts) > 1 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil || minor < 0 {
			return v + "-invalidated"
		}
	}
	bumped := fmt.Sprintf("%d.%d", major, minor+1)
	if bumped == v {
		return v + "-invalidated"
	}
	return bumped
}
