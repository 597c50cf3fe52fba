package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/corey/storyboard/internal/adapters/memory"
	"github.com/corey/storyboard/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Counts(t *testing.T) {
	store := memory.NewStoreWith(map[string]string{
		VersionKey: "1.0.0",
		"user":     strings.Repeat("u", 1000),
		"theme":    "dark",
	})
	snap := New(store).Snapshot()

	assert.Equal(t, "1.0.0", snap.Version)
	assert.Equal(t, Versioned.String(), snap.State)
	assert.Equal(t, 3, snap.KeyCount)
	assert.Equal(t, []string{VersionKey, "theme", "user"}, snap.Keys)

	units := len(VersionKey) + 5 + 4 + 1000 + 5 + 4
	assert.InDelta(t, float64(units)/1024, snap.ApproxSizeKB, 0.005)
}

func TestSnapshot_NotSet(t *testing.T) {
	snap := New(memory.NewStoreWith(map[string]string{"scratch": "x"})).Snapshot()
	assert.Equal(t, NotSet, snap.Version)
	assert.Equal(t, Unversioned.String(), snap.State)
	assert.Equal(t, 1, snap.KeyCount)
}

func TestSnapshot_EmptyStore(t *testing.T) {
	snap := New(memory.NewStore()).Snapshot()
	assert.Equal(t, 0, snap.KeyCount)
	assert.NotNil(t, snap.Keys, "keys render as [] not null")
	assert.Equal(t, 0.0, snap.ApproxSizeKB)
}

func TestSnapshot_KeysFailure(t *testing.T) {
	store := memory.NewStoreWith(map[string]string{VersionKey: "1.0.0"})
	store.FailOn(memory.OpKeys, nil)
	l, logs := newObserved(store)

	snap := l.Snapshot()
	assert.Equal(t, NotSet, snap.Version)
	assert.Equal(t, 0, snap.KeyCount)
	assert.Equal(t, 1, logs.Len())
}

func TestDigest_TracksValues(t *testing.T) {
	store := memory.NewStoreWith(map[string]string{VersionKey: "1.0.0", "theme": "dark"})
	l := New(store)

	d1 := l.Digest()
	s1 := l.Snapshot()
	require.NotEmpty(t, d1)
	assert.Equal(t, d1, l.Digest(), "stable for unchanged content")

	l.SetItem("theme", "lite")
	assert.Equal(t, s1, l.Snapshot(), "same keys and rounded size")
	assert.NotEqual(t, d1, l.Digest())
}

func TestDigest_KeyValueBoundaries(t *testing.T) {
	a := New(memory.NewStoreWith(map[string]string{"ab": "c"}))
	b := New(memory.NewStoreWith(map[string]string{"a": "bc"}))
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestDigest_KeysFailure(t *testing.T) {
	store := memory.NewStore()
	store.FailOn(memory.OpKeys, nil)
	l, logs := newObserved(store)

	assert.Equal(t, "", l.Digest())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "digest", logs.All()[0].ContextMap()["op"])
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 0, utf16Len(""))
	assert.Equal(t, 5, utf16Len("hello"))
	assert.Equal(t, 1, utf16Len("é"), "two UTF-8 bytes, one code unit")
	assert.Equal(t, 2, utf16Len("\U0001F3AC"), "astral rune is a surrogate pair")
	assert.Equal(t, 1, utf16Len("\xff"), "invalid byte counts as U+FFFD")
}

func TestQuota_RejectsOversizedWrite(t *testing.T) {
	inner := memory.NewStore()
	q := WithQuota(inner, 1)

	require.NoError(t, q.Set("a", strings.Repeat("x", 1000)))

	err := q.Set("b", strings.Repeat("y", 100))
	assert.True(t, errors.Is(err, ports.ErrQuotaExceeded))
	assert.NotContains(t, inner.Dump(), "b")

	// Replacing an existing entry only counts the new value.
	require.NoError(t, q.Set("a", strings.Repeat("z", 1023)))
}

func TestQuota_Disabled(t *testing.T) {
	inner := memory.NewStore()
	assert.Same(t, inner, WithQuota(inner, 0).(*memory.Store))
}

func TestQuota_ThroughLocal_IsSilent(t *testing.T) {
	store := memory.NewStore()
	l, logs := newObserved(WithQuota(store, 1))

	l.SetItem("doc", strings.Repeat("x", 2048))
	_, ok := l.GetItem("doc")
	assert.False(t, ok)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "quota")
}
