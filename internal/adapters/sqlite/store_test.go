package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/corey/storyboard/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "storage.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestStore_SetGetRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("theme", "light"))
	require.NoError(t, store.Set("theme", "dark"))

	v, err := store.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, store.Remove("theme"))
	require.NoError(t, store.Remove("theme"))

	_, err = store.Get("theme")
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestStore_EmptyKeyAndValue(t *testing.T) {
	// SQLite has no non-empty key rule; both round-trip.
	store := openTestStore(t)
	require.NoError(t, store.Set("", ""))

	v, err := store.Get("")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestStore_ClearAndKeys(t *testing.T) {
	store := openTestStore(t)
	for _, k := range []string{"user", "scratch", "theme"} {
		require.NoError(t, store.Set(k, "v"))
	}

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"scratch", "theme", "user"}, keys)

	require.NoError(t, store.Clear())
	keys, err = store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.sqlite")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set("user", `{"id":1}`))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	v, err := s2.Get("user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, v)
}

func TestStore_Closed_Unavailable(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "storage.sqlite"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get("user")
	assert.True(t, errors.Is(err, ports.ErrBackendUnavailable))
	assert.True(t, errors.Is(store.Set("user", "x"), ports.ErrBackendUnavailable))
}

func TestOpenReadOnly_ReadsWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.sqlite")
	rw, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, rw.Set("theme", "dark"))
	require.NoError(t, rw.Close())

	before, err := os.Stat(path)
	require.NoError(t, err)

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)

	v, err := ro.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
	keys, err := ro.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys)

	assert.True(t, errors.Is(ro.Set("theme", "light"), ports.ErrBackendUnavailable))
	assert.True(t, errors.Is(ro.Clear(), ports.ErrBackendUnavailable))
	require.NoError(t, ro.Close())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())
}

func TestOpenReadOnly_MissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.sqlite")
	_, err := OpenReadOnly(path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "read-only open must not create the store")
}
