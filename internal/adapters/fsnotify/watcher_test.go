package fsnotify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// =============================================================================
// Store file watcher: detect writes from other processes
// Expectation: only the store file and its journals fire, within ~100ms.
// =============================================================================

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func startWatch(t *testing.T, storeFile string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher()
	require.NoError(t, err)

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(storeFile, func(path string) {
		select {
		case changed <- path:
		default:
		}
	}))

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsStoreWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := filepath.Join(dir, "storage.db")
	require.NoError(t, os.WriteFile(store, []byte("v1"), 0600))

	w, changed := startWatch(t, store)
	defer w.Stop()

	require.NoError(t, os.WriteFile(store, []byte("v2"), 0600))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for store write")
	assert.Equal(t, store, path)
}

func TestWatcher_DetectsStoreCreatedLater(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := filepath.Join(dir, "storage.sqlite")

	w, changed := startWatch(t, store)
	defer w.Stop()

	require.NoError(t, os.WriteFile(store+"-wal", []byte("wal"), 0600))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for journal write")
	assert.Equal(t, store+"-wal", path)
}

func TestWatcher_BurstDeliversLastWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := filepath.Join(dir, "storage.db")
	require.NoError(t, os.WriteFile(store, []byte("v1"), 0600))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	seen := make(chan string, 10)
	require.NoError(t, w.Watch(store, func(string) {
		data, _ := os.ReadFile(store)
		seen <- string(data)
	}))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(store, []byte("v2"), 0600))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(store, []byte("v3"), 0600))

	got, ok := waitForCallback(seen, 2*time.Second)
	require.True(t, ok, "expected callback after the burst")
	assert.Equal(t, "v3", got)

	_, extra := waitForCallback(seen, 300*time.Millisecond)
	assert.False(t, extra, "one burst, one callback")
}

func TestWatcher_SeparateWritesEachFire(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := filepath.Join(dir, "storage.db")
	require.NoError(t, os.WriteFile(store, []byte("v1"), 0600))

	w, changed := startWatch(t, store)
	defer w.Stop()

	require.NoError(t, os.WriteFile(store, []byte("v2"), 0600))
	_, ok := waitForCallback(changed, 2*time.Second)
	require.True(t, ok, "first write")

	time.Sleep(2 * debounceInterval)
	require.NoError(t, os.WriteFile(store, []byte("v3"), 0600))
	_, ok = waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "second write after a quiet gap")
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := filepath.Join(dir, "storage.db")

	w, changed := startWatch(t, store)
	defer w.Stop()

	os.WriteFile(filepath.Join(dir, "storage.db.bak"), []byte("x"), 0600)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600)

	_, ok := waitForCallback(changed, 300*time.Millisecond)
	assert.False(t, ok, "should not have received callback for unrelated files")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher()
	require.NoError(t, err)
	require.NoError(t, w.Watch(filepath.Join(t.TempDir(), "storage.db"), func(string) {}))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(filepath.Join(t.TempDir(), "nope", "storage.db"), func(string) {})
	assert.Error(t, err)
}

func TestMatchesStore(t *testing.T) {
	store := "/p/.storyboard/storage.db"
	assert.True(t, matchesStore(store, store))
	assert.True(t, matchesStore(store, store+"-wal"))
	assert.True(t, matchesStore(store, store+"-shm"))
	assert.True(t, matchesStore(store, store+"-journal"))
	assert.False(t, matchesStore(store, store+".bak"))
	assert.False(t, matchesStore(store, "/p/.storyboard/other.db"))
}
