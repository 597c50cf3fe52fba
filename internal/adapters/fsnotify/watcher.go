// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches the directory holding a store file (editors and databases often
// replace files, which drops a watch on the file itself), filters events down
// to the store file and its journal siblings (-wal, -shm, -journal), and
// debounces bursts on the trailing edge: one transaction touches the file
// several times, and the callback fires once the burst is over.
package fsnotify

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/corey/storyboard/internal/ports"
)

var _ ports.Watcher = (*Watcher)(nil)

// debounceInterval is how long the store must stay quiet before a burst of
// writes is reported.
const debounceInterval = 50 * time.Millisecond

// journalSuffixes are sibling files a database writes alongside the main file.
var journalSuffixes = []string{"-wal", "-shm", "-journal"}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

// Watch starts monitoring the file at path.
// onChange is called with the path of the changed file (the store or a journal).
func (w *Watcher) Watch(path string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fw.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	// Events are collected until the store has been quiet for
	// debounceInterval, then each changed file is reported once. The last
	// write of a burst is always delivered.
	timer := time.NewTimer(debounceInterval)
	timer.Stop()
	pending := make(map[string]struct{})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer timer.Stop()
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if !matchesStore(absPath, event.Name) {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}
				pending[event.Name] = struct{}{}
				timer.Reset(debounceInterval)

			case <-timer.C:
				names := make([]string, 0, len(pending))
				for name := range pending {
					names = append(names, name)
				}
				clear(pending)
				sort.Strings(names)
				for _, name := range names {
					onChange(name)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed; fsnotify recovers automatically

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

// matchesStore reports whether name is the store file or one of its journals.
func matchesStore(store, name string) bool {
	if name == store {
		return true
	}
	if !strings.HasPrefix(name, store) {
		return false
	}
	suffix := strings.TrimPrefix(name, store)
	for _, s := range journalSuffixes {
		if suffix == s {
			return true
		}
	}
	return false
}
