package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	fsw "github.com/corey/storyboard/internal/adapters/fsnotify"
	"github.com/corey/storyboard/internal/app"
	"github.com/corey/storyboard/internal/domain/storage"
	"github.com/corey/storyboard/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// quietWindow is the minimum gap between two reads of the store. Changes that
// arrive inside it are folded into one read when it closes.
const quietWindow = 250 * time.Millisecond

var cacheWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a snapshot whenever another process changes storage",
	Long:  "Watches the store file and reopens it read-only after each change. Never runs the version guard.",
	RunE:  runCacheWatch,
}

func runCacheWatch(cmd *cobra.Command, args []string) error {
	paths := app.NewPaths(cfg.Dir)
	file := paths.StoreFile(cfg.Backend)
	if file == "" {
		return fmt.Errorf("backend %q keeps nothing on disk to watch", cfg.Backend)
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	f := &follower{
		read:  readSnapshot,
		quiet: quietWindow,
		log:   logger,
		print: func(snap storage.Snapshot) {
			fmt.Printf("%s%s%s\n", colorGray, time.Now().Format(time.TimeOnly), colorReset)
			fmt.Print(formatSnapshot(snap, cfg.Backend, file))
		},
	}
	defer f.stop()

	w, err := openWatcher()
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Watch(file, func(string) { f.refresh() }); err != nil {
		return err
	}

	f.refresh()
	fmt.Printf("⚡ watching %s (ctrl-c to stop)\n", file)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

// follower prints the store each time its content changes.
type follower struct {
	read  func() (storage.Snapshot, string, error)
	print func(storage.Snapshot)
	quiet time.Duration
	log   *zap.Logger

	mu       sync.Mutex
	digest   string
	printed  bool
	quietTil time.Time
	timer    *time.Timer
	stopped  bool
}

// refresh reads the store and prints it if the digest moved. A call inside
// the quiet window schedules a single read for when the window closes.
func (f *follower) refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}

	if wait := time.Until(f.quietTil); wait > 0 {
		if f.timer == nil {
			f.timer = time.AfterFunc(wait, f.deferred)
		}
		return
	}

	snap, digest, err := f.read()
	f.quietTil = time.Now().Add(f.quiet)
	if err != nil {
		f.log.Warn("watch: read failed", zap.Error(err))
		return
	}
	if f.printed && digest == f.digest {
		return
	}
	f.digest, f.printed = digest, true
	f.print(snap)
}

func (f *follower) deferred() {
	f.mu.Lock()
	f.timer = nil
	f.mu.Unlock()
	f.refresh()
}

func (f *follower) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func openWatcher() (ports.Watcher, error) {
	return fsw.NewWatcher()
}

// readSnapshot opens the store read-only for one snapshot and content digest.
func readSnapshot() (storage.Snapshot, string, error) {
	a, err := app.Open(cfg, app.Options{ReadOnly: true, Logger: logger})
	if err != nil {
		if isDBLockError(err) {
			return storage.Snapshot{}, "", fmt.Errorf("%s", diagnoseDBLock(cfg.Dir))
		}
		return storage.Snapshot{}, "", err
	}
	defer a.Close()
	return a.Storage.Snapshot(), a.Storage.Digest(), nil
}
