// Package app wires together the configured backend, the storage layer and
// the diagnostic panel. It provides lifecycle management: open, serve, close.
package app

import (
	"fmt"
	"io"

	"github.com/corey/storyboard/internal/adapters/bbolt"
	"github.com/corey/storyboard/internal/adapters/memory"
	"github.com/corey/storyboard/internal/adapters/sqlite"
	"github.com/corey/storyboard/internal/adapters/web"
	"github.com/corey/storyboard/internal/config"
	"github.com/corey/storyboard/internal/domain/storage"
	"github.com/corey/storyboard/internal/ports"
	"go.uber.org/zap"
)

// Options controls how Open prepares the store.
type Options struct {
	// SkipGuard leaves the version marker untouched, e.g. to inspect a
	// pending invalidation before the next start applies it.
	SkipGuard bool

	// ReadOnly opens the backend for observation only. Implies SkipGuard
	// and disables the quota (nothing is written).
	ReadOnly bool

	Logger *zap.Logger
}

// App is the top-level container wiring all components together.
type App struct {
	Config  config.Config
	Paths   *Paths
	Storage *storage.Local

	// Guard is the start-up guard result; nil when the guard was skipped.
	Guard *storage.GuardResult

	WebServer *web.Server

	backend ports.KeyValueStore
	closer  io.Closer
	log     *zap.Logger
}

// Open creates the .storyboard/ directory, opens the configured backend and
// runs the version guard once, as a browser tab does on load.
func Open(cfg config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	paths := NewPaths(cfg.Dir)
	if !opts.ReadOnly {
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("create %s: %w", paths.Root, err)
		}
	}

	backend, closer, err := openBackend(cfg.Backend, paths, opts.ReadOnly)
	if err != nil {
		return nil, err
	}
	if !opts.ReadOnly {
		backend = storage.WithQuota(backend, cfg.QuotaKB)
	}

	a := &App{
		Config:  cfg,
		Paths:   paths,
		backend: backend,
		closer:  closer,
		log:     log,
		Storage: storage.New(backend,
			storage.WithVersion(cfg.StorageVersion),
			storage.WithLogger(log.Named("storage"))),
	}

	if !opts.SkipGuard && !opts.ReadOnly {
		res := a.Storage.Guard()
		a.Guard = &res
	}
	return a, nil
}

func openBackend(name string, paths *Paths, readOnly bool) (ports.KeyValueStore, io.Closer, error) {
	switch name {
	case config.BackendBolt:
		open := bbolt.NewStore
		if readOnly {
			open = bbolt.OpenReadOnly
		}
		s, err := open(paths.BoltDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return s, s, nil
	case config.BackendSQLite:
		open := sqlite.Open
		if readOnly {
			open = sqlite.OpenReadOnly
		}
		s, err := open(paths.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return s, s, nil
	case config.BackendMemory:
		return memory.NewStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}

// StartPanel starts the diagnostic HTTP panel. Port 0 in the config derives
// a stable per-project port.
func (a *App) StartPanel() error {
	port := a.Config.HTTPPort
	if port == 0 {
		port = web.DefaultPort(a.Config.Dir)
	}
	a.WebServer = web.NewServer(a.Storage, web.Options{
		DevTools:     a.Config.DevTools,
		PortFilePath: a.Paths.PortFile,
		Logger:       a.log.Named("panel"),
	})
	if err := a.WebServer.Start(port); err != nil {
		a.WebServer = nil
		return err
	}
	a.log.Info("diagnostic panel listening", zap.String("url", a.WebServer.URL()))
	return nil
}

// Close stops the panel (if running) and releases the backend.
func (a *App) Close() error {
	if a.WebServer != nil {
		a.WebServer.Stop()
		a.Paths.CleanEphemeral()
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
