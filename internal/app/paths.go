package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .storyboard/ project directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .storyboard/
	BoltDB string // .storyboard/storage.db
	SQLite string // .storyboard/storage.sqlite

	RunDir   string // .storyboard/run/
	PortFile string // .storyboard/run/http.port
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".storyboard")
	return &Paths{
		Root:   root,
		BoltDB: filepath.Join(root, "storage.db"),
		SQLite: filepath.Join(root, "storage.sqlite"),

		RunDir:   filepath.Join(root, "run"),
		PortFile: filepath.Join(root, "run", "http.port"),
	}
}

// StoreFile returns the database file for backend, or "" for in-memory.
func (p *Paths) StoreFile(backend string) string {
	switch backend {
	case "bbolt":
		return p.BoltDB
	case "sqlite":
		return p.SQLite
	default:
		return ""
	}
}

// EnsureDirs creates all subdirectories under .storyboard/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes runtime files written by the panel server.
// Called on clean shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PortFile)
}
