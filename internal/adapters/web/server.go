package web

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corey/storyboard/internal/domain/storage"
	"go.uber.org/zap"
)

// StorageAdmin is the slice of the storage layer the panel drives.
// *storage.Local implements it.
type StorageAdmin interface {
	Snapshot() storage.Snapshot
	Guard() storage.GuardResult
	ClearAppStorage()
	InvalidateStorageCache()
	PendingMarker() string
}

// Options configures a Server.
type Options struct {
	// DevTools enables POST /api/storage/clear and /invalidate.
	DevTools bool

	// PortFilePath is where the bound port is written for discovery ("" = don't).
	PortFilePath string

	Logger *zap.Logger
}

// Server serves the diagnostic panel and JSON API over HTTP.
type Server struct {
	store    StorageAdmin
	opts     Options
	log      *zap.Logger
	listener net.Listener
	httpSrv  *http.Server
	port     int
	started  time.Time
	stopOnce sync.Once
}

// HealthResult is the /api/health payload.
type HealthResult struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	DevTools bool   `json:"devTools"`
}

// GuardInfo reports the guard run triggered by a page load.
type GuardInfo struct {
	Before    string   `json:"before"`
	Stored    string   `json:"stored"`
	Wiped     bool     `json:"wiped"`
	Preserved []string `json:"preserved"`
	Aborted   bool     `json:"aborted"`
}

// ActionResult is returned by the mutating endpoints.
type ActionResult struct {
	Snapshot storage.Snapshot `json:"snapshot"`
	Marker   string           `json:"marker,omitempty"`
	Reload   bool             `json:"reload"`
}

// NewServer creates an HTTP server for the panel.
func NewServer(store StorageAdmin, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, opts: opts, log: log, started: time.Now()}
}

// DefaultPort computes a project-specific port: 19000 + (hash(abs_path) % 1000).
func DefaultPort(projectRoot string) int {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	// Use first 4 bytes as uint32
	n := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return 19000 + int(n%1000)
}

// Handler returns the panel's routes. Cross-site browser requests to the
// mutating routes are rejected with 403, since any page the developer has
// open can reach localhost.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/storage", s.handleSnapshot)
	mux.HandleFunc("POST /api/storage/guard", s.handleGuard)
	mux.HandleFunc("POST /api/storage/clear", s.devOnly(s.handleClear))
	mux.HandleFunc("POST /api/storage/invalidate", s.devOnly(s.handleInvalidate))
	return http.NewCrossOriginProtection().Handler(mux)
}

// Start begins listening on the preferred port on localhost and writes the
// bound port to the port file.
func (s *Server) Start(preferredPort int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", preferredPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = time.Now()
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	if s.opts.PortFilePath != "" {
		if err := os.WriteFile(s.opts.PortFilePath, []byte(fmt.Sprintf("%d", s.port)), 0644); err != nil {
			s.log.Warn("write port file", zap.String("path", s.opts.PortFilePath), zap.Error(err))
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("panel server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.opts.PortFilePath != "" {
			os.Remove(s.opts.PortFilePath)
		}
	})
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the panel URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) devOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.DevTools {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "dev tools disabled"})
			return
		}
		next(w, r)
	}
}

// handleIndex serves the panel page. Each page load is a fresh "tab", so
// the version guard runs first, applying any pending invalidation.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.runGuard()
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeFileFS(w, r, sub, "index.html")
}

func (s *Server) runGuard() GuardInfo {
	res := s.store.Guard()
	if res.Wiped {
		s.log.Info("page load cleared storage", zap.Stringer("state", res.Before))
	}
	preserved := res.Preserved
	if preserved == nil {
		preserved = []string{}
	}
	return GuardInfo{
		Before:    res.Before.String(),
		Stored:    res.Stored,
		Wiped:     res.Wiped,
		Preserved: preserved,
		Aborted:   res.Aborted,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResult{
		Status:   "ok",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		DevTools: s.opts.DevTools,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleGuard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runGuard())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.store.ClearAppStorage()
	writeJSON(w, http.StatusOK, ActionResult{Snapshot: s.store.Snapshot()})
}

// handleInvalidate writes the pending marker and asks the page to reload;
// the reload's guard run performs the actual clear.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.store.InvalidateStorageCache()
	writeJSON(w, http.StatusOK, ActionResult{
		Snapshot: s.store.Snapshot(),
		Marker:   s.store.PendingMarker(),
		Reload:   true,
	})
}
