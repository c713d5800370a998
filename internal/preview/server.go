package preview

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/dfid/devtracker-site/internal/build"
	"github.com/dfid/devtracker-site/internal/config"
	"github.com/dfid/devtracker-site/internal/logfields"
	"github.com/dfid/devtracker-site/internal/metrics"
)

// Rebuilder runs one build. *build.Builder satisfies it.
type Rebuilder interface {
	Run(ctx context.Context, req build.Request) (*build.Report, error)
}

// buildStatus tracks the latest build for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}

// Server serves the development output directory.
type Server struct {
	cfg      *config.Config
	builder  Rebuilder
	hub      *LiveReloadHub
	status   *buildStatus
	registry *prom.Registry
	files    http.Handler
}

// NewServer creates a server for cfg.Output.Directory. A nil registry
// disables the /metrics endpoint.
func NewServer(cfg *config.Config, builder Rebuilder, reg *prom.Registry) *Server {
	return &Server{
		cfg:      cfg,
		builder:  builder,
		hub:      NewLiveReloadHub(),
		status:   &buildStatus{},
		registry: reg,
		files:    http.FileServer(http.Dir(cfg.Output.Directory)),
	}
}

// Hub exposes the livereload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Rebuild runs a development build. Failures keep the last good output in
// place and are reported to browsers as an error hash.
func (s *Server) Rebuild(ctx context.Context) {
	report, err := s.builder.Run(ctx, build.Request{Config: s.cfg, Mode: build.ModeDevelopment})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Preview rebuild failed; serving last good output", logfields.Error(err))
		s.status.setError(err)
		s.hub.Broadcast("error:" + strconv.FormatInt(time.Now().UnixNano(), 10))
		return
	}
	s.status.setSuccess()
	slog.Info("Preview rebuilt", logfields.BuildID(report.BuildID), logfields.Duration(report.Duration))
	s.hub.Broadcast(report.BuildID)
}

// Handler routes /livereload, /livereload.js, /metrics and the site itself.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.cfg.Preview.LiveReload {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(LiveReloadScript))
		})
	}
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.HandleFunc("/", s.serveSite)
	return mux
}

func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	if err, good := s.status.get(); err != nil && !good {
		s.serveBuildError(w, err)
		return
	}

	full := filepath.Join(s.cfg.Output.Directory, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if fi, err := os.Stat(full); err == nil && fi.IsDir() {
		full = filepath.Join(full, "index.html")
	}
	if !s.cfg.Preview.LiveReload || filepath.Ext(full) != ".html" {
		s.files.ServeHTTP(w, r)
		return
	}

	// #nosec G304 -- full is the cleaned request path under the output directory.
	page, err := os.ReadFile(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(InjectScript(page))
}

func (s *Server) serveBuildError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	body := fmt.Sprintf("<html><body><h1>Build failed</h1><pre>%s</pre></body></html>",
		html.EscapeString(err.Error()))
	if s.cfg.Preview.LiveReload {
		body = string(InjectScript([]byte(body)))
	}
	_, _ = w.Write([]byte(body))
}

// Addr is the listen address for the configured port.
func Addr(cfg *config.Config) string {
	return ":" + strconv.Itoa(cfg.Preview.Port)
}
