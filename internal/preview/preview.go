package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dfid/devtracker-site/internal/logfields"
)

// Options tunes Run. Zero values use the defaults.
type Options struct {
	Addr     string
	Debounce time.Duration
}

// Run builds once, serves the output and rebuilds on source changes until
// ctx is canceled.
func (s *Server) Run(ctx context.Context, opts Options) error {
	if opts.Addr == "" {
		opts.Addr = Addr(s.cfg)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	s.Rebuild(ctx)

	watcher, err := newWatcher(s.cfg.Source.Directory)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	worker := newRebuildWorker(s.Rebuild)
	go worker.run(workerCtx)
	deb := newDebouncer(opts.Debounce, worker.request)
	defer deb.stop()

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("Preview server listening", "addr", opts.Addr, logfields.Path(s.cfg.Output.Directory))

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(httpServer)
		case err, ok := <-serveErr:
			if ok && err != nil {
				return fmt.Errorf("preview server: %w", err)
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return s.shutdown(httpServer)
			}
			if handleFileEvent(watcher, ev) {
				deb.trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return s.shutdown(httpServer)
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) shutdown(httpServer *http.Server) error {
	slog.Info("Shutting down preview server")
	s.hub.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}
