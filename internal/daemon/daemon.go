package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/dfid/devtracker-site/internal/build"
	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/logfields"
)

// Rebuilder runs one build. *build.Builder satisfies it.
type Rebuilder interface {
	Run(ctx context.Context, req build.Request) (*build.Report, error)
}

// Daemon owns the scheduler and the status of the latest build.
type Daemon struct {
	cfg       *config.Config
	builder   Rebuilder
	registry  *prom.Registry
	startTime time.Time

	mu         sync.RWMutex
	lastReport *build.Report
	lastError  error
	lastRun    time.Time
	builds     int
	failures   int
}

// New validates the schedule and returns a daemon. reg may be nil.
func New(cfg *config.Config, builder Rebuilder, reg *prom.Registry) (*Daemon, error) {
	if cfg.Daemon.Interval <= 0 {
		return nil, foundation.DaemonError("daemon interval must be positive").
			WithContext("interval", cfg.Daemon.Interval.String()).
			UserAction().
			Build()
	}
	return &Daemon{cfg: cfg, builder: builder, registry: reg, startTime: time.Now()}, nil
}

// Run builds immediately, then on every interval, until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	sched, err := NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.SchedulePeriodicBuild(ctx, d.cfg.Daemon.Interval, d.RunBuild); err != nil {
		_ = sched.Stop()
		return err
	}
	sched.Start()

	var httpServer *http.Server
	serveErr := make(chan error, 1)
	if addr := d.cfg.Daemon.MetricsAddr; addr != "" {
		httpServer = &http.Server{Addr: addr, Handler: d.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
		slog.Info("Daemon status listener started", "addr", addr)
	}
	slog.Info("Daemon started", "interval", d.cfg.Daemon.Interval.String())

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = foundation.DaemonError("status listener failed").WithCause(err).Build()
	}

	slog.Info("Stopping daemon")
	if err := sched.Stop(); err != nil {
		slog.Warn("Scheduler shutdown error", logfields.Error(err))
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Status listener shutdown error", logfields.Error(err))
		}
	}
	return runErr
}

// RunBuild executes one build and records its outcome. Failures are logged,
// never returned: the next tick tries again.
func (d *Daemon) RunBuild(ctx context.Context) {
	report, err := d.builder.Run(ctx, build.Request{Config: d.cfg, Mode: build.ModeBuild})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastRun = time.Now()
	d.builds++
	d.lastError = err
	if report != nil {
		d.lastReport = report
	}
	if err != nil {
		d.failures++
		slog.Error("Scheduled build failed", logfields.Error(err))
		return
	}
	slog.Info("Scheduled build complete", logfields.BuildID(report.BuildID), logfields.Duration(report.Duration))
}

// Status is the JSON body served at /status.
type Status struct {
	Builds     int           `json:"builds"`
	Failures   int           `json:"failures"`
	LastRun    time.Time     `json:"last_run"`
	LastError  string        `json:"last_error,omitempty"`
	LastReport *build.Report `json:"last_report,omitempty"`
}

// Status returns a snapshot of the build history.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Status{Builds: d.builds, Failures: d.failures, LastRun: d.lastRun, LastReport: d.lastReport}
	if d.lastError != nil {
		s.LastError = d.lastError.Error()
	}
	return s
}
