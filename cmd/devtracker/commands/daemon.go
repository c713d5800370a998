package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/dfid/devtracker-site/internal/daemon"
	"github.com/dfid/devtracker-site/internal/metrics"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval    time.Duration `help:"Rebuild interval (overrides daemon.interval)"`
	MetricsAddr string        `name:"metrics-addr" help:"Listen address for /metrics, /healthz and /status (overrides daemon.metrics_addr)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, "")
	if err != nil {
		return err
	}
	if d.Interval > 0 {
		cfg.Daemon.Interval = d.Interval
	}
	if d.MetricsAddr != "" {
		cfg.Daemon.MetricsAddr = d.MetricsAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	builder, cleanup, err := newBuilder(ctx, cfg, metrics.NewPrometheusRecorder(reg))
	if err != nil {
		return err
	}
	defer cleanup()

	dm, err := daemon.New(cfg, builder, reg)
	if err != nil {
		return err
	}
	return dm.Run(ctx)
}
