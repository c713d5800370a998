package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/metrics"
	"github.com/dfid/devtracker-site/internal/preview"
)

// PreviewCmd serves development builds with live reload.
type PreviewCmd struct {
	Output       string `short:"o" name:"output" default:"" help:"Output directory for the preview site (defaults to temp)." type:"path"`
	Port         int    `name:"port" help:"Preview server port (overrides preview.port)."`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable LiveReload SSE and script injection."`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root, "")
	if err != nil {
		return err
	}
	if p.Port > 0 {
		cfg.Preview.Port = p.Port
	}
	if p.NoLiveReload {
		cfg.Preview.LiveReload = false
	}

	// Preview never writes over the deployable build.
	outDir := p.Output
	if outDir == "" {
		tmp, err := os.MkdirTemp("", "devtracker-preview-*")
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryFileSystem, "create temp output").Build()
		}
		defer func() {
			if rerr := os.RemoveAll(tmp); rerr != nil {
				slog.Warn("Failed to remove preview output", "path", tmp, "error", rerr)
			}
		}()
		outDir = tmp
		slog.Info("Using temporary output directory for preview", "output", outDir)
	}
	cfg.Output.Directory = outDir
	cfg.Output.Clean = true

	reg := prom.NewRegistry()
	builder, cleanup, err := newBuilder(sigctx, cfg, metrics.NewPrometheusRecorder(reg))
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Preview at http://localhost%s\n", preview.Addr(cfg))
	return preview.NewServer(cfg, builder, reg).Run(sigctx, preview.Options{})
}
