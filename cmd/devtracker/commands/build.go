package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dfid/devtracker-site/internal/build"
	"github.com/dfid/devtracker-site/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides output.directory)" type:"path"`
	Development bool   `name:"development" short:"d" help:"Skip minification and cache busting"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, b.Output)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, cleanup, err := newBuilder(ctx, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer cleanup()

	mode := build.ModeBuild
	if b.Development {
		mode = build.ModeDevelopment
	}
	report, err := builder.Run(ctx, build.Request{Config: cfg, Mode: mode})
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())
	return nil
}
