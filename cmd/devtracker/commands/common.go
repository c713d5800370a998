package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dfid/devtracker-site/internal/build"
	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/metrics"
	"github.com/dfid/devtracker-site/internal/notify"
	"github.com/dfid/devtracker-site/internal/store"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site into the output directory"`
	Routes   RoutesCmd   `cmd:"" help:"List the proxy pages the store maps to templates"`
	Preview  PreviewCmd  `cmd:"" help:"Serve a development build and rebuild on source changes"`
	Daemon   DaemonCmd   `cmd:"" help:"Rebuild the site on a fixed interval"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Snapshot SnapshotCmd `cmd:"" help:"Copy the store's collections into a SQLite snapshot"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors -v first, then DEVTRACKER_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(config.LogLevelFromEnv()) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ExitCode reports err to the user and maps it to a process exit code.
func ExitCode(err error, verbose bool) int {
	return foundation.NewCLIErrorAdapter(verbose, slog.Default()).HandleError(err)
}

// loadConfig loads the root config and applies an output override.
func loadConfig(root *CLI, output string) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.Output.Directory = output
	}
	return cfg, nil
}

// newBuilder opens the configured store and assembles a builder around it.
// The returned cleanup closes the store and the notifier.
func newBuilder(ctx context.Context, cfg *config.Config, rec metrics.Recorder) (*build.Builder, func(), error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	b := build.NewBuilder(st).WithRecorder(rec)

	pub, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("Build notifications disabled", "error", err)
	}
	if pub != nil {
		b = b.WithNotifier(pub)
	}

	cleanup := func() {
		pub.Close()
		if cerr := st.Close(); cerr != nil {
			slog.Warn("Failed to close store", "error", cerr)
		}
	}
	return b, cleanup, nil
}
