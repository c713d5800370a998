package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dfid/devtracker-site/internal/metrics"
	"github.com/dfid/devtracker-site/internal/sitemap"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Ignored bool `help:"Also list template paths that are not rendered directly"`
}

func (r *RoutesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, "")
	if err != nil {
		return err
	}
	ctx := context.Background()
	builder, cleanup, err := newBuilder(ctx, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer cleanup()

	sm, err := builder.Routes(ctx, cfg)
	if err != nil {
		return err
	}
	return writeRoutes(os.Stdout, sm, r.Ignored)
}

func writeRoutes(out io.Writer, sm *sitemap.Sitemap, withIgnored bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range sm.Resources() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", p.Path, p.Template)
	}
	if withIgnored {
		for _, p := range sm.Ignored() {
			_, _ = fmt.Fprintf(tw, "%s\t(ignored)\n", p)
		}
	}
	return tw.Flush()
}
