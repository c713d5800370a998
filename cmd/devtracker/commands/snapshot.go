package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dfid/devtracker-site/internal/store"
)

// SnapshotCmd copies every collection the site reads into a SQLite file,
// which the sqlite store driver can then build from offline.
type SnapshotCmd struct {
	Path string `arg:"" help:"SQLite database file to write" type:"path"`
}

func (s *SnapshotCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, "")
	if err != nil {
		return err
	}
	ctx := context.Background()

	src, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := store.OpenSQLite(s.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			slog.Warn("Failed to close snapshot", "error", cerr)
		}
	}()

	counts, err := store.Snapshot(ctx, src, dst, store.Collections)
	if err != nil {
		return err
	}
	for _, name := range store.Collections {
		fmt.Printf("%-16s %d\n", name, counts[name])
	}
	return nil
}
