package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/logfields"
	"github.com/dfid/devtracker-site/internal/retry"
)

// Open returns the store selected by cfg.Driver. Connecting to MongoDB is
// retried according to cfg.Retry.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverMongo:
		var st *MongoStore
		err := retry.FromConfig(cfg.Retry).Do(ctx, "connect mongo", func(ctx context.Context) error {
			var err error
			st, err = OpenMongo(ctx, cfg.URI, cfg.Database, cfg.Timeout)
			return err
		})
		if err != nil {
			return nil, err
		}
		slog.Info("Connected to document store", slog.String("driver", string(cfg.Driver)), slog.String("database", cfg.Database))
		return st, nil
	case config.StoreDriverSQLite:
		st, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("Opened snapshot store", slog.String("driver", string(cfg.Driver)), logfields.Path(cfg.Path))
		return st, nil
	case config.StoreDriverFixtures:
		st, err := OpenFixtures(cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded fixture store", slog.String("driver", string(cfg.Driver)), logfields.Path(cfg.Path))
		return st, nil
	default:
		return nil, foundation.ConfigError(fmt.Sprintf("unsupported store driver %q", cfg.Driver)).Build()
	}
}

// Snapshot copies collections from src into dst, replacing what dst held.
// It returns the number of documents copied per collection.
func Snapshot(ctx context.Context, src Store, dst *SQLiteStore, collections []string) (map[string]int, error) {
	counts := make(map[string]int, len(collections))
	for _, name := range collections {
		docs, err := src.Find(ctx, name, All)
		if err != nil {
			return counts, err
		}
		if err := dst.ReplaceCollection(ctx, name, docs); err != nil {
			return counts, err
		}
		counts[name] = len(docs)
		slog.Info("Snapshot collection copied", logfields.Collection(name), logfields.Count(len(docs)))
	}
	return counts, nil
}
