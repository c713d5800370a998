package config

import (
	"fmt"
	"path/filepath"
	"strings"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// Validate checks the configuration for values the builder cannot work with.
func Validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case StoreDriverMongo:
		if cfg.Store.URI == "" || cfg.Store.Database == "" {
			return invalid("store.uri and store.database are required for the mongo driver")
		}
	case StoreDriverSQLite, StoreDriverFixtures:
		if cfg.Store.Path == "" {
			return invalid(fmt.Sprintf("store.path is required for the %s driver", cfg.Store.Driver))
		}
	default:
		return invalid(fmt.Sprintf("unsupported store.driver %q (mongo|sqlite|fixtures)", cfg.Store.Driver))
	}

	seen := map[string]string{}
	for name, dir := range map[string]string{
		"assets.css_dir":    cfg.Assets.CSSDir,
		"assets.js_dir":     cfg.Assets.JSDir,
		"assets.images_dir": cfg.Assets.ImagesDir,
	} {
		if dir == "" {
			return invalid(name + " must not be empty")
		}
		clean := filepath.Clean(dir)
		if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
			return invalid(name + " must be relative to the source directory")
		}
		if other, dup := seen[clean]; dup {
			return invalid(fmt.Sprintf("%s and %s point at the same directory", other, name))
		}
		seen[clean] = name
	}

	if cfg.Preview.Port <= 0 || cfg.Preview.Port > 65535 {
		return invalid(fmt.Sprintf("preview.port %d out of range", cfg.Preview.Port))
	}
	if cfg.Daemon.Interval < 0 {
		return invalid("daemon.interval must not be negative")
	}
	if !validRetryBackoff(cfg.Store.Retry.Mode) {
		return invalid(fmt.Sprintf("unsupported store.retry.mode %q (fixed|linear|exponential)", cfg.Store.Retry.Mode))
	}
	if cfg.Store.Retry.MaxRetries < 0 {
		return invalid("store.retry.max_retries must not be negative")
	}
	return nil
}

func invalid(msg string) error {
	return foundation.ConfigError(msg).Build()
}
