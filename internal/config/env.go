package config

import (
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// envOverrides lists the environment variables that take precedence over the config file.
type envOverrides struct {
	APIRootURL  string `env:"DFID_API_URL"`
	StoreDriver string `env:"DEVTRACKER_STORE_DRIVER"`
	StoreURI    string `env:"DEVTRACKER_STORE_URI"`
	StorePath   string `env:"DEVTRACKER_STORE_PATH"`
	OutputDir   string `env:"DEVTRACKER_OUTPUT_DIR"`
}

// loadEnvFile loads .env then .env.local if present. Variables already set in
// the process environment are not overwritten.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			slog.Debug("Loaded environment file", "path", envPath)
		}
	}
}

func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return foundation.WrapError(err, foundation.CategoryConfig, "parse environment overrides").Build()
	}
	if o.APIRootURL != "" {
		cfg.API.RootURL = o.APIRootURL
	}
	if o.StoreDriver != "" {
		cfg.Store.Driver = StoreDriver(o.StoreDriver)
	}
	if o.StoreURI != "" {
		cfg.Store.URI = o.StoreURI
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	if o.OutputDir != "" {
		cfg.Output.Directory = o.OutputDir
	}
	return nil
}

// LogLevelFromEnv reports the DEVTRACKER_LOG_LEVEL value, lowercased.
func LogLevelFromEnv() string {
	var o struct {
		Level string `env:"DEVTRACKER_LOG_LEVEL"`
	}
	_ = env.Parse(&o)
	return strings.ToLower(strings.TrimSpace(o.Level))
}
