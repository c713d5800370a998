package config

import (
	"strings"
	"time"
)

// Default values.
const (
	DefaultAPIRootURL   = "http://localhost:9000"
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabase     = "dfid"
	DefaultSourceDir    = "source"
	DefaultLayout       = "layouts/layout.html"
	DefaultOutputDir    = "build"
	DefaultPreviewPort  = 4567
	DefaultStoreTimeout = 10 * time.Second
	DefaultInterval     = time.Hour
	DefaultSubject      = "devtracker.site.built"
)

// Default returns a configuration populated with defaults. The YAML decoder
// writes over it, so keys absent from the file keep these values.
func Default() *Config {
	return &Config{
		Site: SiteConfig{Title: "Development Tracker"},
		API:  APIConfig{RootURL: DefaultAPIRootURL},
		Store: StoreConfig{
			Driver:   StoreDriverMongo,
			URI:      DefaultMongoURI,
			Database: DefaultDatabase,
			Timeout:  DefaultStoreTimeout,
			Retry: RetryConfig{
				Mode:       RetryBackoffLinear,
				Initial:    time.Second,
				Max:        10 * time.Second,
				MaxRetries: 2,
			},
		},
		Source: SourceConfig{
			Directory: DefaultSourceDir,
			Layout:    DefaultLayout,
		},
		Assets: AssetsConfig{
			CSSDir:    "stylesheets",
			JSDir:     "javascripts",
			ImagesDir: "images",
		},
		Build: BuildConfig{
			MinifyCSS:        true,
			MinifyJavascript: true,
			CacheBuster:      true,
		},
		Output:  OutputConfig{Directory: DefaultOutputDir, Clean: true},
		Preview: PreviewConfig{Port: DefaultPreviewPort, LiveReload: true},
		Daemon:  DaemonConfig{Interval: DefaultInterval},
		Notify:  NotifyConfig{Subject: DefaultSubject},
	}
}

// normalize canonicalizes user-provided values after decoding.
func normalize(cfg *Config) {
	if d := NormalizeStoreDriver(string(cfg.Store.Driver)); d != "" {
		cfg.Store.Driver = d
	}
	if m := NormalizeRetryBackoff(string(cfg.Store.Retry.Mode)); m != "" {
		cfg.Store.Retry.Mode = m
	}
	cfg.API.RootURL = strings.TrimRight(cfg.API.RootURL, "/")
	if cfg.API.RootURL == "" {
		cfg.API.RootURL = DefaultAPIRootURL
	}
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = DefaultSourceDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Store.Timeout <= 0 {
		cfg.Store.Timeout = DefaultStoreTimeout
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	for i, p := range cfg.Source.Ignore {
		cfg.Source.Ignore[i] = "/" + strings.TrimLeft(strings.TrimSpace(p), "/")
	}
}
