package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// Config represents the site builder configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Source  SourceConfig  `yaml:"source"`
	Assets  AssetsConfig  `yaml:"assets"`
	Build   BuildConfig   `yaml:"build"`
	Output  OutputConfig  `yaml:"output"`
	Preview PreviewConfig `yaml:"preview"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
}

// SiteConfig holds values exposed to every template as .site.
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// APIConfig points at the data API the rendered pages talk to from the browser.
type APIConfig struct {
	RootURL string `yaml:"root_url"`
}

// AccessURL returns the API access endpoint ({root}/access).
func (a APIConfig) AccessURL() string {
	return a.RootURL + "/access"
}

// StoreConfig selects and configures the document store driver.
type StoreConfig struct {
	Driver   StoreDriver   `yaml:"driver"`
	URI      string        `yaml:"uri,omitempty"`
	Database string        `yaml:"database,omitempty"`
	Path     string        `yaml:"path,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Retry    RetryConfig   `yaml:"retry,omitempty"`
}

// RetryConfig controls how often opening the store is retried.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// SourceConfig describes where templates, layouts and data files live.
type SourceConfig struct {
	Directory string   `yaml:"directory"`
	Layout    string   `yaml:"layout,omitempty"`
	Ignore    []string `yaml:"ignore,omitempty"`
}

// AssetsConfig names the asset directories, relative to the source directory.
type AssetsConfig struct {
	CSSDir    string `yaml:"css_dir"`
	JSDir     string `yaml:"js_dir"`
	ImagesDir string `yaml:"images_dir"`
}

// Dirs returns the configured asset directories in a stable order.
func (a AssetsConfig) Dirs() []string {
	return []string{a.CSSDir, a.JSDir, a.ImagesDir}
}

// BuildConfig toggles the optimizations applied in build mode.
type BuildConfig struct {
	MinifyCSS        bool `yaml:"minify_css"`
	MinifyJavascript bool `yaml:"minify_javascript"`
	CacheBuster      bool `yaml:"cache_buster"`
	// Smusher (lossless image compression) is accepted for compatibility and ignored.
	Smusher bool `yaml:"smusher,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// PreviewConfig configures the development server.
type PreviewConfig struct {
	Port       int  `yaml:"port"`
	LiveReload bool `yaml:"livereload"`
}

// DaemonConfig configures scheduled rebuilds.
type DaemonConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
}

// NotifyConfig configures build notifications. Empty NATSURL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath) // #nosec G304 -- path chosen by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundation.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("file", configPath).Build()
		}
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "read config file").
			WithContext("file", configPath).Build()
	}
	return Parse(data)
}

// Parse decodes YAML config content, then applies env overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "unmarshal config").Fatal().Build()
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
