package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DFID_API_URL", "")
	cfg, err := Parse([]byte("site:\n  title: Tracker\n"))
	require.NoError(t, err)

	assert.Equal(t, "Tracker", cfg.Site.Title)
	assert.Equal(t, DefaultAPIRootURL, cfg.API.RootURL)
	assert.Equal(t, "http://localhost:9000/access", cfg.API.AccessURL())
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, DefaultDatabase, cfg.Store.Database)
	assert.Equal(t, []string{"stylesheets", "javascripts", "images"}, cfg.Assets.Dirs())
	assert.True(t, cfg.Build.MinifyCSS)
	assert.True(t, cfg.Build.MinifyJavascript)
	assert.True(t, cfg.Build.CacheBuster)
	assert.False(t, cfg.Build.Smusher)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Directory)
	assert.Equal(t, DefaultPreviewPort, cfg.Preview.Port)
}

func TestParse_FileValuesWinOverDefaults(t *testing.T) {
	t.Setenv("DFID_API_URL", "")
	yml := `
store:
  driver: SQLite
  path: snapshot.db
  timeout: 3s
build:
  minify_css: false
source:
  ignore: [about/draft.html]
`
	cfg, err := Parse([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "snapshot.db", cfg.Store.Path)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.Build.MinifyCSS)
	assert.True(t, cfg.Build.MinifyJavascript)
	assert.Equal(t, []string{"/about/draft.html"}, cfg.Source.Ignore)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DFID_API_URL", "https://api.example.org/")
	t.Setenv("DEVTRACKER_STORE_DRIVER", "fixtures")
	t.Setenv("DEVTRACKER_STORE_PATH", "testdata/store")
	t.Setenv("DEVTRACKER_OUTPUT_DIR", "public")

	cfg, err := Parse([]byte("api:\n  root_url: http://ignored\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.org", cfg.API.RootURL)
	assert.Equal(t, "https://api.example.org/access", cfg.API.AccessURL())
	assert.Equal(t, StoreDriverFixtures, cfg.Store.Driver)
	assert.Equal(t, "testdata/store", cfg.Store.Path)
	assert.Equal(t, "public", cfg.Output.Directory)
}

func TestParse_ExpandsEnvInBody(t *testing.T) {
	t.Setenv("DFID_API_URL", "")
	t.Setenv("MONGO_HOST", "db.internal")
	cfg, err := Parse([]byte("store:\n  uri: mongodb://${MONGO_HOST}:27017\n"))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Store.URI)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store.Driver = StoreDriverSQLite }},
		{"empty css dir", func(c *Config) { c.Assets.CSSDir = "" }},
		{"escaping js dir", func(c *Config) { c.Assets.JSDir = "../js" }},
		{"duplicate asset dirs", func(c *Config) { c.Assets.ImagesDir = "stylesheets" }},
		{"bad port", func(c *Config) { c.Preview.Port = 70000 }},
		{"unknown retry mode", func(c *Config) { c.Store.Retry.Mode = "jittered" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, foundation.HasCategory(err, foundation.CategoryConfig))
		})
	}
	require.NoError(t, Validate(Default()))
}

func TestParse_StoreRetryMode(t *testing.T) {
	t.Setenv("DFID_API_URL", "")
	cfg, err := Parse([]byte("store:\n  retry:\n    mode: Constant\n"))
	require.NoError(t, err)
	assert.Equal(t, RetryBackoffFixed, cfg.Store.Retry.Mode)

	cfg, err = Parse([]byte("site:\n  title: x\n"))
	require.NoError(t, err)
	assert.Equal(t, RetryBackoffLinear, cfg.Store.Retry.Mode)

	_, err = Parse([]byte("store:\n  retry:\n    mode: jittered\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.retry.mode")
}

func TestNormalizeRetryBackoff(t *testing.T) {
	assert.Equal(t, RetryBackoffExponential, NormalizeRetryBackoff(" EXP "))
	assert.Equal(t, RetryBackoffLinear, NormalizeRetryBackoff("linear"))
	assert.Equal(t, RetryBackoffMode(""), NormalizeRetryBackoff("random"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryConfig))
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	t.Setenv("DFID_API_URL", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://devtracker.example.org", cfg.Site.BaseURL)

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
