package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// Init writes an example configuration file to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundation.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("file", configPath).Build()
	}

	example := Default()
	example.Site.BaseURL = "https://devtracker.example.org"
	example.Source.Ignore = []string{"/about/draft.html"}
	example.Notify = NotifyConfig{}

	data, err := yaml.Marshal(example)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryInternal, "marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "write config file").
			WithContext("file", configPath).Build()
	}
	return nil
}
