package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// DataDir is the source subdirectory holding site data files.
const DataDir = "data"

// LoadData reads every .yml, .yaml and .json file directly under dir into a
// map keyed by base name without extension. A missing dir yields an empty map.
func LoadData(dir string) (map[string]any, error) {
	data := map[string]any{}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "read data directory").
			WithContext("path", dir).
			Build()
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yml" && ext != ".yaml" && ext != ".json") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		// #nosec G304 -- p is a direct child of the data directory.
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read data file %s: %w", p, err)
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, foundation.ValidationError(fmt.Sprintf("invalid data file %s", e.Name())).
				WithCause(err).
				WithContext("path", p).
				Build()
		}
		key := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, dup := data[key]; dup {
			return nil, foundation.ValidationError(fmt.Sprintf("data key %q defined by more than one file", key)).
				WithContext("path", p).
				Build()
		}
		data[key] = v
	}
	return data, nil
}
