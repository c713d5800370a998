package render

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// DiscoverOptions selects regular pages from the source tree.
type DiscoverOptions struct {
	SourceDir string
	// SkipDirs are source-relative directories that never hold pages
	// (asset directories, layouts, data).
	SkipDirs []string
	// Ignored reports site paths that must not be rendered on their own,
	// such as proxy templates.
	Ignored func(sitePath string) bool
}

// Discover lists regular pages as sorted site paths ("/about/index.html").
func Discover(opts DiscoverOptions) ([]string, error) {
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[strings.Trim(path.Clean(filepath.ToSlash(d)), "/")] = true
	}

	var pages []string
	err := filepath.WalkDir(opts.SourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(opts.SourceDir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (skip[rel] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(rel) != ".html" || strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		sitePath := "/" + rel
		if opts.Ignored != nil && opts.Ignored(sitePath) {
			return nil
		}
		pages = append(pages, sitePath)
		return nil
	})
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "discover pages").
			WithContext("path", opts.SourceDir).
			Build()
	}
	sort.Strings(pages)
	return pages, nil
}
