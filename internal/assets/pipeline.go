package assets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/tdewolff/minify/v2"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/logfields"
	"github.com/dfid/devtracker-site/internal/render"
)

// Options controls one asset pass.
type Options struct {
	SourceDir string
	// Dirs are source-relative asset directories.
	Dirs      []string
	MinifyCSS bool
	MinifyJS  bool
	CacheBust bool
}

// Result summarizes a Copy.
type Result struct {
	Written  int
	Minified int
	Manifest *Manifest
}

// Copy writes every file under the asset directories to outDir, preserving
// relative paths. Missing asset directories are skipped.
func Copy(opts Options, outDir string) (*Result, error) {
	m := newMinifier()
	res := &Result{Manifest: NewManifest()}
	for _, dir := range opts.Dirs {
		root := filepath.Join(opts.SourceDir, filepath.FromSlash(dir))
		if _, err := os.Stat(root); os.IsNotExist(err) {
			slog.Debug("Asset directory missing", logfields.Path(root))
			continue
		}
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(opts.SourceDir, p)
			if err != nil {
				return err
			}
			sitePath := "/" + filepath.ToSlash(rel)
			return copyAsset(m, opts, res, p, sitePath, outDir)
		})
		if err != nil {
			if _, ok := foundation.AsClassified(err); ok {
				return nil, err
			}
			return nil, foundation.WrapError(err, foundation.CategoryAssets, "copy assets").
				WithContext("path", root).
				Build()
		}
	}
	return res, nil
}

func copyAsset(m *minify.M, opts Options, res *Result, src, sitePath, outDir string) error {
	// #nosec G304 -- src comes from walking the configured asset directory.
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read asset: %w", err)
	}

	ext := path.Ext(sitePath)
	if (ext == ".css" && opts.MinifyCSS) || (ext == ".js" && opts.MinifyJS) {
		minified, minErr := m.Bytes(mediaTypes[ext], content)
		if minErr != nil {
			return foundation.AssetError(fmt.Sprintf("minify %s", sitePath)).
				WithCause(minErr).
				WithContext("path", sitePath).
				Build()
		}
		content = minified
		res.Minified++
	}

	if _, err := render.WriteFile(outDir, sitePath, content); err != nil {
		return err
	}
	if opts.CacheBust {
		res.Manifest.Add(sitePath, content)
	}
	res.Written++
	return nil
}
