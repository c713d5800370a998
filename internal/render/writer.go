package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes content to the site-relative path under outDir, creating
// parent directories. Existing files are replaced.
//
// The page path must stay inside outDir: "/../x" and absolute filesystem
// paths are rejected.
func WriteFile(outDir, pagePath string, content []byte) (string, error) {
	full, err := OutputPath(outDir, pagePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	// #nosec G306 -- published site files must be world readable.
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return full, nil
}

// OutputPath maps a site-relative page path to a file under outDir.
func OutputPath(outDir, pagePath string) (string, error) {
	if outDir == "" {
		return "", errors.New("output directory is required")
	}
	rel := strings.TrimPrefix(filepath.ToSlash(pagePath), "/")
	if rel == "" {
		return "", errors.New("output path is required")
	}
	cleanRel := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path escapes output directory: %s", pagePath)
	}
	full := filepath.Join(outDir, cleanRel)
	if r, err := filepath.Rel(outDir, full); err != nil || strings.HasPrefix(r, "..") {
		return "", fmt.Errorf("output path escapes output directory: %s", pagePath)
	}
	return full, nil
}
