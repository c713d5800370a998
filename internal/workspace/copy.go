package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dfid/devtracker-site/internal/logfields"
)

// Seed copies the current output into the staging directory so files the
// build does not regenerate survive promotion. A missing output is not an error.
func (m *Manager) Seed() error {
	if m.stageDir == "" {
		return fmt.Errorf("workspace not created")
	}
	if _, err := os.Stat(m.outputDir); os.IsNotExist(err) {
		return nil
	}
	if err := CopyDir(m.outputDir, m.stageDir); err != nil {
		return fmt.Errorf("failed to seed staging directory: %w", err)
	}
	slog.Debug("Seeded staging workspace from previous output", logfields.Path(m.outputDir))
	return nil
}

// CopyDir recursively copies a directory tree.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src comes from walking a directory we own.
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	// #nosec G304 -- dst mirrors src under the staging directory.
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}
