package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dfid/devtracker-site/internal/logfields"
)

// Manager handles the staging directory for one build.
type Manager struct {
	outputDir string
	stageDir  string
}

// NewManager creates a manager that will promote into outputDir.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: filepath.Clean(outputDir)}
}

// Create makes a fresh timestamped staging directory beside the output.
func (m *Manager) Create() error {
	parent := filepath.Dir(m.outputDir)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return fmt.Errorf("failed to create output parent directory: %w", err)
	}

	prefix := fmt.Sprintf(".%s-staging-%s-", filepath.Base(m.outputDir), time.Now().Format("20060102-150405"))
	dir, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	// #nosec G302 -- the staged tree becomes the published site.
	if err := os.Chmod(dir, 0o755); err != nil {
		return fmt.Errorf("failed to set staging permissions: %w", err)
	}

	m.stageDir = dir
	slog.Debug("Created staging workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the staging directory.
func (m *Manager) GetPath() string {
	return m.stageDir
}

// OutputDir returns the directory Promote writes to.
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// Promote swaps the staging directory into the output location. The old
// output is moved aside first and removed only after the swap succeeded.
func (m *Manager) Promote() error {
	if m.stageDir == "" {
		return fmt.Errorf("workspace not created")
	}

	previous := ""
	if _, err := os.Stat(m.outputDir); err == nil {
		previous = m.outputDir + ".previous"
		if err := os.RemoveAll(previous); err != nil {
			return fmt.Errorf("failed to clear previous output: %w", err)
		}
		if err := os.Rename(m.outputDir, previous); err != nil {
			return fmt.Errorf("failed to move current output aside: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to inspect output directory: %w", err)
	}

	if err := os.Rename(m.stageDir, m.outputDir); err != nil {
		if previous != "" {
			_ = os.Rename(previous, m.outputDir)
		}
		return fmt.Errorf("failed to promote staging directory: %w", err)
	}
	m.stageDir = ""

	if previous != "" {
		if err := os.RemoveAll(previous); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(previous), logfields.Error(err))
		}
	}
	slog.Info("Promoted build output", logfields.Path(m.outputDir))
	return nil
}

// Cleanup removes an unpromoted staging directory. It is a no-op after Promote.
func (m *Manager) Cleanup() error {
	if m.stageDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.stageDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up staging workspace", logfields.Path(m.stageDir))
	m.stageDir = ""
	return nil
}
