package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_CreateAndCleanup(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build")
	mgr := NewManager(out)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.GetPath()
	if filepath.Dir(wsPath) != filepath.Dir(out) {
		t.Errorf("Expected staging beside output, got: %s", wsPath)
	}
	if !strings.HasPrefix(filepath.Base(wsPath), ".build-staging-") {
		t.Errorf("Expected timestamped staging directory, got: %s", wsPath)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Staging directory still exists after cleanup: %s", wsPath)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("Output directory should not exist without Promote")
	}
}

func TestManager_PromoteReplacesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build")
	if err := os.MkdirAll(out, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "stale.html"), []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(out)
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(mgr.GetPath(), "index.html"), []byte("new"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Promote(); err != nil {
		t.Fatalf("Promote() failed: %v", err)
	}

	if got, err := os.ReadFile(filepath.Join(out, "index.html")); err != nil || string(got) != "new" {
		t.Errorf("Expected promoted index.html, got %q (%v)", got, err)
	}
	if _, err := os.Stat(filepath.Join(out, "stale.html")); !os.IsNotExist(err) {
		t.Errorf("Stale file survived promotion")
	}
	if _, err := os.Stat(out + ".previous"); !os.IsNotExist(err) {
		t.Errorf("Previous output was not removed")
	}
	if mgr.GetPath() != "" {
		t.Errorf("Staging path should be cleared after Promote")
	}
	if err := mgr.Cleanup(); err != nil {
		t.Errorf("Cleanup() after Promote should be a no-op: %v", err)
	}
}

func TestManager_PromoteWithoutCreate(t *testing.T) {
	if err := NewManager(t.TempDir()).Promote(); err == nil {
		t.Fatal("expected error promoting without a staging directory")
	}
}

func TestManager_SeedCarriesPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "build")
	if err := os.MkdirAll(filepath.Join(out, "legacy"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "legacy", "old.html"), []byte("kept"), 0o600); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(out)
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := mgr.Seed(); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	if err := mgr.Promote(); err != nil {
		t.Fatalf("Promote() failed: %v", err)
	}

	if got, err := os.ReadFile(filepath.Join(out, "legacy", "old.html")); err != nil || string(got) != "kept" {
		t.Errorf("Expected seeded file to survive, got %q (%v)", got, err)
	}
}

func TestManager_SeedWithoutOutput(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "build"))
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	defer func() { _ = mgr.Cleanup() }()
	if err := mgr.Seed(); err != nil {
		t.Errorf("Seed() without previous output should succeed: %v", err)
	}
}
