package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.home.luguber.info/inful/docship/internal/version"
)

func TestManager_CreateAndCleanup(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager("/srv/project", tempBase)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if mgr.RepoPath() != "/srv/project" {
		t.Errorf("RepoPath() = %s", mgr.RepoPath())
	}

	cacheDir, err := mgr.CacheDir(version.Tag("v1"))
	if err != nil {
		t.Fatalf("CacheDir() failed: %v", err)
	}
	if !strings.Contains(cacheDir, filepath.Join("cache", "v1")) {
		t.Errorf("expected version-scoped cache dir, got: %s", cacheDir)
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Errorf("cache dir does not exist: %s", cacheDir)
	}

	// Distinct versions get distinct directories.
	otherDir, err := mgr.CacheDir(version.Master)
	if err != nil {
		t.Fatalf("CacheDir(master) failed: %v", err)
	}
	if otherDir == cacheDir {
		t.Errorf("cache dirs must not be shared across versions")
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Errorf("cache dir still exists after cleanup: %s", cacheDir)
	}
}

func TestManager_CacheDirBeforeCreate(t *testing.T) {
	mgr := NewManager("/srv/project", t.TempDir())
	if _, err := mgr.CacheDir(version.Tag("v1")); err == nil {
		t.Fatal("expected error before Create()")
	}
}

func TestManager_CleanupWithoutCreate(t *testing.T) {
	mgr := NewManager("/srv/project", t.TempDir())
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() on unused manager failed: %v", err)
	}
}
