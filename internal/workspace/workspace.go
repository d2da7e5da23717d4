package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docship/internal/logfields"
	"git.home.luguber.info/inful/docship/internal/version"
)

// Manager handles the build workspace: the project working copy and the
// ephemeral cache root holding per-version build intermediates.
type Manager struct {
	repoPath  string
	cacheBase string
	cacheRoot string
}

// NewManager creates a workspace manager for the given working copy.
// cacheBase defaults to the system temp directory.
func NewManager(repoPath, cacheBase string) *Manager {
	if cacheBase == "" {
		cacheBase = os.TempDir()
	}
	return &Manager{repoPath: repoPath, cacheBase: cacheBase}
}

// Create creates the timestamped cache root.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	cacheRoot := filepath.Join(m.cacheBase, fmt.Sprintf("docship-%s", timestamp))

	if err := os.MkdirAll(cacheRoot, 0o750); err != nil {
		return fmt.Errorf("failed to create cache root: %w", err)
	}

	m.cacheRoot = cacheRoot
	slog.Info("Created workspace cache root", logfields.Path(cacheRoot))
	return nil
}

// RepoPath returns the working copy location used as build input.
func (m *Manager) RepoPath() string { return m.repoPath }

// CacheDir creates (if needed) and returns the intermediate directory for one
// version. Each version gets its own directory; generator intermediates are
// not reentrant across differing source versions.
func (m *Manager) CacheDir(tag version.Tag) (string, error) {
	if m.cacheRoot == "" {
		return "", fmt.Errorf("workspace not created")
	}
	dir := filepath.Join(m.cacheRoot, "cache", tag.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create cache dir for %s: %w", tag, err)
	}
	return dir, nil
}

// Cleanup removes the cache root and everything under it. The working copy is
// never touched.
func (m *Manager) Cleanup() error {
	if m.cacheRoot == "" {
		return nil
	}
	if err := os.RemoveAll(m.cacheRoot); err != nil {
		return fmt.Errorf("failed to cleanup cache root: %w", err)
	}
	slog.Info("Cleaned up workspace cache root", logfields.Path(m.cacheRoot))
	m.cacheRoot = ""
	return nil
}
