// Package assemble accumulates per-version build outputs into the directory
// tree that gets published: <root>/<tag> for book output and <root>/api/<tag>
// for the API reference, with master alongside the tagged versions.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docship/internal/version"
)

// Entry is one version's pair of output directories.
type Entry struct {
	Tag     version.Tag
	BookDir string
	APIDir  string
}

// Tree is the output tree for one pipeline run. It grows monotonically; a
// version is recorded at most once.
type Tree struct {
	root    string
	entries map[version.Tag]Entry
	order   []version.Tag
}

// NewTree creates an empty output tree rooted at root.
func NewTree(root string) *Tree {
	return &Tree{root: root, entries: make(map[version.Tag]Entry)}
}

// Root returns the tree's root directory.
func (t *Tree) Root() string { return t.root }

// BookDir returns the book output directory for a version.
func (t *Tree) BookDir(tag version.Tag) string {
	return filepath.Join(t.root, tag.String())
}

// APIDir returns the API reference output directory for a version.
func (t *Tree) APIDir(tag version.Tag) string {
	return filepath.Join(t.root, "api", tag.String())
}

// Prepare creates the root directory. When clean is set, any previous content
// is removed first so consecutive runs produce structurally identical trees.
func (t *Tree) Prepare(clean bool) error {
	if clean {
		if err := os.RemoveAll(t.root); err != nil {
			return fmt.Errorf("failed to clean output root: %w", err)
		}
	}
	if err := os.MkdirAll(t.root, 0o750); err != nil {
		return fmt.Errorf("failed to create output root: %w", err)
	}
	return nil
}

// Record adds a version's outputs after both its builders have completed.
// Recording the same version twice is an internal invariant violation, not a
// transient condition.
func (t *Tree) Record(tag version.Tag) (Entry, error) {
	if _, exists := t.entries[tag]; exists {
		return Entry{}, &CollisionError{Tag: tag}
	}
	entry := Entry{Tag: tag, BookDir: t.BookDir(tag), APIDir: t.APIDir(tag)}
	t.entries[tag] = entry
	t.order = append(t.order, tag)
	return entry, nil
}

// Has reports whether a version's outputs have been recorded.
func (t *Tree) Has(tag version.Tag) bool {
	_, ok := t.entries[tag]
	return ok
}

// Entries returns the recorded entries in record order.
func (t *Tree) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, tag := range t.order {
		out = append(out, t.entries[tag])
	}
	return out
}

// Len returns the number of recorded versions.
func (t *Tree) Len() int { return len(t.order) }
