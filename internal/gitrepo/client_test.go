package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func sig() *object.Signature {
	return &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig()})
	require.NoError(t, err)
	return hash
}

// initTaggedRepo builds a repo with two tagged releases and an extra commit on
// the default branch (the unreleased state).
func initTaggedRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	h1 := commitFile(t, repo, dir, "content.txt", "one", "release one")
	_, err = repo.CreateTag("v1", h1, nil) // lightweight
	require.NoError(t, err)

	h2 := commitFile(t, repo, dir, "content.txt", "two", "release two")
	_, err = repo.CreateTag("v2", h2, &git.CreateTagOptions{Message: "v2", Tagger: sig()}) // annotated
	require.NoError(t, err)

	commitFile(t, repo, dir, "content.txt", "unreleased", "work in progress")
	return dir, repo
}

func TestListTags(t *testing.T) {
	dir, _ := initTaggedRepo(t)
	client, err := Open(dir)
	require.NoError(t, err)

	tags, err := client.ListTags()
	require.NoError(t, err)
	require.Equal(t, []string{"v1", "v2"}, tags)
}

func TestListTagsEmptyRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	client, err := Open(dir)
	require.NoError(t, err)

	tags, err := client.ListTags()
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestOpenMissingRepo(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}

func TestSwitchTagRestoresTaggedContent(t *testing.T) {
	dir, _ := initTaggedRepo(t)
	client, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, client.SwitchTag("v1"))
	data, err := os.ReadFile(filepath.Join(dir, "content.txt"))
	require.NoError(t, err)
	require.Equal(t, "one", string(data))

	// Annotated tags resolve too.
	require.NoError(t, client.SwitchTag("v2"))
	data, err = os.ReadFile(filepath.Join(dir, "content.txt"))
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

func TestSwitchTagCleansResidue(t *testing.T) {
	dir, _ := initTaggedRepo(t)
	client, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, client.SwitchTag("v1"))

	// Simulate build residue left behind while v1 was checked out.
	residue := filepath.Join(dir, "generated")
	require.NoError(t, os.MkdirAll(residue, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(residue, "stale.html"), []byte("stale"), 0o600))

	require.NoError(t, client.SwitchTag("v2"))
	_, err = os.Stat(residue)
	require.True(t, os.IsNotExist(err), "residue from the previous version must be removed")
}

func TestSwitchTagUnknownRefFails(t *testing.T) {
	dir, _ := initTaggedRepo(t)
	client, err := Open(dir)
	require.NoError(t, err)

	err = client.SwitchTag("v9")
	require.Error(t, err)
	var ce *CheckoutError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "v9", ce.Ref)
}

func TestSwitchBranchRestoresTip(t *testing.T) {
	dir, _ := initTaggedRepo(t)
	client, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, client.SwitchTag("v1"))
	require.NoError(t, client.SwitchBranch("master"))

	data, err := os.ReadFile(filepath.Join(dir, "content.txt"))
	require.NoError(t, err)
	require.Equal(t, "unreleased", string(data))
}

func TestSwitchBranchKeepsUntracked(t *testing.T) {
	dir, _ := initTaggedRepo(t)
	client, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, client.SwitchTag("v2"))

	// A developer's in-progress file must survive the restore.
	scratch := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(scratch, []byte("wip"), 0o600))

	require.NoError(t, client.SwitchBranch("master"))
	_, err = os.Stat(scratch)
	require.NoError(t, err)
}
