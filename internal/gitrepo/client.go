package gitrepo

import (
	"fmt"
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/docship/internal/logfields"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Client handles Git operations against a single local working copy.
type Client struct {
	path string
	repo *git.Repository
}

// Open opens the repository at path.
func Open(path string) (*Client, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &Client{path: path, repo: repo}, nil
}

// Path returns the working copy location.
func (c *Client) Path() string { return c.path }

// ListTags returns all tag names in the repository, lexically sorted for a
// stable plan order.
func (c *Client) ListTags() ([]string, error) {
	iter, err := c.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	sort.Strings(tags)
	return tags, nil
}

// SwitchTag checks out the given tag, discarding all local modifications and
// removing untracked files so no state from a previously built version
// survives. Annotated and lightweight tags are both resolved.
func (c *Client) SwitchTag(tag string) error {
	hash, err := c.repo.ResolveRevision(plumbing.Revision(tag))
	if err != nil {
		return &CheckoutError{Ref: tag, Err: err}
	}

	wt, err := c.repo.Worktree()
	if err != nil {
		return &CheckoutError{Ref: tag, Err: err}
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return &CheckoutError{Ref: tag, Err: err}
	}
	// Drop leftovers not tracked at this tag (build residue from the prior version).
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return &CheckoutError{Ref: tag, Err: err}
	}

	slog.Debug("Checked out tag", logfields.Version(tag), logfields.Path(c.path))
	return nil
}

// SwitchBranch restores the working copy to the tip of the given branch. Local
// modifications to tracked files are discarded; untracked files are kept so a
// developer's in-progress work is not destroyed when building the unreleased state.
func (c *Client) SwitchBranch(branch string) error {
	wt, err := c.repo.Worktree()
	if err != nil {
		return &CheckoutError{Ref: branch, Err: err}
	}
	opts := &git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch), Force: true}
	if err := wt.Checkout(opts); err != nil {
		return &CheckoutError{Ref: branch, Err: err}
	}

	slog.Debug("Restored branch", logfields.Version(branch), logfields.Path(c.path))
	return nil
}
