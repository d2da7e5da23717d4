package workspace

import (
	"log/slog"

	"git.home.luguber.info/inful/docship/internal/gitrepo"
	"git.home.luguber.info/inful/docship/internal/logfields"
	"git.home.luguber.info/inful/docship/internal/version"
)

// Switcher materializes a version's committed content into the working copy.
// At most one version occupies the working copy at any instant; every switch
// fully replaces the prior version's state.
type Switcher struct {
	client        *gitrepo.Client
	defaultBranch string
}

// NewSwitcher creates a switcher over the given repository client.
func NewSwitcher(client *gitrepo.Client, defaultBranch string) *Switcher {
	return &Switcher{client: client, defaultBranch: defaultBranch}
}

// Switch checks out the given version. Master restores the tip of the default
// branch; any other tag is a forced clean checkout. Errors are fatal to the
// run: after a failed switch the working copy content cannot be trusted.
func (s *Switcher) Switch(tag version.Tag) error {
	slog.Info("Switching workspace", logfields.Version(tag.String()))
	if tag.IsMaster() {
		return s.client.SwitchBranch(s.defaultBranch)
	}
	return s.client.SwitchTag(tag.String())
}
