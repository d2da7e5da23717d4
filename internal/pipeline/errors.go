package pipeline

import (
	"fmt"

	"git.home.luguber.info/inful/docship/internal/version"
)

// WorkspaceError is a failed workspace switch. The working copy's state is
// indeterminate afterwards, so the run aborts and nothing is published.
type WorkspaceError struct {
	Version version.Tag
	Err     error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("workspace switch to %s failed: %v", e.Version, e.Err)
}

func (e *WorkspaceError) Unwrap() error { return e.Err }

// BuildError is a per-version builder failure with the offending version and
// stage attached. Propagation is policy-controlled.
type BuildError struct {
	Version version.Tag
	Stage   StageName
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s for %s failed: %v", e.Stage, e.Version, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
