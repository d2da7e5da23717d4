package assemble

import (
	"fmt"

	"git.home.luguber.info/inful/docship/internal/version"
)

// CollisionError indicates a version's outputs were recorded twice. This is a
// bug in the pipeline, not a recoverable condition.
type CollisionError struct {
	Tag version.Tag
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("output for version %s recorded twice", e.Tag)
}
