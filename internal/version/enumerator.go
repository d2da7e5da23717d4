package version

import (
	"log/slog"

	"git.home.luguber.info/inful/docship/internal/logfields"
)

// TagLister supplies the release tags known to version control.
type TagLister interface {
	ListTags() ([]string, error)
}

// Enumerator produces the frozen sequence of tags for a pipeline run.
type Enumerator struct {
	lister TagLister
}

// NewEnumerator creates an enumerator over the given tag source.
func NewEnumerator(lister TagLister) *Enumerator {
	return &Enumerator{lister: lister}
}

// Enumerate returns all release tags with Master appended last. Master builds
// after the tagged versions so a failure on a historical tag under
// collect-and-continue still leaves the current state published.
//
// An unreachable tag source or an untagged repository is not an error: the
// run degrades to a master-only plan.
func (e *Enumerator) Enumerate() []Tag {
	raw, err := e.lister.ListTags()
	if err != nil {
		slog.Warn("Tag enumeration failed, building master only", logfields.Error(err))
		return []Tag{Master}
	}

	tags := make([]Tag, 0, len(raw)+1)
	for _, name := range raw {
		if Tag(name) == Master {
			// A literal tag named master would collide with the pseudo-tag.
			slog.Warn("Ignoring release tag shadowing the master pseudo-tag", logfields.Version(name))
			continue
		}
		tags = append(tags, Tag(name))
	}
	return append(tags, Master)
}
