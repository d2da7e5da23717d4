// Package version defines version tags and the enumerator that freezes the
// set of versions a pipeline run operates on.
package version

// Tag identifies a released version of the documented project, or the
// reserved Master value denoting the current unreleased state.
type Tag string

// Master is the pseudo-tag for the unreleased state. It is always part of a
// build plan, exactly once, whether or not the repository has tags.
const Master Tag = "master"

func (t Tag) String() string { return string(t) }

// IsMaster reports whether the tag is the reserved unreleased pseudo-tag.
func (t Tag) IsMaster() bool { return t == Master }
