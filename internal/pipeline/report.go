package pipeline

import (
	"time"

	"git.home.luguber.info/inful/docship/internal/version"
)

// Result classifies a version's terminal state.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
	ResultSkipped Result = "skipped"
)

// VersionStatus is one version's terminal state within a run. A skipped
// version was never attempted: the run aborted before reaching its first
// stage.
type VersionStatus struct {
	Tag    version.Tag
	Stage  StageName // stage that produced the terminal state
	Result Result
	Err    error
}

// Report is the user-visible account of a run: which versions succeeded,
// which failed, and at which stage.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Statuses   []VersionStatus
	Published  bool
	PublishErr error
	FatalErr   error // workspace or assembly failure that aborted the run
}

func (r *Report) record(tag version.Tag, stage StageName, result Result, err error) {
	r.Statuses = append(r.Statuses, VersionStatus{Tag: tag, Stage: stage, Result: result, Err: err})
}

// Failures returns the statuses of versions that did not succeed.
func (r *Report) Failures() []VersionStatus {
	var out []VersionStatus
	for _, s := range r.Statuses {
		if s.Result == ResultFailed {
			out = append(out, s)
		}
	}
	return out
}

// Skipped returns the tags the run never attempted.
func (r *Report) Skipped() []version.Tag {
	var out []version.Tag
	for _, s := range r.Statuses {
		if s.Result == ResultSkipped {
			out = append(out, s.Tag)
		}
	}
	return out
}

// Succeeded returns the tags whose outputs made it into the tree.
func (r *Report) Succeeded() []version.Tag {
	var out []version.Tag
	for _, s := range r.Statuses {
		if s.Result == ResultSuccess {
			out = append(out, s.Tag)
		}
	}
	return out
}

// Outcome summarizes the run: success, failed, or aborted.
func (r *Report) Outcome() string {
	if r.FatalErr != nil {
		return "aborted"
	}
	if len(r.Failures()) > 0 || r.PublishErr != nil {
		return "failed"
	}
	return "success"
}

// OK reports whether the run completed with every version built and, when
// publishing was requested, uploaded.
func (r *Report) OK() bool { return r.Outcome() == "success" }
