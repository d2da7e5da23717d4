// Package history persists pipeline run reports to a local SQLite database
// so past runs can be inspected with the history command.
package history

import (
	"context"
	"time"
)

// VersionResult is one version's terminal state within a run.
type VersionResult struct {
	Version string
	Stage   string // stage that produced the result: switch|book|api|assemble
	Result  string // success|failed|skipped
	Error   string
}

// Run is a persisted pipeline run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string // success|failed|aborted
	Published  bool
	Versions   []VersionResult
}

// Store defines the interface for persisting and retrieving runs.
type Store interface {
	// SaveRun persists a completed run with its per-version results.
	SaveRun(ctx context.Context, run Run) error

	// ListRuns retrieves the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store and releases resources.
	Close() error
}
