package pipeline

import (
	"context"

	"git.home.luguber.info/inful/docship/internal/version"
)

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names.
const (
	StageSwitch   StageName = "switch"
	StageBook     StageName = "book"
	StageAPI      StageName = "api"
	StageAssemble StageName = "assemble"
	StagePublish  StageName = "publish"
)

// Switcher materializes one version into the shared workspace.
type Switcher interface {
	Switch(tag version.Tag) error
}

// BookBuilder compiles the narrative book for the currently materialized version.
type BookBuilder interface {
	Build(ctx context.Context, source, dest string) error
}

// APIDocBuilder generates the API reference for the currently materialized
// version, keeping intermediates in the version-scoped cache directory.
type APIDocBuilder interface {
	Build(ctx context.Context, source, dest, cache string) error
}

// Workspace supplies the build input location and per-version cache directories.
type Workspace interface {
	RepoPath() string
	CacheDir(tag version.Tag) (string, error)
}
