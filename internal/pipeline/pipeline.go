package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/docship/internal/assemble"
	"git.home.luguber.info/inful/docship/internal/config"
	"git.home.luguber.info/inful/docship/internal/logfields"
	"git.home.luguber.info/inful/docship/internal/metrics"
	"git.home.luguber.info/inful/docship/internal/publish"
	"git.home.luguber.info/inful/docship/internal/version"
	"github.com/google/uuid"
)

// Enumerator freezes the sequence of versions a run operates on.
type Enumerator interface {
	Enumerate() []version.Tag
}

// Options wires the pipeline's collaborators and policy.
type Options struct {
	Enumerator Enumerator
	Switcher   Switcher
	Book       BookBuilder
	API        APIDocBuilder
	Workspace  Workspace
	Tree       *assemble.Tree
	Publisher  publish.Publisher
	Recorder   metrics.Recorder

	Policy      config.FailurePolicy
	Destination string
	CleanOutput bool
	SkipPublish bool
	Only        []version.Tag // restricts the plan when non-empty
}

// Pipeline runs the full build-and-publish sequence.
type Pipeline struct {
	opts Options
}

// New creates a pipeline. A nil Recorder falls back to NoopRecorder.
func New(opts Options) *Pipeline {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Policy == "" {
		opts.Policy = config.FailureFailFast
	}
	return &Pipeline{opts: opts}
}

// Plan returns the frozen sequence of versions this pipeline would build.
func (p *Pipeline) Plan() []version.Tag {
	tags := p.opts.Enumerator.Enumerate()
	if len(p.opts.Only) == 0 {
		return tags
	}
	wanted := make(map[version.Tag]bool, len(p.opts.Only))
	for _, tag := range p.opts.Only {
		wanted[tag] = true
	}
	var out []version.Tag
	for _, tag := range tags {
		if wanted[tag] {
			out = append(out, tag)
			delete(wanted, tag)
		}
	}
	for tag := range wanted {
		slog.Warn("Requested version is not in the plan", logfields.Version(tag.String()))
	}
	return out
}

// Run executes the pipeline: switch, build and assemble each version in plan
// order, then publish once. The returned report always reflects every
// version's terminal state.
func (p *Pipeline) Run(ctx context.Context) *Report {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	defer func() {
		report.FinishedAt = time.Now()
		p.opts.Recorder.ObservePipelineDuration(report.FinishedAt.Sub(report.StartedAt))
		p.opts.Recorder.IncRunOutcome(report.Outcome())
	}()

	plan := p.Plan()
	p.opts.Recorder.SetVersionCount(len(plan))
	slog.Info("Starting documentation pipeline",
		logfields.RunID(report.RunID),
		slog.Int("versions", len(plan)),
		slog.String("policy", string(p.opts.Policy)))

	if err := p.opts.Tree.Prepare(p.opts.CleanOutput); err != nil {
		report.FatalErr = err
		return report
	}

	for i, tag := range plan {
		if err := ctx.Err(); err != nil {
			report.FatalErr = err
			p.skipRemaining(plan[i:], report)
			slog.Error("Pipeline canceled", logfields.RunID(report.RunID), logfields.Error(err))
			return report
		}
		if abort := p.runVersion(ctx, tag, report); abort {
			p.skipRemaining(plan[i+1:], report)
			return report
		}
	}

	p.publishTree(ctx, report)

	slog.Info("Pipeline finished",
		logfields.RunID(report.RunID),
		slog.String("outcome", report.Outcome()),
		slog.Int("succeeded", len(report.Succeeded())),
		slog.Int("failed", len(report.Failures())))
	return report
}

// runVersion takes one version through switch, book, api and assemble.
// It returns true when the run must abort.
func (p *Pipeline) runVersion(ctx context.Context, tag version.Tag, report *Report) (abort bool) {
	if err := p.opts.Switcher.Switch(tag); err != nil {
		we := &WorkspaceError{Version: tag, Err: err}
		report.record(tag, StageSwitch, ResultFailed, we)
		report.FatalErr = we
		p.opts.Recorder.IncStageResult(string(StageSwitch), metrics.ResultFailed)
		slog.Error("Workspace switch failed, aborting run", logfields.Version(tag.String()), logfields.Error(err))
		return true
	}
	p.opts.Recorder.IncStageResult(string(StageSwitch), metrics.ResultSuccess)

	source := p.opts.Workspace.RepoPath()

	if err := p.runStage(ctx, StageBook, tag, func(ctx context.Context) error {
		return p.opts.Book.Build(ctx, source, p.opts.Tree.BookDir(tag))
	}); err != nil {
		return p.handleBuildFailure(tag, StageBook, err, report)
	}

	if err := p.runStage(ctx, StageAPI, tag, func(ctx context.Context) error {
		cache, err := p.opts.Workspace.CacheDir(tag)
		if err != nil {
			return err
		}
		return p.opts.API.Build(ctx, source, p.opts.Tree.APIDir(tag), cache)
	}); err != nil {
		return p.handleBuildFailure(tag, StageAPI, err, report)
	}

	if _, err := p.opts.Tree.Record(tag); err != nil {
		// A collision is a pipeline bug, never a per-version condition.
		report.record(tag, StageAssemble, ResultFailed, err)
		report.FatalErr = err
		p.opts.Recorder.IncStageResult(string(StageAssemble), metrics.ResultFailed)
		slog.Error("Output assembly invariant violated, aborting run", logfields.Version(tag.String()), logfields.Error(err))
		return true
	}
	p.opts.Recorder.IncStageResult(string(StageAssemble), metrics.ResultSuccess)

	report.record(tag, StageAssemble, ResultSuccess, nil)
	slog.Info("Version built", logfields.Version(tag.String()))
	return false
}

func (p *Pipeline) runStage(ctx context.Context, stage StageName, tag version.Tag, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	p.opts.Recorder.ObserveStageDuration(string(stage), duration)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
	}
	p.opts.Recorder.IncStageResult(string(stage), result)
	slog.Debug("Stage finished",
		logfields.Version(tag.String()),
		logfields.Stage(string(stage)),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return err
}

func (p *Pipeline) handleBuildFailure(tag version.Tag, stage StageName, err error, report *Report) (abort bool) {
	be := &BuildError{Version: tag, Stage: stage, Err: err}
	report.record(tag, stage, ResultFailed, be)
	p.discardOutputs(tag)

	if p.opts.Policy == config.FailureContinue {
		slog.Warn("Version build failed, continuing with remaining versions",
			logfields.Version(tag.String()), logfields.Stage(string(stage)), logfields.Error(err))
		return false
	}

	report.FatalErr = be
	slog.Error("Version build failed, aborting run",
		logfields.Version(tag.String()), logfields.Stage(string(stage)), logfields.Error(err))
	return true
}

// discardOutputs removes a failed version's partially written output
// directories. The tree never records the version, but the external tool may
// have written into its destination before dying, and the upload command ships
// everything under the output root.
func (p *Pipeline) discardOutputs(tag version.Tag) {
	for _, dir := range []string{p.opts.Tree.BookDir(tag), p.opts.Tree.APIDir(tag)} {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Failed to remove partial output", logfields.Path(dir), logfields.Error(err))
		}
	}
}

// skipRemaining marks versions the run never attempted after an abort.
func (p *Pipeline) skipRemaining(tags []version.Tag, report *Report) {
	for _, tag := range tags {
		report.record(tag, StageSwitch, ResultSkipped, nil)
		p.opts.Recorder.IncStageResult(string(StageSwitch), metrics.ResultSkipped)
	}
}

func (p *Pipeline) publishTree(ctx context.Context, report *Report) {
	if p.opts.SkipPublish {
		slog.Info("Publish skipped by request", logfields.RunID(report.RunID))
		return
	}
	succeeded := report.Succeeded()
	if len(succeeded) == 0 {
		slog.Warn("No version built successfully, nothing to publish", logfields.RunID(report.RunID))
		return
	}

	manifest := publish.Manifest{
		Root:        p.opts.Tree.Root(),
		Destination: p.opts.Destination,
		Versions:    succeeded,
	}
	start := time.Now()
	err := p.opts.Publisher.Publish(ctx, manifest)
	p.opts.Recorder.ObserveStageDuration(string(StagePublish), time.Since(start))
	if err != nil {
		p.opts.Recorder.IncStageResult(string(StagePublish), metrics.ResultFailed)
		var pe *publish.Error
		if !errors.As(err, &pe) {
			pe = &publish.Error{Attempts: 1, Err: err}
		}
		report.PublishErr = pe
		slog.Error("Publish failed; artifacts were built but not uploaded", logfields.Error(pe))
		return
	}
	p.opts.Recorder.IncStageResult(string(StagePublish), metrics.ResultSuccess)
	report.Published = true
}
