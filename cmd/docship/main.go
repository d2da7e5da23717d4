package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docship/internal/assemble"
	"git.home.luguber.info/inful/docship/internal/builder"
	"git.home.luguber.info/inful/docship/internal/config"
	"git.home.luguber.info/inful/docship/internal/gitrepo"
	"git.home.luguber.info/inful/docship/internal/history"
	"git.home.luguber.info/inful/docship/internal/logfields"
	"git.home.luguber.info/inful/docship/internal/metrics"
	"git.home.luguber.info/inful/docship/internal/pipeline"
	"git.home.luguber.info/inful/docship/internal/publish"
	"git.home.luguber.info/inful/docship/internal/retry"
	"git.home.luguber.info/inful/docship/internal/version"
	"git.home.luguber.info/inful/docship/internal/workspace"
	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docship.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output        string   `short:"o" help:"Output directory override"`
		Only          []string `help:"Build only the named versions (master included only when listed)"`
		SkipPublish   bool     `help:"Build and assemble without uploading"`
		MetricsListen string   `help:"Expose Prometheus metrics on this address for the duration of the run"`
	} `cmd:"" help:"Build every version of the documentation and publish the result"`

	Versions struct{} `cmd:"" help:"List the versions a build would include, in build order"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	History struct {
		Limit int `short:"n" help:"Number of runs to show" default:"20"`
	} `cmd:"" help:"Show recent pipeline runs"`
}

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "build":
		cfg := mustLoadConfig()
		setupLogging(cfg)
		report, err := runBuild(cfg)
		if err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
		if !report.OK() {
			os.Exit(1)
		}
	case "versions":
		cfg := mustLoadConfig()
		setupLogging(cfg)
		if err := runVersions(cfg); err != nil {
			slog.Error("Version listing failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		setupLogging(nil)
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		slog.Info("Configuration written", logfields.Path(CLI.Config))
	case "history":
		cfg := mustLoadConfig()
		setupLogging(cfg)
		if err := runHistory(cfg, CLI.History.Limit); err != nil {
			slog.Error("History listing failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	level := config.LogLevelInfo
	format := config.LogFormatText
	if cfg != nil {
		level = config.NormalizeLogLevel(cfg.Logging.Level)
		format = config.NormalizeLogFormat(cfg.Logging.Format)
	}
	if CLI.Verbose {
		level = config.LogLevelDebug
	}

	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runBuild(cfg *config.Config) (*pipeline.Report, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := gitrepo.Open(cfg.Repo.Path)
	if err != nil {
		return nil, err
	}

	wsManager := workspace.NewManager(cfg.Repo.Path, "")
	if err := wsManager.Create(); err != nil {
		return nil, err
	}
	defer func() {
		if err := wsManager.Cleanup(); err != nil {
			slog.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}()

	switcher := workspace.NewSwitcher(client, cfg.Repo.DefaultBranch)
	// Leave the working copy on its default branch no matter where the run
	// stopped.
	defer func() {
		if err := switcher.Switch(version.Master); err != nil {
			slog.Warn("Failed to restore working copy", logfields.Error(err))
		}
	}()

	policy, err := retry.FromConfig(cfg.Retry)
	if err != nil {
		return nil, err
	}

	recorder, stopMetrics := setupMetrics(CLI.Build.MetricsListen)
	defer stopMetrics()

	outputDir := cfg.Output.Directory
	if CLI.Build.Output != "" {
		outputDir = CLI.Build.Output
	}

	only := make([]version.Tag, 0, len(CLI.Build.Only))
	for _, raw := range CLI.Build.Only {
		only = append(only, version.Tag(raw))
	}

	p := pipeline.New(pipeline.Options{
		Enumerator: version.NewEnumerator(client),
		Switcher:   switcher,
		Book:       builder.NewBook(cfg.Book.Command),
		API:        builder.NewAPIDoc(cfg.APIDoc.Command, cfg.APIDoc.CacheEnv, cfg.APIDoc.CopyFrom),
		Workspace:  wsManager,
		Tree:       assemble.NewTree(outputDir),
		Publisher: publish.NewRetrying(
			publish.NewCommandPublisher(cfg.Publish.Command, cfg.Publish.CredentialEnv),
			policy, recorder),
		Recorder:    recorder,
		Policy:      cfg.Failure,
		Destination: cfg.Publish.Destination,
		CleanOutput: cfg.Output.Clean,
		SkipPublish: CLI.Build.SkipPublish,
		Only:        only,
	})

	report := p.Run(ctx)
	saveReport(cfg, report)
	printReport(report)
	return report, nil
}

func runVersions(cfg *config.Config) error {
	client, err := gitrepo.Open(cfg.Repo.Path)
	if err != nil {
		return err
	}
	for _, tag := range version.NewEnumerator(client).Enumerate() {
		fmt.Println(tag)
	}
	return nil
}

func runHistory(cfg *config.Config, limit int) error {
	if cfg.History.Disabled {
		return fmt.Errorf("run history is disabled in the configuration")
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}()

	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %-8s  published=%t  versions=%d\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Outcome,
			run.Published,
			len(run.Versions))
		for _, v := range run.Versions {
			line := fmt.Sprintf("    %-20s %-8s %s", v.Version, v.Result, v.Stage)
			if v.Error != "" {
				line += "  " + v.Error
			}
			fmt.Println(line)
		}
	}
	return nil
}

// setupMetrics returns a recorder and a shutdown func. Without a listen
// address metrics are a no-op.
func setupMetrics(listen string) (metrics.Recorder, func()) {
	if listen == "" {
		return metrics.NoopRecorder{}, func() {}
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("Metrics listener stopped", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", listen))

	return recorder, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Failed to shut down metrics listener", logfields.Error(err))
		}
	}
}

func saveReport(cfg *config.Config, report *pipeline.Report) {
	if cfg.History.Disabled {
		return
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		slog.Warn("Failed to open history store", logfields.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}()

	run := history.Run{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Outcome:    report.Outcome(),
		Published:  report.Published,
	}
	for _, s := range report.Statuses {
		vr := history.VersionResult{
			Version: s.Tag.String(),
			Stage:   string(s.Stage),
			Result:  string(s.Result),
		}
		if s.Err != nil {
			vr.Error = s.Err.Error()
		}
		run.Versions = append(run.Versions, vr)
	}

	if err := store.SaveRun(context.Background(), run); err != nil {
		slog.Warn("Failed to save run history", logfields.Error(err))
	}
}

func printReport(report *pipeline.Report) {
	fmt.Printf("Run %s: %s (%d succeeded, %d failed, %d skipped)\n",
		report.RunID, report.Outcome(), len(report.Succeeded()), len(report.Failures()), len(report.Skipped()))
	for _, f := range report.Failures() {
		fmt.Printf("  %s failed at %s: %v\n", f.Tag, f.Stage, f.Err)
	}
	if report.PublishErr != nil {
		fmt.Printf("  publish failed: %v\n", report.PublishErr)
	}
	if report.FatalErr != nil {
		fmt.Printf("  run aborted: %v\n", report.FatalErr)
	}
}
