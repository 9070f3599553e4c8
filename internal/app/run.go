package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/isobuild/isobuild/internal/coordinator"
	"github.com/isobuild/isobuild/internal/ctxlog"
	"github.com/isobuild/isobuild/internal/depgraph"
	"github.com/isobuild/isobuild/internal/display"
	"github.com/isobuild/isobuild/internal/events"
	"github.com/isobuild/isobuild/internal/executor"
	"github.com/isobuild/isobuild/internal/job"
	"github.com/isobuild/isobuild/internal/manifest"
	"github.com/isobuild/isobuild/internal/reslock"
	"github.com/isobuild/isobuild/internal/workspace"
)

// Run executes a full build of the workspace described by cfg. Pre-flight
// errors (configuration, discovery, unknown build types, cycles) propagate
// synchronously before any worker starts.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	wctx, err := workspace.New(cfg.WorkspaceRoot, cfg.SourceSpace, cfg.BuildSpace, cfg.OutputSpace, cfg.InstallSpace)
	if err != nil {
		return err
	}
	wctx.MergedOutput = cfg.MergedOutput
	wctx.Install = cfg.Install
	wctx.ForceConfigure = cfg.ForceConfigure
	wctx.Verbose = cfg.Verbose
	wctx.ForceColor = cfg.ForceColor

	if err := wctx.Validate(); err != nil {
		return err
	}

	disp := display.New(a.outW, cfg.ForceColor)
	disp.WideLog(wctx.Summary())

	start := time.Now()
	packages, err := manifest.NewLoader().Load(ctx, wctx.SourceSpace)
	if err != nil {
		return err
	}
	disp.WideLogf("Found '%d' packages in '%.3f' seconds.", len(packages), time.Since(start).Seconds())

	for _, pkg := range packages {
		if !job.Known(pkg.BuildType) {
			return fmt.Errorf("package '%s' has unknown build type '%s'", pkg.Name, pkg.BuildType)
		}
	}

	ordered, err := depgraph.Order(packages)
	if err != nil {
		return err
	}
	a.logger.Debug("Packages ordered topologically.", "count", len(ordered))

	workerCount := cfg.Jobs
	if workerCount == 0 {
		workerCount = runtime.NumCPU()
	}

	// The queue never blocks: each package is enqueued at most once, plus
	// one sentinel per worker.
	jobQueue := make(chan job.Job, len(ordered)+workerCount)
	eventCh := make(chan events.Event, 128)

	locks := map[job.Resource]reslock.Locker{
		job.ResourceOutput:  reslock.New(wctx.MergedOutput),
		job.ResourceInstall: reslock.New(true),
	}

	pool := executor.NewPool(jobQueue, eventCh, locks)
	coord := coordinator.New(ordered, wctx, jobQueue, eventCh, pool, disp, cfg.ForceConfigure)

	a.logger.Info("Starting parallel build.", "packages", len(ordered), "workers", workerCount)
	result, err := coord.Run(ctx, workerCount)
	if err != nil {
		if errors.Is(err, coordinator.ErrInterrupted) {
			return err
		}
		return fmt.Errorf("build failed: %w", err)
	}

	if result.Success() {
		disp.WideLog(disp.Success("[isobuild] Finished."))
		a.logger.Debug("App.Run method finished.")
		return nil
	}

	disp.WideLog(disp.Failure("[isobuild] There were errors:"))
	for _, f := range result.Failures {
		disp.WideLogf("\nFailed to build package '%s' because the following command:\n\n    # Command run in '%s' directory\n    %s\n\nExited with return code: %d",
			f.Package, f.Dir, f.Command, f.ExitCode)
	}
	return fmt.Errorf("failed to build %d package(s)", len(result.Failures))
}
