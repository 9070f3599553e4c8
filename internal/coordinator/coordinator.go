// Package coordinator drives a build run: it seeds the job queue, consumes
// worker events one at a time, re-evaluates the ready set as packages
// complete, and manages the failure and shutdown protocol.
//
// All scheduling state — the running-record map, the completed set, the
// failure list, the global mode — is owned by this single-threaded loop and
// never touched by workers. Workers reach the coordinator only through the
// event channel; the coordinator reaches workers only through the job
// queue.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/isobuild/isobuild/internal/ctxlog"
	"github.com/isobuild/isobuild/internal/depgraph"
	"github.com/isobuild/isobuild/internal/display"
	"github.com/isobuild/isobuild/internal/events"
	"github.com/isobuild/isobuild/internal/executor"
	"github.com/isobuild/isobuild/internal/job"
	"github.com/isobuild/isobuild/internal/manifest"
	"github.com/isobuild/isobuild/internal/scheduler"
	"github.com/isobuild/isobuild/internal/workspace"
)

// ErrInterrupted is returned when an external interrupt aborts the loop.
// The abort is best effort: no sentinels are broadcast and workers are not
// waited for.
var ErrInterrupted = errors.New("build interrupted")

// statusInterval bounds the wait on the event channel so the status line
// refreshes even when no events arrive.
const statusInterval = 100 * time.Millisecond

// Failure records one failed build command.
type Failure struct {
	Package  string
	Command  string
	Dir      string
	ExitCode int
}

// Result is the final outcome of a build run.
type Result struct {
	// Completed lists successfully built packages in completion order.
	Completed []string
	// Failures lists every failed command, one entry per failed package.
	Failures []Failure
}

// Success reports whether the run completed without failures.
func (r *Result) Success() bool {
	return len(r.Failures) == 0
}

// runningRecord is the coordinator's bookkeeping for one dispatched job.
// Sequence number and start time stay zero until the job_started event.
type runningRecord struct {
	seq       int
	job       job.Job
	startedAt time.Time
}

// Coordinator is the single-threaded event loop of a build run.
type Coordinator struct {
	ordered []*manifest.Package
	closure *depgraph.Closure
	wctx    *workspace.Context
	force   bool

	jobs   chan job.Job
	events <-chan events.Event
	pool   *executor.Pool
	disp   *display.Display

	// newJob constructs the job for a ready package; replaced in tests.
	newJob func(*manifest.Package, *workspace.Context, bool) (job.Job, error)

	running        map[string]*runningRecord
	completed      map[string]struct{}
	completedOrder []string
	failures       []Failure
	draining       bool
	seq            int
	active         map[int]struct{}
}

// New creates a coordinator over the given collaborators. ordered must be a
// valid topological order; the coordinator never cycle-detects.
func New(ordered []*manifest.Package, wctx *workspace.Context, jobQueue chan job.Job, eventCh <-chan events.Event, pool *executor.Pool, disp *display.Display, force bool) *Coordinator {
	return &Coordinator{
		ordered:   ordered,
		closure:   depgraph.NewClosure(ordered),
		wctx:      wctx,
		force:     force,
		jobs:      jobQueue,
		events:    eventCh,
		pool:      pool,
		disp:      disp,
		newJob:    job.New,
		running:   make(map[string]*runningRecord),
		completed: make(map[string]struct{}),
		active:    make(map[int]struct{}),
	}
}

// Run seeds the queue, starts workerCount workers, and loops over worker
// events until every worker has exited. It returns the final result and, on
// interrupt, ErrInterrupted alongside the partial result.
func (c *Coordinator) Run(ctx context.Context, workerCount int) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	ready := scheduler.ReadyPackages(c.ordered, c.closure, c.runningSet(), c.completed)
	if err := c.dispatch(ctx, ready); err != nil {
		return nil, err
	}
	// Guard against a silent stall: dispatching ready packages must leave
	// jobs in flight.
	if len(ready) > 0 && len(c.running) == 0 {
		return nil, errors.New("dispatch recorded no running jobs")
	}
	logger.Debug("Job queue primed.", "ready", len(ready))

	for _, id := range c.pool.Start(ctx, workerCount) {
		c.active[id] = struct{}{}
	}
	logger.Debug("Worker pool started.", "workers", workerCount)

	for len(c.active) > 0 {
		select {
		case <-ctx.Done():
			c.disp.WideLog("[isobuild] Interrupted, stopping.")
			return c.result(), ErrInterrupted
		case ev := <-c.events:
			if err := c.handle(ctx, ev); err != nil {
				return nil, err
			}
		case <-time.After(statusInterval):
			// Idle tick; fall through to the status refresh.
		}
		c.refreshStatus()
	}

	return c.result(), nil
}

// handle dispatches one event by tag. Late or duplicate events referencing
// a package without a running record are tolerated as no-ops.
func (c *Coordinator) handle(ctx context.Context, ev events.Event) error {
	logger := ctxlog.FromContext(ctx)

	switch ev.Type {
	case events.TypeLog:
		c.disp.WideLogf("[isobuild-%d]: %s", ev.WorkerID, ev.Message)

	case events.TypeCommandLog:
		// Raw output interleaves across workers, so it is opt-in.
		if c.wctx.Verbose {
			c.disp.Stream(ev.Package, ev.Message)
		}

	case events.TypeCommandStarted:
		c.disp.WideLogf("[%s]: ==> '%s' in '%s'", ev.Package, ev.Command, ev.Dir)

	case events.TypeCommandFinished:
		c.disp.WideLogf("[%s]: <== Command '%s' finished with exit code '%d'", ev.Package, ev.Command, ev.ExitCode)

	case events.TypeCommandFailed:
		if _, ok := c.running[ev.Package]; !ok {
			logger.Debug("Ignoring command_failed for package without running record.", "package", ev.Package)
			return nil
		}
		c.disp.WideLog(c.disp.Failure(fmt.Sprintf(
			"<<< Failed to build %s, command '%s' exited with return code '%d'", ev.Package, ev.Command, ev.ExitCode)))
		c.failures = append(c.failures, Failure{
			Package:  ev.Package,
			Command:  ev.Command,
			Dir:      ev.Dir,
			ExitCode: ev.ExitCode,
		})
		delete(c.running, ev.Package)
		if !c.draining {
			c.broadcastShutdown(ctx)
			c.draining = true
		}

	case events.TypeExit:
		if _, ok := c.active[ev.WorkerID]; !ok {
			logger.Debug("Ignoring exit for unknown worker.", "workerID", ev.WorkerID)
			return nil
		}
		if err := c.pool.Join(ev.WorkerID); err != nil {
			return err
		}
		delete(c.active, ev.WorkerID)

	case events.TypeJobStarted:
		rec, ok := c.running[ev.Package]
		if !ok {
			logger.Debug("Ignoring job_started for package without running record.", "package", ev.Package)
			return nil
		}
		c.seq++
		rec.seq = c.seq
		rec.startedAt = time.Now()
		c.disp.WideLogf(">>> Starting build of package '%s'", ev.Package)

	case events.TypeJobFinished:
		rec, ok := c.running[ev.Package]
		if !ok {
			logger.Debug("Ignoring job_finished for package without running record.", "package", ev.Package)
			return nil
		}
		c.completed[ev.Package] = struct{}{}
		c.completedOrder = append(c.completedOrder, ev.Package)
		c.disp.WideLog(c.disp.Success(fmt.Sprintf(
			"<<< Finished building package '%s', it took %.3f seconds", ev.Package, time.Since(rec.startedAt).Seconds())))
		delete(c.running, ev.Package)
		if c.draining {
			return nil
		}
		ready := scheduler.ReadyPackages(c.ordered, c.closure, c.runningSet(), c.completed)
		if err := c.dispatch(ctx, ready); err != nil {
			return err
		}
		// No new ready work and nothing in flight: normal completion.
		if len(c.running) == 0 {
			c.broadcastShutdown(ctx)
		}
	}
	return nil
}

// dispatch turns ready packages into jobs on the queue, recording a running
// record with unassigned sequence and start time for each.
func (c *Coordinator) dispatch(ctx context.Context, ready []*manifest.Package) error {
	for _, pkg := range ready {
		j, err := c.newJob(pkg, c.wctx, c.force)
		if err != nil {
			return fmt.Errorf("failed to construct job for package '%s': %w", pkg.Name, err)
		}
		c.running[pkg.Name] = &runningRecord{job: j}
		c.jobs <- j
		ctxlog.FromContext(ctx).Debug("Dispatched package.", "package", pkg.Name)
	}
	return nil
}

// broadcastShutdown places exactly one sentinel per currently active worker
// onto the job queue. Workers mid-job finish that job before seeing it.
func (c *Coordinator) broadcastShutdown(ctx context.Context) {
	ctxlog.FromContext(ctx).Debug("Broadcasting shutdown sentinels.", "workers", len(c.active))
	for range c.active {
		c.jobs <- nil
	}
}

// refreshStatus rebuilds the one-line status bar from the running records
// that already have a sequence number, ordered ascending by sequence.
func (c *Coordinator) refreshStatus() {
	total := len(c.ordered)
	var entries []*runningRecord
	names := make(map[*runningRecord]string)
	for name, rec := range c.running {
		if rec.seq == 0 {
			continue
		}
		entries = append(entries, rec)
		names[rec] = name
	}
	if len(entries) == 0 {
		c.disp.Status("")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	msg := "[isobuild] "
	for _, rec := range entries {
		msg += fmt.Sprintf("[%d/%d %s - %.1f] ", rec.seq, total, names[rec], time.Since(rec.startedAt).Seconds())
	}
	c.disp.Status(msg)
}

// runningSet projects the running-record keys for the ready-set evaluator.
func (c *Coordinator) runningSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.running))
	for name := range c.running {
		set[name] = struct{}{}
	}
	return set
}

// result snapshots the final outcome.
func (c *Coordinator) result() *Result {
	return &Result{
		Completed: append([]string(nil), c.completedOrder...),
		Failures:  append([]Failure(nil), c.failures...),
	}
}
