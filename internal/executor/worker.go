package executor

import (
	"context"

	"github.com/isobuild/isobuild/internal/ctxlog"
	"github.com/isobuild/isobuild/internal/events"
	"github.com/isobuild/isobuild/internal/job"
	"github.com/isobuild/isobuild/internal/reslock"
)

// worker is the core processing loop for a single concurrent worker.
type worker struct {
	id     int
	jobs   <-chan job.Job
	events chan<- events.Event
	locks  map[job.Resource]reslock.Locker
	done   chan struct{}
}

// run dequeues jobs until the shutdown sentinel arrives. A worker already
// holding a job finishes (or fails) it before checking for a new item, so
// shutdown is not immediate for in-flight work.
func (w *worker) run(ctx context.Context) {
	defer close(w.done)
	logger := ctxlog.FromContext(ctx).With("workerID", w.id)
	logger.Debug("Worker started.")

	for j := range w.jobs {
		if j == nil {
			break
		}
		logger.Debug("Worker picked up job.", "package", j.Name())
		w.execute(j)
	}

	w.events <- events.Exit(w.id)
	logger.Debug("Worker finished.")
}

// execute runs the job's stages in order. On the first failing stage the
// worker abandons the rest of the job and does not emit job_finished.
func (w *worker) execute(j job.Job) {
	pkg := j.Name()
	w.events <- events.JobStarted(w.id, pkg)

	for _, stage := range j.Stages() {
		w.events <- events.CommandStarted(w.id, pkg, stage.Command(), stage.Dir)

		code, err := w.runStage(pkg, stage)
		if err != nil {
			// The command could not start at all; surface the cause and
			// report the stage as failed.
			w.events <- events.Log(w.id, err.Error())
			w.events <- events.CommandFailed(w.id, pkg, stage.Command(), stage.Dir, -1)
			return
		}
		if code != 0 {
			w.events <- events.CommandFailed(w.id, pkg, stage.Command(), stage.Dir, code)
			return
		}
		w.events <- events.CommandFinished(w.id, pkg, stage.Command(), code)
	}

	w.events <- events.JobFinished(w.id, pkg)
}

// runStage executes one stage, holding the stage's resource lock for the
// duration. The lock is released unconditionally, success or failure.
func (w *worker) runStage(pkg string, stage job.Stage) (int, error) {
	if lock, ok := w.locks[stage.Resource]; ok {
		lock.Lock()
		defer lock.Unlock()
	}
	return runCommand(stage, func(chunk string) {
		w.events <- events.CommandLog(w.id, pkg, chunk)
	})
}
