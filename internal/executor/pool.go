// Package executor provides the worker pool that consumes jobs from the
// shared queue and reports progress through lifecycle events.
//
// Workers never communicate with each other. Their only channels to the
// rest of the system are the job queue they receive from, the event channel
// they emit into, and the resource locks around shared output writes. A nil
// job on the queue is the shutdown sentinel: the worker emits an exit event
// and terminates.
package executor

import (
	"context"
	"fmt"

	"github.com/isobuild/isobuild/internal/events"
	"github.com/isobuild/isobuild/internal/job"
	"github.com/isobuild/isobuild/internal/reslock"
)

// Pool owns the worker goroutines of one build run.
type Pool struct {
	jobs   <-chan job.Job
	events chan<- events.Event
	locks  map[job.Resource]reslock.Locker

	workers map[int]*worker
}

// NewPool creates a pool reading jobs from jobQueue and reporting on
// eventCh. The lock set maps each shared resource to its startup-selected
// strategy.
func NewPool(jobQueue <-chan job.Job, eventCh chan<- events.Event, locks map[job.Resource]reslock.Locker) *Pool {
	return &Pool{
		jobs:    jobQueue,
		events:  eventCh,
		locks:   locks,
		workers: make(map[int]*worker),
	}
}

// Start spawns n workers and returns their ids. It may be called once per
// pool.
func (p *Pool) Start(ctx context.Context, n int) []int {
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		w := &worker{
			id:     i,
			jobs:   p.jobs,
			events: p.events,
			locks:  p.locks,
			done:   make(chan struct{}),
		}
		p.workers[i] = w
		go w.run(ctx)
		ids = append(ids, i)
	}
	return ids
}

// Join blocks until the identified worker's goroutine has returned. It is
// called by the coordinator after observing the worker's exit event.
func (p *Pool) Join(id int) error {
	w, ok := p.workers[id]
	if !ok {
		return fmt.Errorf("unknown worker id %d", id)
	}
	<-w.done
	delete(p.workers, id)
	return nil
}
