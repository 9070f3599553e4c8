// Package events defines the tagged event values workers emit to the
// coordinator over the shared event channel.
package events

import "fmt"

// Type discriminates the payload of an Event.
type Type string

const (
	// TypeLog is a free-form diagnostic line from a worker.
	TypeLog Type = "log"
	// TypeCommandLog carries a raw chunk of a running command's output.
	TypeCommandLog Type = "command_log"
	// TypeCommandStarted announces that a build command began executing.
	TypeCommandStarted Type = "command_started"
	// TypeCommandFinished announces that a build command exited zero.
	TypeCommandFinished Type = "command_finished"
	// TypeCommandFailed announces that a build command exited non-zero.
	// The worker abandons the remaining stages of the job after emitting it.
	TypeCommandFailed Type = "command_failed"
	// TypeJobStarted announces that a worker picked up a job, before its
	// first command runs.
	TypeJobStarted Type = "job_started"
	// TypeJobFinished announces that every stage of a job exited zero.
	TypeJobFinished Type = "job_finished"
	// TypeExit announces that a worker consumed the shutdown sentinel and
	// is terminating.
	TypeExit Type = "exit"
)

// Event is a single message from a worker to the coordinator. Which fields
// are meaningful depends on Type; unused fields are zero.
type Event struct {
	Type     Type
	WorkerID int
	Package  string
	Command  string
	Dir      string
	ExitCode int
	Message  string
}

func (e Event) String() string {
	return fmt.Sprintf("%s{worker=%d pkg=%s}", e.Type, e.WorkerID, e.Package)
}

// Log builds a free-form diagnostic event for the given worker.
func Log(workerID int, msg string) Event {
	return Event{Type: TypeLog, WorkerID: workerID, Message: msg}
}

// CommandLog builds an output-chunk event for the given package.
func CommandLog(workerID int, pkg, chunk string) Event {
	return Event{Type: TypeCommandLog, WorkerID: workerID, Package: pkg, Message: chunk}
}

// CommandStarted builds a command-start event.
func CommandStarted(workerID int, pkg, command, dir string) Event {
	return Event{Type: TypeCommandStarted, WorkerID: workerID, Package: pkg, Command: command, Dir: dir}
}

// CommandFinished builds a command-success event.
func CommandFinished(workerID int, pkg, command string, code int) Event {
	return Event{Type: TypeCommandFinished, WorkerID: workerID, Package: pkg, Command: command, ExitCode: code}
}

// CommandFailed builds a command-failure event.
func CommandFailed(workerID int, pkg, command, dir string, code int) Event {
	return Event{Type: TypeCommandFailed, WorkerID: workerID, Package: pkg, Command: command, Dir: dir, ExitCode: code}
}

// JobStarted builds a job-start event.
func JobStarted(workerID int, pkg string) Event {
	return Event{Type: TypeJobStarted, WorkerID: workerID, Package: pkg}
}

// JobFinished builds a job-success event.
func JobFinished(workerID int, pkg string) Event {
	return Event{Type: TypeJobFinished, WorkerID: workerID, Package: pkg}
}

// Exit builds a worker-termination event.
func Exit(workerID int) Event {
	return Event{Type: TypeExit, WorkerID: workerID}
}
