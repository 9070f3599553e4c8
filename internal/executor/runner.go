package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/isobuild/isobuild/internal/job"
)

// outputChunkSize bounds each command_log payload so progress stays live
// even for commands that emit long runs without newlines.
const outputChunkSize = 1024

// runCommand starts the stage's command in its working directory and
// streams combined stdout/stderr through onOutput. It returns the exit
// code, or an error if the command could not be started. Workers are never
// preempted mid-command; the command runs to completion.
func runCommand(stage job.Stage, onOutput func(string)) (int, error) {
	if len(stage.Argv) == 0 {
		return 0, errors.New("stage has no command")
	}
	if err := os.MkdirAll(stage.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create working directory '%s': %w", stage.Dir, err)
	}

	cmd := exec.Command(stage.Argv[0], stage.Argv[1:]...)
	cmd.Dir = stage.Dir
	cmd.Env = append(os.Environ(), stage.Env...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return 0, fmt.Errorf("failed to start '%s' in '%s': %w", stage.Command(), stage.Dir, err)
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		buf := make([]byte, outputChunkSize)
		for {
			n, err := pr.Read(buf)
			if n > 0 {
				onOutput(string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()

	err := cmd.Wait()
	pw.Close()
	<-drained

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("command '%s' failed: %w", stage.Command(), err)
	}
	return 0, nil
}
