// Package app encapsulates the application's dependencies, configuration,
// and lifecycle: logger setup, workspace validation, package discovery and
// ordering, and the hand-off to the build coordinator.
package app

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// App is one configured application instance with its own isolated logger.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	runID  string
}

// NewApp is the constructor for the main application. Progress output goes
// to outW; structured logs go to errW so the two streams stay separable.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		errW:   errW,
		logger: logger,
		runID:  runID,
	}
}
