// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/isobuild/isobuild/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("isobuild", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
isobuild - an isolated, parallel workspace builder.

Usage:
  isobuild [options] [WORKSPACE_PATH]

Arguments:
  WORKSPACE_PATH
    Path to the workspace root (defaults to the current directory). The
    source space is scanned for pkg.hcl package manifests.

Options:
`)
		flagSet.PrintDefaults()
	}

	sourceFlag := flagSet.String("source-space", "", "Directory scanned for package manifests. Defaults to <workspace>/src.")
	buildFlag := flagSet.String("build-space", "", "Directory for per-package build directories. Defaults to <workspace>/build.")
	outputFlag := flagSet.String("output-space", "", "Directory where build results are staged. Defaults to <workspace>/output.")
	installFlag := flagSet.String("install-space", "", "Installation prefix used with --install. Defaults to <workspace>/install.")
	jobsFlag := flagSet.Int("jobs", 0, "Number of parallel build workers. 0 uses one per available CPU.")
	jFlag := flagSet.Int("j", 0, "Number of parallel build workers (shorthand).")
	forceFlag := flagSet.Bool("force-configure", false, "Re-run the configure stage even for configured build directories.")
	mergeFlag := flagSet.Bool("merge-output", false, "Stage all packages into one shared output tree instead of isolated directories.")
	doInstallFlag := flagSet.Bool("install", false, "Run each package's install stage into the install space.")
	verboseFlag := flagSet.Bool("verbose", false, "Stream raw command output even though it may interleave.")
	forceColorFlag := flagSet.Bool("force-color", false, "Force colored output even if the terminal does not support it.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	root := "."
	if flagSet.NArg() > 0 {
		root = flagSet.Arg(0)
	}

	jobs := *jobsFlag
	if jobs == 0 {
		jobs = *jFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkspaceRoot:  root,
		SourceSpace:    *sourceFlag,
		BuildSpace:     *buildFlag,
		OutputSpace:    *outputFlag,
		InstallSpace:   *installFlag,
		Jobs:           jobs,
		ForceConfigure: *forceFlag,
		MergedOutput:   *mergeFlag,
		Install:        *doInstallFlag,
		Verbose:        *verboseFlag,
		ForceColor:     *forceColorFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
