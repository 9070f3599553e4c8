// Package workspace models the build workspace: the source, build, output
// and install locations plus the run-wide flags consumed at dispatch and
// execution time. A Context is read-only for the duration of a build run.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigurationError indicates that a designated workspace path exists but
// cannot serve its role. It is fatal and raised before any worker starts.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("workspace path '%s' %s", e.Path, e.Reason)
}

// Context describes the workspace a build run operates on.
type Context struct {
	// SourceSpace is the directory scanned for package manifests.
	SourceSpace string
	// BuildSpace is the directory holding per-package build directories.
	BuildSpace string
	// OutputSpace is where build results are staged. When MergedOutput is
	// set, all packages share it and writes are serialized by a lock;
	// otherwise each package gets an isolated subdirectory.
	OutputSpace string
	// InstallSpace is the final installation prefix, used when Install is set.
	InstallSpace string

	// MergedOutput selects a single shared output tree instead of
	// isolated per-package output directories.
	MergedOutput bool
	// Install enables the install stage of each job.
	Install bool
	// ForceConfigure re-runs the configure stage even for already
	// configured build directories.
	ForceConfigure bool
	// Verbose streams raw command output to the progress display.
	Verbose bool
	// ForceColor forces colored output even without a supporting terminal.
	ForceColor bool
}

// New normalizes the given spaces to absolute paths, deriving any that are
// empty from the workspace root.
func New(root, source, build, output, install string) (*Context, error) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	c := &Context{
		SourceSpace:  source,
		BuildSpace:   build,
		OutputSpace:  output,
		InstallSpace: install,
	}
	if c.SourceSpace == "" {
		c.SourceSpace = filepath.Join(absRoot, "src")
	}
	if c.BuildSpace == "" {
		c.BuildSpace = filepath.Join(absRoot, "build")
	}
	if c.OutputSpace == "" {
		c.OutputSpace = filepath.Join(absRoot, "output")
	}
	if c.InstallSpace == "" {
		c.InstallSpace = filepath.Join(absRoot, "install")
	}

	for _, space := range []*string{&c.SourceSpace, &c.BuildSpace, &c.OutputSpace, &c.InstallSpace} {
		abs, err := filepath.Abs(*space)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workspace path '%s': %w", *space, err)
		}
		*space = abs
	}
	return c, nil
}

// Validate checks the workspace before any concurrency begins. The source
// space must be an existing directory; the build and output spaces are
// created if missing, and rejected if they exist as files.
func (c *Context) Validate() error {
	info, err := os.Stat(c.SourceSpace)
	if err != nil {
		return &ConfigurationError{Path: c.SourceSpace, Reason: "does not exist"}
	}
	if !info.IsDir() {
		return &ConfigurationError{Path: c.SourceSpace, Reason: "exists but is a file and not a folder"}
	}

	for _, space := range []string{c.BuildSpace, c.OutputSpace} {
		info, err := os.Stat(space)
		if err == nil {
			if !info.IsDir() {
				return &ConfigurationError{Path: space, Reason: "exists but is a file and not a folder"}
			}
			continue
		}
		if err := os.MkdirAll(space, 0o755); err != nil {
			return &ConfigurationError{Path: space, Reason: fmt.Sprintf("could not be created: %v", err)}
		}
	}
	return nil
}

// PackageBuildDir returns the build directory for the named package.
func (c *Context) PackageBuildDir(name string) string {
	return filepath.Join(c.BuildSpace, name)
}

// PackageOutputDir returns the output prefix for the named package: the
// shared output space when merged, an isolated subdirectory otherwise.
func (c *Context) PackageOutputDir(name string) string {
	if c.MergedOutput {
		return c.OutputSpace
	}
	return filepath.Join(c.OutputSpace, name)
}

// Summary renders a human-readable description of the workspace, logged
// once at startup.
func (c *Context) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source space: %s\n", c.SourceSpace)
	fmt.Fprintf(&b, "Build space: %s\n", c.BuildSpace)
	fmt.Fprintf(&b, "Output space: %s (merged: %t)\n", c.OutputSpace, c.MergedOutput)
	fmt.Fprintf(&b, "Install space: %s (install: %t)", c.InstallSpace, c.Install)
	return b.String()
}
