// Package job models the opaque units of work handed to workers. A Job is
// bound to exactly one package and exposes the ordered command stages that
// build it; everything else about its execution is the worker's concern.
//
// Build-type tags map to job constructors through a table. Supporting a new
// build convention means adding a table entry, not branching logic.
package job

import (
	"fmt"
	"strings"

	"github.com/isobuild/isobuild/internal/manifest"
	"github.com/isobuild/isobuild/internal/workspace"
)

// Resource names a shared output location a stage writes to. Workers
// serialize stages on the same resource through the lock set.
type Resource string

const (
	// ResourceNone marks a stage that only touches package-private paths.
	ResourceNone Resource = ""
	// ResourceOutput marks a stage writing to the shared build-output tree.
	ResourceOutput Resource = "output"
	// ResourceInstall marks a stage writing to the installation tree.
	ResourceInstall Resource = "install"
)

// Stage is one command of a job, executed in its declared order.
type Stage struct {
	// Label names the stage for progress output (configure, build, install).
	Label string
	// Argv is the command and its arguments.
	Argv []string
	// Dir is the working directory; the worker creates it if missing.
	Dir string
	// Env holds extra environment entries appended to the worker's own.
	Env []string
	// Resource is the shared location this stage writes to, if any.
	Resource Resource
}

// Command renders the stage's argv as a single display string.
func (s Stage) Command() string {
	return strings.Join(s.Argv, " ")
}

// Job is an opaque, executable unit of work that builds one package.
type Job interface {
	// Name returns the name of the package the job builds.
	Name() string
	// Stages returns the build commands in execution order.
	Stages() []Stage
}

// Constructor builds the job variant for one build-type tag.
type Constructor func(pkg *manifest.Package, wctx *workspace.Context, force bool) (Job, error)

// constructors is the build-type dispatch table. Entries are added at init
// time; the dispatcher only reads it.
var constructors = map[string]Constructor{}

// Register adds a job constructor for a build-type tag. Registering an
// already-known tag replaces it.
func Register(buildType string, fn Constructor) {
	constructors[buildType] = fn
}

// Known reports whether a constructor is registered for the build-type
// tag. The pre-flight check uses it to reject unknown tags before any
// worker starts.
func Known(buildType string) bool {
	_, ok := constructors[buildType]
	return ok
}

// New constructs the job for pkg according to its build-type tag.
func New(pkg *manifest.Package, wctx *workspace.Context, force bool) (Job, error) {
	fn, ok := constructors[pkg.BuildType]
	if !ok {
		return nil, fmt.Errorf("package '%s' has unknown build type '%s'", pkg.Name, pkg.BuildType)
	}
	return fn(pkg, wctx, force)
}
