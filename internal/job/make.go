package job

import (
	"github.com/isobuild/isobuild/internal/manifest"
	"github.com/isobuild/isobuild/internal/workspace"
)

func init() {
	Register("make", NewMakeJob)
}

// MakeJob builds a package following the generic in-source build-system
// convention: run make in the package directory, then make install with the
// resolved prefix.
type MakeJob struct {
	pkg    *manifest.Package
	stages []Stage
}

// NewMakeJob constructs the make job for pkg. The force flag has no effect
// for this convention; make decides for itself what is out of date.
func NewMakeJob(pkg *manifest.Package, wctx *workspace.Context, force bool) (Job, error) {
	prefix, resource := installDestination(pkg, wctx)

	stages := []Stage{
		{
			Label: "build",
			Argv:  []string{"make"},
			Dir:   pkg.Path,
		},
		{
			Label:    "install",
			Argv:     []string{"make", "install", "PREFIX=" + prefix},
			Dir:      pkg.Path,
			Resource: resource,
		},
	}

	return &MakeJob{pkg: pkg, stages: stages}, nil
}

func (j *MakeJob) Name() string    { return j.pkg.Name }
func (j *MakeJob) Stages() []Stage { return j.stages }
