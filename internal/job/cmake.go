package job

import (
	"os"
	"path/filepath"

	"github.com/isobuild/isobuild/internal/manifest"
	"github.com/isobuild/isobuild/internal/workspace"
)

func init() {
	Register("cmake", NewCMakeJob)
}

// CMakeJob builds a package following the structured out-of-source cmake
// convention: configure into a package-private build directory, compile
// there, then install into the shared result tree.
type CMakeJob struct {
	pkg    *manifest.Package
	stages []Stage
}

// NewCMakeJob constructs the cmake job for pkg. The configure stage is
// skipped when the build directory is already configured, unless force is
// set.
func NewCMakeJob(pkg *manifest.Package, wctx *workspace.Context, force bool) (Job, error) {
	buildDir := wctx.PackageBuildDir(pkg.Name)
	prefix, resource := installDestination(pkg, wctx)

	var stages []Stage
	if force || !configured(buildDir) {
		stages = append(stages, Stage{
			Label: "configure",
			Argv:  []string{"cmake", pkg.Path, "-DCMAKE_INSTALL_PREFIX=" + prefix},
			Dir:   buildDir,
		})
	}
	stages = append(stages,
		Stage{
			Label: "build",
			Argv:  []string{"make"},
			Dir:   buildDir,
		},
		Stage{
			Label:    "install",
			Argv:     []string{"make", "install"},
			Dir:      buildDir,
			Resource: resource,
		},
	)

	return &CMakeJob{pkg: pkg, stages: stages}, nil
}

func (j *CMakeJob) Name() string    { return j.pkg.Name }
func (j *CMakeJob) Stages() []Stage { return j.stages }

// configured reports whether the build directory already carries a cmake
// cache from a previous configure run.
func configured(buildDir string) bool {
	_, err := os.Stat(filepath.Join(buildDir, "CMakeCache.txt"))
	return err == nil
}

// installDestination resolves where a package's results land and which
// shared resource that write contends on.
func installDestination(pkg *manifest.Package, wctx *workspace.Context) (string, Resource) {
	if wctx.Install {
		return wctx.InstallSpace, ResourceInstall
	}
	return wctx.PackageOutputDir(pkg.Name), ResourceOutput
}
