package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isobuild/isobuild/internal/manifest"
	"github.com/isobuild/isobuild/internal/workspace"
)

func testContext(t *testing.T) *workspace.Context {
	t.Helper()
	wctx, err := workspace.New(t.TempDir(), "", "", "", "")
	require.NoError(t, err)
	return wctx
}

func testPackage(t *testing.T, buildType string) *manifest.Package {
	t.Helper()
	return &manifest.Package{
		Name:      "demo",
		Path:      t.TempDir(),
		BuildType: buildType,
	}
}

func TestNew_DispatchesByBuildType(t *testing.T) {
	wctx := testContext(t)

	j, err := New(testPackage(t, "cmake"), wctx, false)
	require.NoError(t, err)
	assert.IsType(t, &CMakeJob{}, j)

	j, err = New(testPackage(t, "make"), wctx, false)
	require.NoError(t, err)
	assert.IsType(t, &MakeJob{}, j)
}

func TestNew_UnknownBuildType(t *testing.T) {
	wctx := testContext(t)

	_, err := New(testPackage(t, "bazel"), wctx, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown build type 'bazel'")
	assert.False(t, Known("bazel"))
	assert.True(t, Known("cmake"))
}

func TestRegister_AddsTableEntry(t *testing.T) {
	wctx := testContext(t)
	pkg := testPackage(t, "custom")

	Register("custom", func(p *manifest.Package, w *workspace.Context, force bool) (Job, error) {
		return NewMakeJob(p, w, force)
	})
	t.Cleanup(func() { delete(constructors, "custom") })

	j, err := New(pkg, wctx, false)
	require.NoError(t, err)
	assert.Equal(t, "demo", j.Name())
}

func TestCMakeJob_StagesAndLockResources(t *testing.T) {
	wctx := testContext(t)
	pkg := testPackage(t, "cmake")

	j, err := NewCMakeJob(pkg, wctx, false)
	require.NoError(t, err)
	stages := j.Stages()
	require.Len(t, stages, 3)

	assert.Equal(t, "configure", stages[0].Label)
	assert.Equal(t, "cmake", stages[0].Argv[0])
	assert.Equal(t, wctx.PackageBuildDir("demo"), stages[0].Dir)
	assert.Equal(t, ResourceNone, stages[0].Resource)

	assert.Equal(t, "build", stages[1].Label)
	assert.Equal(t, []string{"make"}, stages[1].Argv)

	assert.Equal(t, "install", stages[2].Label)
	assert.Equal(t, ResourceOutput, stages[2].Resource)
}

func TestCMakeJob_SkipsConfigureWhenCached(t *testing.T) {
	wctx := testContext(t)
	pkg := testPackage(t, "cmake")

	buildDir := wctx.PackageBuildDir("demo")
	require.NoError(t, os.MkdirAll(buildDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "CMakeCache.txt"), []byte(""), 0o644))

	j, err := NewCMakeJob(pkg, wctx, false)
	require.NoError(t, err)
	require.Len(t, j.Stages(), 2)
	assert.Equal(t, "build", j.Stages()[0].Label)

	// The force flag reinstates the configure stage.
	forced, err := NewCMakeJob(pkg, wctx, true)
	require.NoError(t, err)
	require.Len(t, forced.Stages(), 3)
	assert.Equal(t, "configure", forced.Stages()[0].Label)
}

func TestCMakeJob_InstallFlagSelectsInstallSpace(t *testing.T) {
	wctx := testContext(t)
	wctx.Install = true
	pkg := testPackage(t, "cmake")

	j, err := NewCMakeJob(pkg, wctx, false)
	require.NoError(t, err)
	stages := j.Stages()

	assert.Contains(t, stages[0].Argv, "-DCMAKE_INSTALL_PREFIX="+wctx.InstallSpace)
	assert.Equal(t, ResourceInstall, stages[len(stages)-1].Resource)
}

func TestMakeJob_BuildsInSource(t *testing.T) {
	wctx := testContext(t)
	pkg := testPackage(t, "make")

	j, err := NewMakeJob(pkg, wctx, false)
	require.NoError(t, err)
	stages := j.Stages()
	require.Len(t, stages, 2)

	assert.Equal(t, pkg.Path, stages[0].Dir)
	assert.Equal(t, []string{"make"}, stages[0].Argv)
	assert.Equal(t, "make install PREFIX="+wctx.PackageOutputDir("demo"), stages[1].Command())
	assert.Equal(t, ResourceOutput, stages[1].Resource)
}
