package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesSpacesFromRoot(t *testing.T) {
	root := t.TempDir()

	c, err := New(root, "", "", "", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "src"), c.SourceSpace)
	assert.Equal(t, filepath.Join(root, "build"), c.BuildSpace)
	assert.Equal(t, filepath.Join(root, "output"), c.OutputSpace)
	assert.Equal(t, filepath.Join(root, "install"), c.InstallSpace)
}

func TestNew_ExplicitSpacesKept(t *testing.T) {
	root := t.TempDir()
	src := t.TempDir()

	c, err := New(root, src, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, src, c.SourceSpace)
	assert.Equal(t, filepath.Join(root, "build"), c.BuildSpace)
}

func TestValidate_CreatesBuildAndOutputSpaces(t *testing.T) {
	root := t.TempDir()
	c, err := New(root, "", "", "", "")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(c.SourceSpace, 0o755))

	require.NoError(t, c.Validate())

	assert.DirExists(t, c.BuildSpace)
	assert.DirExists(t, c.OutputSpace)
}

func TestValidate_MissingSourceSpace(t *testing.T) {
	c, err := New(t.TempDir(), "", "", "", "")
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, c.SourceSpace, confErr.Path)
}

func TestValidate_BuildSpaceIsFile(t *testing.T) {
	root := t.TempDir()
	c, err := New(root, "", "", "", "")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(c.SourceSpace, 0o755))
	require.NoError(t, os.WriteFile(c.BuildSpace, []byte("not a dir"), 0o644))

	err = c.Validate()
	require.Error(t, err)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, c.BuildSpace, confErr.Path)
	assert.Contains(t, confErr.Error(), "is a file and not a folder")
}

func TestPackageOutputDir_MergedVsIsolated(t *testing.T) {
	c, err := New(t.TempDir(), "", "", "", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(c.OutputSpace, "demo"), c.PackageOutputDir("demo"))

	c.MergedOutput = true
	assert.Equal(t, c.OutputSpace, c.PackageOutputDir("demo"))
}

func TestSummary_MentionsAllSpaces(t *testing.T) {
	c, err := New(t.TempDir(), "", "", "", "")
	require.NoError(t, err)

	s := c.Summary()
	assert.Contains(t, s, c.SourceSpace)
	assert.Contains(t, s, c.BuildSpace)
	assert.Contains(t, s, c.OutputSpace)
	assert.Contains(t, s, c.InstallSpace)
}
