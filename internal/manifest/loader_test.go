package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesPackages(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, filepath.Join(src, "liba"), `
package "liba" {
  build_type    = "cmake"
  build_depends = ["libb"]
  run_depends   = ["libb"]
}
`)
	writeManifest(t, filepath.Join(src, "libb"), `
package "libb" {
  build_type        = "make"
  buildtool_depends = ["gen"]
}
`)

	packages, err := NewLoader().Load(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, packages, 2)

	// Sorted by name.
	liba, libb := packages[0], packages[1]
	assert.Equal(t, "liba", liba.Name)
	assert.Equal(t, "cmake", liba.BuildType)
	assert.Equal(t, []string{"libb"}, liba.BuildDepends)
	assert.Equal(t, []string{"libb"}, liba.RunDepends)
	assert.Equal(t, filepath.Join(src, "liba"), liba.Path)

	assert.Equal(t, "libb", libb.Name)
	assert.Equal(t, "make", libb.BuildType)
	assert.Equal(t, []string{"gen"}, libb.BuildtoolDepends)
}

func TestLoad_BuildTypeDefaultsToCMake(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, filepath.Join(src, "plain"), `
package "plain" {}
`)

	packages, err := NewLoader().Load(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "cmake", packages[0].BuildType)
}

func TestLoad_ManifestDirExpression(t *testing.T) {
	src := t.TempDir()
	// manifest.dir is in scope for attribute expressions.
	writeManifest(t, filepath.Join(src, "expr"), `
package "expr" {
  build_type = manifest.dir == "" ? "make" : "cmake"
}
`)

	packages, err := NewLoader().Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "cmake", packages[0].BuildType)
}

func TestLoad_DuplicateNamesRejected(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, filepath.Join(src, "one"), `package "dup" {}`)
	writeManifest(t, filepath.Join(src, "two"), `package "dup" {}`)

	_, err := NewLoader().Load(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate package 'dup'")
}

func TestLoad_InvalidHCLRejected(t *testing.T) {
	src := t.TempDir()
	writeManifest(t, filepath.Join(src, "broken"), `package "broken" {`)

	_, err := NewLoader().Load(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}

func TestLoad_EmptySourceSpaceIsDiscoveryError(t *testing.T) {
	src := t.TempDir()

	_, err := NewLoader().Load(context.Background(), src)
	require.Error(t, err)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, src, discErr.SourceSpace)
}
