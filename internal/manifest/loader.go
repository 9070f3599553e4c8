package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/isobuild/isobuild/internal/ctxlog"
	"github.com/isobuild/isobuild/internal/fsutil"
)

// DiscoveryError indicates that the source space contains no package
// manifests. It is fatal and raised before any worker starts.
type DiscoveryError struct {
	SourceSpace string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("no packages were found in the source space '%s'", e.SourceSpace)
}

// manifestFile is the HCL schema of a single pkg.hcl file.
type manifestFile struct {
	Packages []packageBlock `hcl:"package,block"`
}

type packageBlock struct {
	Name             string   `hcl:"name,label"`
	BuildType        string   `hcl:"build_type,optional"`
	BuildDepends     []string `hcl:"build_depends,optional"`
	BuildtoolDepends []string `hcl:"buildtool_depends,optional"`
	RunDepends       []string `hcl:"run_depends,optional"`
}

// Loader discovers and parses package manifests.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a manifest loader with a fresh HCL parser.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load walks sourceSpace for pkg.hcl files and returns the declared
// packages. Duplicate package names across manifests are an error. The
// returned slice is sorted by name; ordering by dependency topology is the
// caller's concern. Zero packages yields a *DiscoveryError.
func (l *Loader) Load(ctx context.Context, sourceSpace string) ([]*Package, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByName(sourceSpace, FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source space '%s': %w", sourceSpace, err)
	}
	logger.Debug("Manifest scan complete.", "source_space", sourceSpace, "manifests", len(files))

	byName := make(map[string]string)
	var packages []*Package
	for _, file := range files {
		pkgs, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		for _, pkg := range pkgs {
			if prev, ok := byName[pkg.Name]; ok {
				return nil, fmt.Errorf("duplicate package '%s' declared in both '%s' and '%s'", pkg.Name, prev, file)
			}
			byName[pkg.Name] = file
			packages = append(packages, pkg)
		}
	}

	if len(packages) == 0 {
		return nil, &DiscoveryError{SourceSpace: sourceSpace}
	}

	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })
	return packages, nil
}

// loadFile parses one manifest file into its declared packages.
func (l *Loader) loadFile(path string) ([]*Package, error) {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest '%s': %w", path, diags)
	}

	dir := filepath.Dir(path)
	var decoded manifestFile
	if diags := gohcl.DecodeBody(hclFile.Body, evalContext(dir), &decoded); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest '%s': %w", path, diags)
	}

	var packages []*Package
	for _, block := range decoded.Packages {
		buildType := block.BuildType
		if buildType == "" {
			buildType = "cmake"
		}
		packages = append(packages, &Package{
			Name:             block.Name,
			Path:             dir,
			BuildType:        buildType,
			BuildDepends:     block.BuildDepends,
			BuildtoolDepends: block.BuildtoolDepends,
			RunDepends:       block.RunDepends,
		})
	}
	return packages, nil
}

// evalContext exposes the manifest's own location to attribute expressions,
// so manifests can derive values from their directory if they need to.
func evalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"manifest": cty.ObjectVal(map[string]cty.Value{
				"dir": cty.StringVal(dir),
			}),
		},
	}
}
