package manifest

// FileName is the manifest file each buildable package carries at the root
// of its source directory.
const FileName = "pkg.hcl"

// Package is the immutable description of one buildable unit, as declared
// by its manifest. Name is unique across the workspace.
type Package struct {
	// Name is the unique package identity.
	Name string
	// Path is the absolute directory containing the manifest.
	Path string
	// BuildType selects the job variant used to build the package.
	BuildType string
	// BuildDepends lists packages required to compile this one.
	BuildDepends []string
	// BuildtoolDepends lists packages providing tools invoked at build time.
	BuildtoolDepends []string
	// RunDepends lists packages required at runtime.
	RunDepends []string
}
