// Package depgraph provides the dependency-ordering collaborators of the
// build core: a topological ordering over the workspace packages and a
// cached recursive dependency-closure helper.
//
// Closure semantics: the build closure of a package is its direct build and
// buildtool dependencies restricted to the workspace, expanded recursively
// through the run dependencies of those dependencies (also restricted to
// the workspace). Run dependencies of the package itself do not gate its
// build.
package depgraph

import (
	"fmt"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/isobuild/isobuild/internal/manifest"
)

// Order returns the packages in a topological order consistent with their
// in-workspace build and buildtool dependencies. Ties are broken by package
// name so the order is deterministic. A dependency cycle is an error.
func Order(packages []*manifest.Package) ([]*manifest.Package, error) {
	index := indexByName(packages)

	indegree := make(map[string]int, len(packages))
	dependents := make(map[string][]string, len(packages))
	for _, pkg := range packages {
		indegree[pkg.Name] += 0
		for _, dep := range directBuildDepends(pkg) {
			if _, ok := index[dep]; !ok {
				continue
			}
			indegree[pkg.Name]++
			dependents[dep] = append(dependents[dep], pkg.Name)
		}
	}

	var ready []string
	for name, degree := range indegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]*manifest.Package, 0, len(packages))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, index[name])

		var unlocked []string
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				unlocked = append(unlocked, dependent)
			}
		}
		sort.Strings(unlocked)
		ready = mergeSorted(ready, unlocked)
	}

	if len(ordered) != len(packages) {
		var remaining []string
		for name, degree := range indegree {
			if degree > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return nil, fmt.Errorf("dependency cycle involving packages: %s", strings.Join(remaining, ", "))
	}
	return ordered, nil
}

// Closure computes in-workspace build dependency closures, memoizing the
// recursive run-dependency expansion per package. A Closure is built once
// per run; the package set never changes underneath it.
type Closure struct {
	index map[string]*manifest.Package
	cache *gocache.Cache
}

// NewClosure creates a closure helper over the given workspace packages.
func NewClosure(packages []*manifest.Package) *Closure {
	return &Closure{
		index: indexByName(packages),
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// BuildDepends returns the names of every in-workspace package that must be
// completed before pkg may build. The result is sorted by name.
func (c *Closure) BuildDepends(pkg *manifest.Package) []string {
	seen := make(map[string]struct{})
	for _, dep := range directBuildDepends(pkg) {
		depPkg, ok := c.index[dep]
		if !ok {
			continue
		}
		seen[dep] = struct{}{}
		for _, name := range c.runClosure(depPkg) {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runClosure returns the recursive in-workspace run-dependency closure of
// pkg, excluding pkg itself.
func (c *Closure) runClosure(pkg *manifest.Package) []string {
	if cached, ok := c.cache.Get(pkg.Name); ok {
		return cached.([]string)
	}

	seen := map[string]struct{}{pkg.Name: {}}
	c.walkRunDepends(pkg, seen)
	delete(seen, pkg.Name)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	c.cache.Set(pkg.Name, names, gocache.NoExpiration)
	return names
}

func (c *Closure) walkRunDepends(pkg *manifest.Package, seen map[string]struct{}) {
	for _, dep := range pkg.RunDepends {
		depPkg, ok := c.index[dep]
		if !ok {
			continue
		}
		if _, visited := seen[dep]; visited {
			continue
		}
		seen[dep] = struct{}{}
		c.walkRunDepends(depPkg, seen)
	}
}

func directBuildDepends(pkg *manifest.Package) []string {
	deps := make([]string, 0, len(pkg.BuildDepends)+len(pkg.BuildtoolDepends))
	deps = append(deps, pkg.BuildDepends...)
	deps = append(deps, pkg.BuildtoolDepends...)
	return deps
}

func indexByName(packages []*manifest.Package) map[string]*manifest.Package {
	index := make(map[string]*manifest.Package, len(packages))
	for _, pkg := range packages {
		index[pkg.Name] = pkg
	}
	return index
}

// mergeSorted merges two name-sorted slices into one sorted slice.
func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Strings(out)
	return out
}
