// Package scheduler provides the ready-set evaluation that decides which
// packages are eligible to build next.
//
// The evaluator is a pure function over state owned by the coordinator: it
// never mutates its inputs and is safe to call repeatedly. Separating "what
// can run" here from "how to run it" (the executor) keeps the scheduling
// decision testable in isolation.
package scheduler

import (
	"github.com/isobuild/isobuild/internal/depgraph"
	"github.com/isobuild/isobuild/internal/manifest"
)

// ReadyPackages returns the packages that are neither running nor completed
// and whose in-workspace build closure is fully completed. The result
// preserves the topological order of ordered; that order is the tie-break
// for dispatch sequencing when several packages become ready at once.
func ReadyPackages(ordered []*manifest.Package, closure *depgraph.Closure, running map[string]struct{}, completed map[string]struct{}) []*manifest.Package {
	var ready []*manifest.Package
	for _, pkg := range ordered {
		if _, ok := running[pkg.Name]; ok {
			continue
		}
		if _, ok := completed[pkg.Name]; ok {
			continue
		}

		pending := false
		for _, dep := range closure.BuildDepends(pkg) {
			if _, ok := completed[dep]; !ok {
				pending = true
				break
			}
		}
		if !pending {
			ready = append(ready, pkg)
		}
	}
	return ready
}
