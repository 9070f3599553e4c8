// Package reslock guards shared output locations that multiple workers may
// write to. Whether a location is actually shared is decided once at
// startup: a shared location gets a real mutual-exclusion lock, an isolated
// one gets an always-succeeding no-op. Call sites follow a single
// acquire/release code path either way.
package reslock

import "sync"

// Locker is the mutual-exclusion guard around one shared resource.
type Locker interface {
	Lock()
	Unlock()
}

// New returns a real lock when the resource is shared, a no-op otherwise.
func New(shared bool) Locker {
	if shared {
		return &sync.Mutex{}
	}
	return noop{}
}

// noop is the lock strategy for resources that are not actually shared,
// such as isolated per-package output directories.
type noop struct{}

func (noop) Lock()   {}
func (noop) Unlock() {}
