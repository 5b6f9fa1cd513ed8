// Package gate provides the single-flight gate serializing every mutating
// operation in the bridge. All commands touch the shared session file and
// the shared git working tree, so at most one may run at a time; a second
// caller is rejected, never queued.
package gate

import "sync/atomic"

// Gate is a global mutual-exclusion flag. The zero value is ready to use.
type Gate struct {
	busy atomic.Bool
}

// New creates a released Gate.
func New() *Gate {
	return &Gate{}
}

// TryAcquire atomically claims the gate. It returns false without blocking
// when another operation holds it.
func (g *Gate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the gate. It must run on every exit path of the guarded
// operation, including error and timeout paths.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// Busy reports whether the gate is currently held.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
