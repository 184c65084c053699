// File: ioctx/workguard.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package ioctx

import "sync/atomic"

// WorkGuard is an RAII-style keep-alive token: while at least one
// WorkGuard is outstanding, Run never returns for lack of work, per
// Go has no destructors, so Release must be called
// explicitly -- typically via defer at the call site that created it.
type WorkGuard struct {
	ctx      *Context
	released atomic.Bool
}

// Release decrements the work counter exactly once, even under
// concurrent or repeated calls.
func (g *WorkGuard) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	if g.ctx.workCount.Add(-1) == 0 {
		g.ctx.mux.Interrupt()
	}
}
