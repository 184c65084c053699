// File: internal/record/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Small-object arena for Op records, grounded on pool/objpool.go's
// SyncPool wrapper (itself a thin wrapper around sync.Pool).

package record

import "sync"

// Arena recycles *Op values across asynchronous operations, avoiding a
// heap allocation per submitted operation in the common case.
type Arena struct {
	pool sync.Pool
}

// NewArena constructs an empty arena.
func NewArena() *Arena {
	return &Arena{pool: sync.Pool{New: func() any { return &Op{} }}}
}

// Acquire returns a zeroed Op wired to release back into this arena.
func (a *Arena) Acquire() *Op {
	op := a.pool.Get().(*Op)
	*op = Op{Release: a.release}
	return op
}

func (a *Arena) release(op *Op) {
	*op = Op{}
	a.pool.Put(op)
}
