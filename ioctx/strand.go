// File: ioctx/strand.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Strand serializes a subset of a context's handlers against each
// other, without serializing them against the rest of the context's
// work. Grounded on the original Asio source's
// locking_dispatcher_service (see _examples/original_source/asio): a
// mutex-guarded FIFO of deferred work, where the thread that finds the
// strand idle runs inline and every later arrival while busy queues.
package ioctx

import (
	"sync"

	"github.com/eapache/queue"
)

// Strand serializes access to a set of handlers posted or dispatched
// through it. The zero value is not usable; construct with NewStrand.
type Strand struct {
	ctx      *Context
	drain    chan struct{} // 1-buffered, acts as a non-blocking try-lock on who drains
	pendingMu sync.Mutex
	pending  *queue.Queue
}

// NewStrand constructs a Strand bound to ctx.
func NewStrand(ctx *Context) *Strand {
	s := &Strand{ctx: ctx, drain: make(chan struct{}, 1), pending: queue.New()}
	s.drain <- struct{}{}
	return s
}

// Post schedules fn to run through the strand, never inline, matching
// Context.Post's contract.
func (s *Strand) Post(fn func()) {
	s.ctx.Post(func() { s.run(fn) })
}

// Dispatch, when the calling goroutine is already inside the bound
// context's Run loop, queues fn on the strand and runs it inline if
// the strand is idle; if another caller is already draining the
// strand, that caller runs fn instead. From any other goroutine it
// behaves like Post. Either way, the strand guarantees no two handlers
// submitted through it ever run concurrently.
func (s *Strand) Dispatch(fn func()) {
	_, onLoop := s.ctx.currentDepth()
	if onLoop {
		s.run(fn)
		return
	}
	s.Post(fn)
}

// Wrap returns a function that dispatches fn through the strand when
// called.
func (s *Strand) Wrap(fn func()) func() {
	return func() { s.Dispatch(fn) }
}

// run enqueues fn and, if the strand was idle, drains the queue inline
// until it empties again. Handler panics propagate to the caller that
// happened to be draining -- the strand never swallows them, matching
// Context.Run's policy.
func (s *Strand) run(fn func()) {
	s.enqueue(fn)
	select {
	case <-s.drain:
	default:
		return // another goroutine is already draining; it will pick fn up
	}
	defer func() { s.drain <- struct{}{} }()
	for {
		next, ok := s.dequeue()
		if !ok {
			return
		}
		next()
	}
}

func (s *Strand) enqueue(fn func()) {
	s.pendingMu.Lock()
	s.pending.Add(fn)
	s.pendingMu.Unlock()
}

func (s *Strand) dequeue() (func(), bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending.Length() == 0 {
		return nil, false
	}
	return s.pending.Remove().(func()), true
}
