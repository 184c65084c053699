// File: ioctx/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Context is the run loop: it owns the
// work counter, the posted-handler queue, and drives whichever
// demultiplexer (reactor or proactor) was selected at construction.
//
// The "is this goroutine currently inside Run()" check Dispatch needs
// has no native Go equivalent (no thread-local storage); the technique
// is grounded on joeycumines-go-utilpkg's eventloop.loop.go, which
// parses the calling goroutine's id out of runtime.Stack() and compares
// it against the loop's own goroutine id. That package tracks a single
// loop goroutine; Run() here may be entered by several goroutines at
// once (concurrent callers driving the same context), so the single id
// is generalized into a set.
package ioctx

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/ohhmm/asio/control"
	"github.com/ohhmm/asio/demux"
	"github.com/ohhmm/asio/internal/record"
)

// MaxDispatchDepth bounds how many nested inline Dispatch calls a
// single call stack may make before Dispatch degrades to Post, per
// a hard, documented
// cap rather than unbounded recursion.
const MaxDispatchDepth = 32

// Context is the run loop. The zero value is not usable; construct
// with New or NewDefault.
type Context struct {
	mux demux.Demultiplexer

	workCount atomic.Int64

	postedMu sync.Mutex
	posted   *queue.Queue

	stopped atomic.Bool
	runners atomic.Int32
	control *control.Registry

	// loopGoroutines holds the id of every goroutine currently inside
	// Run(), so Dispatch can tell whether it is already being called
	// from the loop (and may therefore run its handler inline) or from
	// an unrelated goroutine (and must Post instead).
	loopGoroutines sync.Map // map[uint64]*int32, value is the current dispatch depth
}

// New constructs a Context driven by mux.
func New(mux demux.Demultiplexer) *Context {
	return &Context{mux: mux, posted: queue.New()}
}

// MakeWorkGuard returns a WorkGuard that keeps Run from returning for
// lack of work until Release is called.
func (c *Context) MakeWorkGuard() *WorkGuard {
	c.workCount.Add(1)
	return &WorkGuard{ctx: c}
}

// Post schedules fn to run later on a Run() goroutine, never inline.
func (c *Context) Post(fn func()) {
	c.postedMu.Lock()
	c.posted.Add(fn)
	c.postedMu.Unlock()
	c.mux.Interrupt()
}

// Dispatch runs fn inline if the calling goroutine is already inside
// Run() and the current dispatch depth is below MaxDispatchDepth;
// otherwise it behaves like Post.
func (c *Context) Dispatch(fn func()) {
	depth, onLoop := c.currentDepth()
	if !onLoop || depth >= MaxDispatchDepth {
		c.Post(fn)
		return
	}
	c.withIncrementedDepth(func() {
		fn()
	})
}

// Wrap returns a function that, when called, dispatches fn through
// this context -- the Go analogue of bind_executor, for handing a
// completion callback to code that isn't itself context-aware.
func (c *Context) Wrap(fn func()) func() {
	return func() { c.Dispatch(fn) }
}

func (c *Context) currentDepth() (depth int32, onLoop bool) {
	id := goroutineID()
	v, ok := c.loopGoroutines.Load(id)
	if !ok {
		return 0, false
	}
	return atomic.LoadInt32(v.(*int32)), true
}

func (c *Context) withIncrementedDepth(fn func()) {
	id := goroutineID()
	v, _ := c.loopGoroutines.Load(id)
	counter := v.(*int32)
	atomic.AddInt32(counter, 1)
	defer atomic.AddInt32(counter, -1)
	fn()
}

// Run drains posted handlers and completions until there is no
// outstanding work, returning the number of handlers it ran. Handler
// panics propagate out of Run uncaught rather than being swallowed.
func (c *Context) Run() (int, error) {
	id := goroutineID()
	depth := new(int32)
	c.loopGoroutines.Store(id, depth)
	c.runners.Add(1)
	defer func() {
		c.runners.Add(-1)
		c.loopGoroutines.Delete(id)
	}()

	ran := 0
	for !c.stopped.Load() {
		for {
			fn, ok := c.popPosted()
			if !ok {
				break
			}
			fn()
			ran++
		}
		if c.stopped.Load() {
			break
		}
		if c.workCount.Load() == 0 && c.postedEmpty() {
			break
		}
		if err := c.mux.RunIteration(func(op *record.Op) {
			op.Finish()
			ran++
		}); err != nil {
			return ran, err
		}
	}
	c.reportRan(ran)
	return ran, nil
}

func (c *Context) popPosted() (func(), bool) {
	c.postedMu.Lock()
	defer c.postedMu.Unlock()
	if c.posted.Length() == 0 {
		return nil, false
	}
	return c.posted.Remove().(func()), true
}

func (c *Context) postedEmpty() bool {
	c.postedMu.Lock()
	defer c.postedMu.Unlock()
	return c.posted.Length() == 0
}

// Stop marks the context stopped and wakes every goroutine currently
// blocked in Run so each observes the stop request on its next
// RunIteration return. Best-effort against a multiplexer whose
// Interrupt wakes only one waiter per call (the proactor's channel-
// based tier): called once per currently active runner.
func (c *Context) Stop() {
	c.stopped.Store(true)
	n := int(c.runners.Load())
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		c.mux.Interrupt()
	}
}

// Reset clears a prior Stop so Run can be called again.
func (c *Context) Reset() {
	c.stopped.Store(false)
}

// Stopped reports whether Stop has been called since the last Reset.
func (c *Context) Stopped() bool { return c.stopped.Load() }

// goroutineID extracts the calling goroutine's numeric id by parsing
// the "goroutine NNN [running]:" header runtime.Stack always writes
// first. There is no cheaper portable way to identify the current
// goroutine from pure Go.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, _ := strconv.ParseUint(string(b[:end]), 10, 64)
	return id
}
