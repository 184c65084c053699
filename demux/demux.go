// Package demux defines the common trait implemented by both the
// reactor (readiness-based) and the proactor (completion-based)
// demultiplexers, so that the socket service and the io context can
// treat either backend uniformly.
//
// This replaces a template-parameterized reactor/proactor
// selection (compile-time Own_Thread / platform build tags picking one
// concrete type) with an explicit Go interface plus two concrete
// implementations chosen at construction time.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package demux

import (
	"github.com/ohhmm/asio/clock"
	"github.com/ohhmm/asio/internal/record"
	"github.com/ohhmm/asio/timerqueue"
)

// Demultiplexer is implemented by both reactor.Reactor and
// proactor.Proactor.
type Demultiplexer interface {
	// StartRead begins a readiness wait (reactor) or submits a
	// completion-bearing read (proactor) on fd. Returns whether the
	// caller must interrupt a blocked multiplexer wait so the new
	// registration is noticed.
	StartRead(fd uintptr, op *record.Op) (didWake bool)

	// StartWrite is the write-direction analogue of StartRead.
	StartWrite(fd uintptr, op *record.Op) (didWake bool)

	// StartExcept registers op to observe out-of-band/error readiness
	// on fd (used by connect's writable-or-except wait).
	StartExcept(fd uintptr, op *record.Op) (didWake bool)

	// ScheduleTimer arms a deadline, cancellable by token.
	ScheduleTimer(deadline clock.Instant, op *record.Op, token timerqueue.Token) (didWake bool)

	// CancelTimer cancels every timer sharing token and returns their
	// ops with an operation-aborted result already set.
	CancelTimer(token timerqueue.Token) []*record.Op

	// CancelDescriptor cancels every pending op on fd across all
	// directions and returns them with an operation-aborted result.
	CancelDescriptor(fd uintptr) (hadAny bool, aborted []*record.Op)

	// RunIteration blocks until at least one event (I/O readiness/
	// completion, timer, or interrupter signal) is available, then
	// drains everything currently available. Every op that reached a
	// final result is passed to onComplete exactly once, in the order
	// this implementation considers fair (read-before-write-before-except,
	// ascending descriptor order). Returns
	// immediately (without blocking) if the demultiplexer was woken by
	// Interrupt purely to observe a stop request.
	RunIteration(onComplete func(*record.Op)) error

	// Interrupt forces a blocked RunIteration to return promptly.
	Interrupt()

	// Close releases the underlying OS resources. Not safe to call
	// concurrently with RunIteration.
	Close() error
}
