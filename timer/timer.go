// Package timer provides the public deadline timer wrapping ioctx and
// timerqueue, matching the original Asio source's basic_timer_queue
// (basic_deadline_timer templated over a timer-queue service).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package timer

import (
	"time"

	"github.com/ohhmm/asio/clock"
	"github.com/ohhmm/asio/demux"
	"github.com/ohhmm/asio/internal/record"
	"github.com/ohhmm/asio/ioctx"
)

// DeadlineTimer fires handlers at a deadline, rearmable and
// cancellable. The zero value is not usable; construct with New.
type DeadlineTimer struct {
	ctx      *ioctx.Context
	mux      demux.Demultiplexer
	arena    *record.Arena
	deadline clock.Instant
}

// New constructs a DeadlineTimer with no deadline armed.
func New(ctx *ioctx.Context, mux demux.Demultiplexer) *DeadlineTimer {
	return &DeadlineTimer{ctx: ctx, mux: mux, arena: record.NewArena()}
}

// ExpiresAt sets the timer's deadline to an absolute instant,
// cancelling any previously armed wait on this timer.
func (t *DeadlineTimer) ExpiresAt(deadline clock.Instant) {
	t.Cancel()
	t.deadline = deadline
}

// ExpiresAfter sets the timer's deadline relative to now, cancelling
// any previously armed wait on this timer.
func (t *DeadlineTimer) ExpiresAfter(d time.Duration) {
	t.ExpiresAt(clock.Now().Add(d))
}

// AsyncWait arms a wait for the current deadline and invokes handler
// exactly once, either with nil once the deadline passes or with an
// operation-aborted error if Cancel (or a rearm via ExpiresAt/
// ExpiresAfter) preempts it first.
func (t *DeadlineTimer) AsyncWait(handler func(err error)) {
	guard := t.ctx.MakeWorkGuard()
	op := t.arena.Acquire()
	op.Complete = func(res record.Result) {
		guard.Release()
		t.ctx.Dispatch(func() { handler(res.Err) })
	}
	t.mux.ScheduleTimer(t.deadline, op, t)
}

// Wait is the blocking form of AsyncWait.
func (t *DeadlineTimer) Wait() error {
	result := make(chan error, 1)
	t.AsyncWait(func(err error) { result <- err })
	return <-result
}

// Cancel aborts every wait currently armed on this timer and returns
// how many were cancelled.
func (t *DeadlineTimer) Cancel() int {
	aborted := t.mux.CancelTimer(t)
	for _, op := range aborted {
		t.ctx.Dispatch(op.Finish)
	}
	return len(aborted)
}
