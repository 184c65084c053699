// Package reactor implements the readiness-based demultiplexer: a
// single loop that blocks on the OS multiplexer, then drains the three
// per-descriptor operation queues and the timer queue.
//
// Loop algorithm grounded on the original Asio source's
// select_reactor::run() (see _examples/original_source/asio/include/
// asio/detail/select_reactor.hpp): block in the kernel, drain the
// interrupter, dispatch ready descriptors read-before-write-before-except,
// then fire due timers. There is no registration snapshot: the poller's
// interest mask for a descriptor is updated whenever its op queues
// change. Cancellations are not deferred into the loop either:
// CancelDescriptor hands its aborted ops straight back to its caller,
// and RunIteration has no cancellation-drain step. The underlying
// multiplexer is epoll on Linux (grounded on an earlier epoll-based
// reactor's reactor_linux.go and epoll_reactor.go).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactor

import (
	"sync"
	"sync/atomic"

	"github.com/ohhmm/asio/clock"
	"github.com/ohhmm/asio/internal/record"
	"github.com/ohhmm/asio/interrupt"
	"github.com/ohhmm/asio/opqueue"
	"github.com/ohhmm/asio/timerqueue"
)

// poller is the platform-specific readiness multiplexer, implemented
// by epollPoller on Linux. Other GOOS get a constructor error: this
// engine follows upstream Asio's own platform split, where Windows has
// no cheap readiness multiplexer and does all of its I/O through the
// proactor's IOCP path instead (see proactor/proactor_windows.go).
type poller interface {
	// SetInterest registers, updates or clears (if all three are false)
	// the descriptor's wanted readiness directions.
	SetInterest(fd uintptr, wantRead, wantWrite, wantExcept bool) error
	// Wait blocks up to timeoutMs (-1 means forever) and reports which
	// registered descriptors became ready, ascending by descriptor, and
	// whether the interrupter's descriptor was among them.
	Wait(timeoutMs int, interrupterFD uintptr) (ready []readyFD, interrupterReady bool, err error)
	Close() error
}

type readyFD struct {
	fd                            uintptr
	readable, writable, excepted bool
}

// Reactor is the readiness-based demultiplexer: it blocks on the OS
// poller and dispatches ready descriptors to their queued operations.
type Reactor struct {
	mu          sync.Mutex
	ops         *opqueue.Set
	timers      *timerqueue.Queue
	interrupter interrupt.Interrupter
	poll        poller
	ownThread   bool
	closed      atomic.Bool
}

// New constructs a Reactor. ownThread records the ownership mode fixed
// at construction -- true if a dedicated goroutine will drive
// RunIteration in a loop, false if io context workers drive it
// cooperatively -- mirroring select_reactor's Own_Thread template
// parameter.
func New(ownThread bool) (*Reactor, error) {
	intr, err := interrupt.New()
	if err != nil {
		return nil, err
	}
	p, err := newPoller()
	if err != nil {
		intr.Close()
		return nil, err
	}
	if err := p.SetInterest(intr.ReadFD(), true, false, false); err != nil {
		p.Close()
		intr.Close()
		return nil, err
	}
	return &Reactor{
		ops:         opqueue.NewSet(),
		timers:      timerqueue.New(),
		interrupter: intr,
		poll:        p,
		ownThread:   ownThread,
	}, nil
}

// OwnsThread reports the ownership mode fixed at construction.
func (r *Reactor) OwnsThread() bool { return r.ownThread }

// StartRead implements demux.Demultiplexer.
func (r *Reactor) StartRead(fd uintptr, op *record.Op) bool {
	return r.start(fd, opqueue.Read, op)
}

// StartWrite implements demux.Demultiplexer.
func (r *Reactor) StartWrite(fd uintptr, op *record.Op) bool {
	return r.start(fd, opqueue.Write, op)
}

// StartExcept implements demux.Demultiplexer.
func (r *Reactor) StartExcept(fd uintptr, op *record.Op) bool {
	return r.start(fd, opqueue.Except, op)
}

func (r *Reactor) start(fd uintptr, dir opqueue.Direction, op *record.Op) bool {
	op.Descriptor = fd
	didWake := r.ops.Enqueue(fd, dir, op)
	r.mu.Lock()
	r.syncInterestLocked(fd)
	r.mu.Unlock()
	if didWake {
		r.interrupter.Signal()
	}
	return didWake
}

// syncInterestLocked recomputes and applies the poller's interest mask
// for fd from the op queue's current occupancy. Called with r.mu held.
func (r *Reactor) syncInterestLocked(fd uintptr) {
	wantRead := r.ops.Ready(fd, opqueue.Read)
	wantWrite := r.ops.Ready(fd, opqueue.Write)
	wantExcept := r.ops.Ready(fd, opqueue.Except)
	r.poll.SetInterest(fd, wantRead, wantWrite, wantExcept)
}

// ScheduleTimer implements demux.Demultiplexer.
func (r *Reactor) ScheduleTimer(deadline clock.Instant, op *record.Op, token timerqueue.Token) bool {
	didWake := r.timers.Enqueue(deadline, op, token)
	if didWake {
		r.interrupter.Signal()
	}
	return didWake
}

// CancelTimer implements demux.Demultiplexer.
func (r *Reactor) CancelTimer(token timerqueue.Token) []*record.Op {
	return r.timers.CancelByToken(token)
}

// CancelDescriptor implements demux.Demultiplexer.
func (r *Reactor) CancelDescriptor(fd uintptr) (bool, []*record.Op) {
	hadAny, aborted := r.ops.Cancel(fd)
	r.mu.Lock()
	r.poll.SetInterest(fd, false, false, false)
	r.mu.Unlock()
	return hadAny, aborted
}

// RunIteration performs exactly one pass of the loop algorithm
// described above.
func (r *Reactor) RunIteration(onComplete func(*record.Op)) error {
	timeoutMs := -1
	if earliest, ok := r.timers.Earliest(); ok {
		timeoutMs = clock.Millis(clock.Until(earliest))
	}

	ready, interrupterReady, err := r.poll.Wait(timeoutMs, r.interrupter.ReadFD())
	if err != nil {
		return err
	}

	if interrupterReady {
		r.interrupter.Reset()
	}

	for _, rfd := range ready {
		if rfd.readable {
			if op := r.ops.DispatchReady(rfd.fd, opqueue.Read); op != nil {
				onComplete(op)
			}
		}
		if rfd.writable {
			if op := r.ops.DispatchReady(rfd.fd, opqueue.Write); op != nil {
				onComplete(op)
			}
		}
		if rfd.excepted {
			if op := r.ops.DispatchReady(rfd.fd, opqueue.Except); op != nil {
				onComplete(op)
			}
		}
		r.mu.Lock()
		r.syncInterestLocked(rfd.fd)
		r.mu.Unlock()
	}

	for _, op := range r.timers.FireDue(clock.Now()) {
		onComplete(op)
	}

	return nil
}

// Interrupt implements demux.Demultiplexer.
func (r *Reactor) Interrupt() {
	r.interrupter.Signal()
}

// Close implements demux.Demultiplexer.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	err1 := r.poll.Close()
	err2 := r.interrupter.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
