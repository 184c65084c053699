// Package timerqueue implements the deadline-ordered set of timers
// used by the reactor, grounded on an earlier scheduling layer's internal/concurrency/
// scheduler.go (container/heap for the deadline ordering) and the
// original Asio source's reactor_timer_queue (stable ordering by
// insertion among ties).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package timerqueue

import (
	"container/heap"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/clock"
	"github.com/ohhmm/asio/internal/record"
)

var errOperationAborted = asioerr.New("timerqueue", asioerr.OperationAborted)

// Token is the opaque, stable, user-supplied cancellation handle
// associated with a timer. Any pointer-sized value works; callers
// typically pass the address of their own timer struct.
type Token any

type entry struct {
	deadline clock.Instant
	seq      uint64 // insertion order, breaks deadline ties
	op       *record.Op
	token    Token
	index    int // heap index, maintained by container/heap
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].deadline.Before(h[j].deadline) {
		return true
	}
	if h[j].deadline.Before(h[i].deadline) {
		return false
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	e.index = -1
	return e
}

// Queue is the timer-deadline min-heap. The padding field keeps mu's
// cache line separate from the heap/nextSeq fields that the reactor's
// hot enqueue/fire-due path touches on every iteration, avoiding false
// sharing between a lock-holder on one core and a reader spinning on
// Earliest() from another.
type Queue struct {
	mu  sync.Mutex
	_   cpu.CacheLinePad
	heap    entryHeap
	nextSeq uint64
}

// New constructs an empty timer queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue adds a timer firing op at deadline, cancellable via token.
// Returns true iff deadline is earlier than the previous earliest
// deadline -- the reactor must shorten its multiplexer timeout and
// wake it if already blocked.
func (q *Queue) Enqueue(deadline clock.Instant, op *record.Op, token Token) (didWake bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	prevEarliest, hadAny := q.earliestLocked()
	e := &entry{deadline: deadline, seq: q.nextSeq, op: op, token: token}
	q.nextSeq++
	heap.Push(&q.heap, e)
	return !hadAny || deadline.Before(prevEarliest)
}

func (q *Queue) earliestLocked() (clock.Instant, bool) {
	if len(q.heap) == 0 {
		return clock.Instant{}, false
	}
	return q.heap[0].deadline, true
}

// Earliest returns the head deadline, if any.
func (q *Queue) Earliest() (clock.Instant, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.earliestLocked()
}

// FireDue moves every timer with deadline <= now out of the heap, in
// deadline order with insertion order breaking ties, and returns their
// ops with their Result already populated as a success (err=nil). The
// caller is responsible for invoking op.Finish() to run the completion.
func (q *Queue) FireDue(now clock.Instant) []*record.Op {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*entry
	for len(q.heap) > 0 {
		head := q.heap[0]
		if head.deadline.After(now) {
			break
		}
		due = append(due, heap.Pop(&q.heap).(*entry))
	}
	ops := make([]*record.Op, 0, len(due))
	for _, e := range due {
		e.op.SetResult(record.Result{})
		ops = append(ops, e.op)
	}
	return ops
}

// CancelByToken removes every timer sharing token and returns their
// ops, result already set to "operation aborted"; the number cancelled
// is the length of the returned slice.
func (q *Queue) CancelByToken(token Token) []*record.Op {
	q.mu.Lock()
	defer q.mu.Unlock()

	var matched []*entry
	remaining := make([]*entry, 0, len(q.heap))
	for _, e := range q.heap {
		if e.token == token {
			matched = append(matched, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	q.heap = q.heap[:0]
	for _, e := range remaining {
		heap.Push(&q.heap, e)
	}
	ops := make([]*record.Op, 0, len(matched))
	for _, e := range matched {
		e.op.SetResult(record.Result{Err: errOperationAborted})
		ops = append(ops, e.op)
	}
	return ops
}

// Len reports the number of pending timers.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}
