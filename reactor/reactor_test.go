//go:build linux
// +build linux

package reactor

import (
	"sync"
	"testing"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/clock"
	"github.com/ohhmm/asio/internal/record"
	"golang.org/x/sys/unix"
)

func TestReactorDispatchesReadinessExactlyOnce(t *testing.T) {
	r, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}

	var calls int
	op := &record.Op{
		Perform: func() (record.Result, bool) {
			var buf [8]byte
			n, err := unix.Read(fds[0], buf[:])
			if err == unix.EAGAIN {
				return record.Result{}, false
			}
			return record.Result{N: n, Err: err}, true
		},
		Complete: func(record.Result) { calls++ },
	}
	r.StartRead(uintptr(fds[0]), op)

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var gotOp *record.Op
	go func() {
		defer wg.Done()
		for gotOp == nil {
			r.RunIteration(func(o *record.Op) {
				o.Finish()
				gotOp = o
			})
		}
	}()
	wg.Wait()

	if calls != 1 {
		t.Fatalf("completion ran %d times, want 1", calls)
	}
}

func TestReactorCancelDescriptorAbortsPending(t *testing.T) {
	r, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	var result record.Result
	op := &record.Op{
		Perform:  func() (record.Result, bool) { return record.Result{}, false },
		Complete: func(r record.Result) { result = r },
	}
	r.StartRead(uintptr(fds[0]), op)

	hadAny, aborted := r.CancelDescriptor(uintptr(fds[0]))
	if !hadAny || len(aborted) != 1 {
		t.Fatalf("CancelDescriptor: hadAny=%v aborted=%d, want true,1", hadAny, len(aborted))
	}
	aborted[0].Finish()
	if asioerr.CodeOf(result.Err) != asioerr.OperationAborted {
		t.Fatalf("result.Err = %v, want OperationAborted", result.Err)
	}
}

func TestReactorFiresTimerWithoutIO(t *testing.T) {
	r, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	done := make(chan struct{})
	op := &record.Op{Complete: func(record.Result) { close(done) }}
	r.ScheduleTimer(clock.Now(), op, "tok")

	for {
		select {
		case <-done:
			return
		default:
		}
		r.RunIteration(func(o *record.Op) { o.Finish() })
	}
}
