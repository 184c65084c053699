package opqueue

import (
	"sync"
	"testing"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/internal/record"
)

func TestEnqueueReportsWakeOnlyOnEmptyToNonEmptyTransition(t *testing.T) {
	s := NewSet()
	if woke := s.Enqueue(5, Read, &record.Op{}); !woke {
		t.Fatalf("first enqueue on an empty queue should wake")
	}
	if woke := s.Enqueue(5, Read, &record.Op{}); woke {
		t.Fatalf("second enqueue on a non-empty queue should not wake")
	}
}

func TestDispatchReadyRunsHeadAndPopsOnlyWhenDone(t *testing.T) {
	s := NewSet()
	attempts := 0
	op := &record.Op{Perform: func() (record.Result, bool) {
		attempts++
		if attempts < 2 {
			return record.Result{}, false
		}
		return record.Result{N: 3}, true
	}}
	s.Enqueue(1, Write, op)

	if done := s.DispatchReady(1, Write); done != nil {
		t.Fatalf("first attempt should report would-block, got a completed op")
	}
	if !s.Ready(1, Write) {
		t.Fatalf("op should remain queued after a would-block attempt")
	}

	done := s.DispatchReady(1, Write)
	if done == nil {
		t.Fatalf("second attempt should complete")
	}
	if done.Cancelled() {
		t.Fatalf("completed op should not be marked cancelled")
	}
}

func TestCancelAbortsEveryDirectionForDescriptor(t *testing.T) {
	s := NewSet()
	var gotErrs []error
	for _, dir := range []Direction{Read, Write, Except} {
		op := &record.Op{Complete: func(res record.Result) { gotErrs = append(gotErrs, res.Err) }}
		s.Enqueue(9, dir, op)
	}

	hadAny, aborted := s.Cancel(9)
	if !hadAny || len(aborted) != 3 {
		t.Fatalf("Cancel should abort all 3 ops, got %d", len(aborted))
	}
	for _, op := range aborted {
		op.Finish()
	}
	if len(gotErrs) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(gotErrs))
	}
	for _, err := range gotErrs {
		if asioerr.CodeOf(err) != asioerr.OperationAborted {
			t.Fatalf("aborted op should carry OperationAborted, got %v", err)
		}
	}
	if s.Ready(9, Read) {
		t.Fatalf("descriptor should be fully cleared after Cancel")
	}
}

// TestCancelRacingDispatchReadyDeliversOpExactlyOnce exercises the
// scenario a concurrent Close (Cancel) racing an in-flight Perform on
// another goroutine: whichever side wins, the op must be delivered to
// its completion exactly once, never twice and never dropped.
func TestCancelRacingDispatchReadyDeliversOpExactlyOnce(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := NewSet()
		performing := make(chan struct{})
		release := make(chan struct{})
		var calls int
		var mu sync.Mutex
		op := &record.Op{
			Perform: func() (record.Result, bool) {
				close(performing)
				<-release
				return record.Result{N: 1}, true
			},
			Complete: func(record.Result) {
				mu.Lock()
				calls++
				mu.Unlock()
			},
		}
		s.Enqueue(4, Read, op)

		var wg sync.WaitGroup
		wg.Add(2)
		var dispatched *record.Op
		go func() {
			defer wg.Done()
			dispatched = s.DispatchReady(4, Read)
		}()
		go func() {
			defer wg.Done()
			<-performing
			if _, aborted := s.Cancel(4); len(aborted) == 1 {
				aborted[0].Finish()
			}
			close(release)
		}()
		wg.Wait()
		if dispatched != nil {
			dispatched.Finish()
		}

		mu.Lock()
		got := calls
		mu.Unlock()
		if got != 1 {
			t.Fatalf("iteration %d: Complete invoked %d times, want exactly 1", i, got)
		}
	}
}

func TestDescriptorsAreSortedAscending(t *testing.T) {
	s := NewSet()
	s.Enqueue(30, Read, &record.Op{})
	s.Enqueue(10, Read, &record.Op{})
	s.Enqueue(20, Read, &record.Op{})

	got := s.Descriptors()
	want := []uintptr{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("Descriptors length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Descriptors[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
