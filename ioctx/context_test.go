package ioctx

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ohhmm/asio/proactor"
)

func newTestContext() *Context {
	return New(proactor.New(1))
}

func TestPostRunsOnRunGoroutineNotInline(t *testing.T) {
	ctx := newTestContext()
	var ran atomic.Bool
	guard := ctx.MakeWorkGuard()
	ctx.Post(func() {
		ran.Store(true)
		guard.Release()
	})
	if ran.Load() {
		t.Fatalf("Post ran inline, want deferred")
	}
	if _, err := ctx.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran.Load() {
		t.Fatalf("handler never ran")
	}
}

func TestDispatchRunsInlineFromInsideRun(t *testing.T) {
	ctx := newTestContext()
	guard := ctx.MakeWorkGuard()
	var innerRanBeforeOuterReturned bool
	ctx.Post(func() {
		ctx.Dispatch(func() { innerRanBeforeOuterReturned = true })
		if !innerRanBeforeOuterReturned {
			t.Errorf("Dispatch from inside Run did not run inline")
		}
		guard.Release()
	})
	if _, err := ctx.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestDispatchFromOutsideRunBehavesLikePost(t *testing.T) {
	ctx := newTestContext()
	var ran atomic.Bool
	guard := ctx.MakeWorkGuard()
	ctx.Dispatch(func() {
		ran.Store(true)
		guard.Release()
	})
	if ran.Load() {
		t.Fatalf("Dispatch from outside Run ran inline, want deferred")
	}
	if _, err := ctx.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran.Load() {
		t.Fatalf("handler never ran")
	}
}

func TestRunReturnsWhenWorkReachesZero(t *testing.T) {
	ctx := newTestContext()
	guard := ctx.MakeWorkGuard()
	guard.Release()
	done := make(chan struct{})
	go func() {
		ctx.Run()
		close(done)
	}()
	<-done
}

func TestStrandSerializesConcurrentDispatch(t *testing.T) {
	ctx := newTestContext()
	strand := NewStrand(ctx)
	guard := ctx.MakeWorkGuard()

	const n = 50
	var active atomic.Int32
	var maxActive atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			strand.Dispatch(func() {
				cur := active.Add(1)
				for {
					m := maxActive.Load()
					if cur <= m || maxActive.CompareAndSwap(m, cur) {
						break
					}
				}
				active.Add(-1)
			})
		}()
	}

	runDone := make(chan struct{})
	go func() {
		ctx.Run()
		close(runDone)
	}()
	wg.Wait()
	guard.Release()
	<-runDone

	if maxActive.Load() > 1 {
		t.Fatalf("strand allowed %d concurrent handlers, want at most 1", maxActive.Load())
	}
}
