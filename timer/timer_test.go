package timer

import (
	"testing"
	"time"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/ioctx"
	"github.com/ohhmm/asio/proactor"
)

func TestTimerFiresAfterDeadline(t *testing.T) {
	mux := proactor.New(1)
	defer mux.Close()
	ctx := ioctx.New(mux)

	tm := New(ctx, mux)
	tm.ExpiresAfter(10 * time.Millisecond)

	done := make(chan error, 1)
	tm.AsyncWait(func(err error) { done <- err })

	go ctx.Run()

	if err := <-done; err != nil {
		t.Fatalf("AsyncWait: %v", err)
	}
}

func TestTimerCancelAbortsWait(t *testing.T) {
	mux := proactor.New(1)
	defer mux.Close()
	ctx := ioctx.New(mux)

	tm := New(ctx, mux)
	tm.ExpiresAfter(time.Hour)

	done := make(chan error, 1)
	tm.AsyncWait(func(err error) { done <- err })

	go ctx.Run()

	n := tm.Cancel()
	if n != 1 {
		t.Fatalf("Cancel returned %d, want 1", n)
	}
	if err := <-done; asioerr.CodeOf(err) != asioerr.OperationAborted {
		t.Fatalf("err = %v, want OperationAborted", err)
	}
}
