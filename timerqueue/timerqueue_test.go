package timerqueue

import (
	"testing"
	"time"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/clock"
	"github.com/ohhmm/asio/internal/record"
)

func TestEnqueueWakesOnlyWhenEarlierThanCurrentHead(t *testing.T) {
	q := New()
	base := clock.Now()

	if woke := q.Enqueue(base.Add(time.Hour), &record.Op{}, "a"); !woke {
		t.Fatalf("first enqueue should always wake")
	}
	if woke := q.Enqueue(base.Add(2*time.Hour), &record.Op{}, "b"); woke {
		t.Fatalf("a later deadline should not wake")
	}
	if woke := q.Enqueue(base.Add(time.Minute), &record.Op{}, "c"); !woke {
		t.Fatalf("a strictly earlier deadline should wake")
	}
}

func TestFireDueOrdersByDeadlineThenInsertion(t *testing.T) {
	q := New()
	now := clock.Now()
	var order []string

	mk := func(name string) *record.Op {
		return &record.Op{Complete: func(record.Result) { order = append(order, name) }}
	}
	q.Enqueue(now, mk("first"), "t1")
	q.Enqueue(now, mk("second"), "t2") // same deadline, later insertion
	q.Enqueue(now.Add(time.Hour), mk("later"), "t3")

	due := q.FireDue(now)
	if len(due) != 2 {
		t.Fatalf("FireDue should return 2 due timers, got %d", len(due))
	}
	for _, op := range due {
		op.Finish()
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("fire order = %v, want [first second]", order)
	}
	if q.Len() != 1 {
		t.Fatalf("one timer should remain pending, got %d", q.Len())
	}
}

func TestCancelByTokenOnlyRemovesMatchingTimers(t *testing.T) {
	q := New()
	now := clock.Now()
	var cancelledErr error

	tokenA, tokenB := "A", "B"
	q.Enqueue(now.Add(time.Hour), &record.Op{Complete: func(res record.Result) { cancelledErr = res.Err }}, tokenA)
	q.Enqueue(now.Add(time.Hour), &record.Op{}, tokenB)

	cancelled := q.CancelByToken(tokenA)
	if len(cancelled) != 1 {
		t.Fatalf("expected exactly 1 cancelled timer, got %d", len(cancelled))
	}
	cancelled[0].Finish()
	if asioerr.CodeOf(cancelledErr) != asioerr.OperationAborted {
		t.Fatalf("cancelled timer should report OperationAborted, got %v", cancelledErr)
	}
	if q.Len() != 1 {
		t.Fatalf("the other token's timer should remain, got Len()=%d", q.Len())
	}
}
