// File: socket/cancel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CancelToken disambiguates a locally initiated close from a
// peer-initiated reset for operations already in flight when either
// happens. Grounded on an earlier session layer's internal/
// session/cancel.go sync.Once-guarded close channel, retargeted from
// session teardown to socket-descriptor lifetime.
package socket

import (
	"sync"

	"github.com/ohhmm/asio/asioerr"
)

// CancelToken is the per-socket cancellation handle that the socket's
// operations consult (via classifyOpErr) when they complete with an
// error.
type CancelToken struct {
	once       sync.Once
	closedCh   chan struct{}
	localClose bool
}

// NewCancelToken constructs an armed token for one socket's lifetime.
func NewCancelToken() *CancelToken {
	return &CancelToken{closedCh: make(chan struct{})}
}

// CancelLocal marks every operation cancelled through this token as a
// local close, not a peer reset. Idempotent.
func (t *CancelToken) CancelLocal() {
	t.once.Do(func() {
		t.localClose = true
		close(t.closedCh)
	})
}

// ObservePeerReset marks the token cancelled because of a peer reset
// observed while completing a pending operation, if it was not already
// cancelled by a local close. Idempotent; whichever of CancelLocal and
// ObservePeerReset runs first decides what WasLocalClose reports.
func (t *CancelToken) ObservePeerReset() {
	t.once.Do(func() {
		close(t.closedCh)
	})
}

// Done reports whether the token has been cancelled, either way.
func (t *CancelToken) Done() <-chan struct{} { return t.closedCh }

// WasLocalClose reports which of the two cancellation causes occurred.
// Only meaningful after Done() is closed.
func (t *CancelToken) WasLocalClose() bool { return t.localClose }

// classifyOpErr turns a raw syscall failure into an *asioerr.Error,
// disambiguating a peer reset observed on tok against a local close
// that may be racing it on another goroutine (Socket.Close). If the
// underlying cause classifies as a connection reset, tok records it
// as a peer-observed reset unless a local close already won the
// race, in which case the operation is reported as aborted rather
// than reset -- a socket the caller already closed should not also
// hand back a connection_reset for an operation still in flight at
// the time.
func classifyOpErr(op string, tok *CancelToken, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*asioerr.Error); ok {
		return ae
	}
	code := classifyErrno(err)
	if code == asioerr.ConnectionReset {
		tok.ObservePeerReset()
		if tok.WasLocalClose() {
			return asioerr.New(op, asioerr.OperationAborted)
		}
	}
	return asioerr.Wrap(op, code, err)
}
