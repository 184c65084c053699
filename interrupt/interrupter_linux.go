//go:build linux
// +build linux

// File: interrupt/interrupter_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unnamed-pipe interrupter for Linux, grounded on an earlier
// reactor's epoll registration path (reactor_linux.go) and the
// non-blocking pipe conventions used throughout internal/concurrency.

package interrupt

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// pipeInterrupter is a non-blocking pipe pair. Writing a single byte
// makes the read side ready; Reset drains everything written so far.
type pipeInterrupter struct {
	readFD, writeFD int
	signalled       atomic.Bool
}

// New constructs the platform interrupter.
func New() (Interrupter, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &pipeInterrupter{readFD: fds[0], writeFD: fds[1]}, nil
}

func (p *pipeInterrupter) ReadFD() uintptr { return uintptr(p.readFD) }

func (p *pipeInterrupter) Signal() {
	if !p.signalled.CompareAndSwap(false, true) {
		return // already pending, avoid filling the pipe buffer
	}
	var b [1]byte
	for {
		_, err := unix.Write(p.writeFD, b[:])
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the pipe is already at capacity, i.e. already
		// readable; that satisfies Signal's contract either way.
		return
	}
}

func (p *pipeInterrupter) Reset() (wasSignalled bool) {
	wasSignalled = p.signalled.Swap(false)
	var buf [128]byte
	for {
		n, err := unix.Read(p.readFD, buf[:])
		if n <= 0 || err != nil {
			return wasSignalled
		}
	}
}

func (p *pipeInterrupter) Close() error {
	err1 := unix.Close(p.readFD)
	err2 := unix.Close(p.writeFD)
	if err1 != nil {
		return err1
	}
	return err2
}
