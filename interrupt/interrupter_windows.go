//go:build windows
// +build windows

// File: interrupt/interrupter_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loopback-socketpair interrupter for Windows, grounded on the
// earlier reactor/iocp_reactor.go and reactor_windows.go use of
// golang.org/x/sys/windows for handle-based primitives. Windows has no
// unnamed pipe usable with select-like readiness the way POSIX does, so
// a connected pair of loopback TCP sockets stands in, matching Asio's
// own select_interrupter behavior on this platform.

package interrupt

import (
	"net"
	"sync/atomic"
	"time"
)

var noDeadline = time.Time{}

type socketInterrupter struct {
	listener  net.Listener
	readConn  net.Conn
	writeConn net.Conn
	signalled atomic.Bool
}

// New constructs the platform interrupter.
func New() (Interrupter, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	acceptErrCh := make(chan error, 1)
	var readConn net.Conn
	go func() {
		c, aerr := ln.Accept()
		readConn = c
		acceptErrCh <- aerr
	}()
	writeConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		ln.Close()
		return nil, err
	}
	if err := <-acceptErrCh; err != nil {
		writeConn.Close()
		ln.Close()
		return nil, err
	}
	readConn.(*net.TCPConn).SetReadBuffer(1 << 12)
	return &socketInterrupter{listener: ln, readConn: readConn, writeConn: writeConn}, nil
}

// ReadFD exposes the OS handle of the read side. Nothing on Windows
// registers it with IOCP (the proactor wakes itself through
// PostQueuedCompletionStatus); it is kept to satisfy the Interrupter
// interface uniformly across platforms.
func (s *socketInterrupter) ReadFD() uintptr {
	rc, err := s.readConn.(*net.TCPConn).SyscallConn()
	if err != nil {
		return 0
	}
	var fd uintptr
	rc.Control(func(h uintptr) { fd = h })
	return fd
}

func (s *socketInterrupter) Signal() {
	if !s.signalled.CompareAndSwap(false, true) {
		return
	}
	s.writeConn.Write([]byte{0})
}

func (s *socketInterrupter) Reset() (wasSignalled bool) {
	wasSignalled = s.signalled.Swap(false)
	s.readConn.SetReadDeadline(time.Now().Add(time.Millisecond))
	buf := make([]byte, 128)
	for {
		n, err := s.readConn.Read(buf)
		if n <= 0 || err != nil {
			break
		}
	}
	s.readConn.SetReadDeadline(noDeadline)
	return wasSignalled
}

func (s *socketInterrupter) Close() error {
	s.readConn.Close()
	s.writeConn.Close()
	return s.listener.Close()
}
