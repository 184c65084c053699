//go:build !linux
// +build !linux

// File: reactor/poller_other.go
// Author: momentics <momentics@gmail.com>
//
// Readiness-based multiplexing has no portable, cheap equivalent
// outside epoll. Windows gets all of its I/O through the proactor's
// IOCP path (see proactor/proactor_windows.go), matching upstream
// Asio's own split between select_reactor (POSIX) and
// win_iocp_io_context (Windows) -- Asio never builds select_reactor at
// all on Windows. Any other GOOS gets the same error; the proactor's
// software-fallback implementation is the universal tier instead.

package reactor

import "errors"

func newPoller() (poller, error) {
	return nil, errors.New("reactor: no readiness multiplexer on this platform; use the proactor")
}
