// File: ioctx/default.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package ioctx

import (
	"github.com/ohhmm/asio/demux"
	"github.com/ohhmm/asio/proactor"
	"github.com/ohhmm/asio/reactor"
)

// NewDefault selects the best demultiplexer for the running platform:
// the epoll reactor on Linux, the IOCP-backed proactor on Windows, and
// the worker-pool proactor fallback everywhere else. reactor.New's own
// error on non-Linux platforms is what drives the fallback, so no
// runtime.GOOS switch is needed here.
func NewDefault() (*Context, demux.Demultiplexer, error) {
	if r, err := reactor.New(true); err == nil {
		return New(r), r, nil
	}
	p := proactor.New(0)
	return New(p), p, nil
}
