//go:build !linux
// +build !linux

// File: socket/socket_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The socket service's direct syscall tier is Linux-first, matching
// the reactor's platform split (see reactor/poller_other.go). On other
// platforms a Socket can still be constructed, but every operation
// fails at the syscall boundary; production use on Windows is expected
// to go through the proactor's IOCP path with platform-specific
// transport code outside this package, not through this minimal
// syscall shim.
package socket

import (
	"errors"

	"github.com/ohhmm/asio/asioerr"
)

var errUnsupported = errors.New("socket: no syscall backend on this platform")

// classifyErrno has nothing platform-specific to classify here: every
// call into platformSys already fails with errUnsupported.
func classifyErrno(error) asioerr.Code { return asioerr.System }

type platformSys struct{}

func (platformSys) open(Domain, Type) (uintptr, error)               { return 0, errUnsupported }
func (platformSys) close(uintptr) error                              { return errUnsupported }
func (platformSys) bind(uintptr, Domain, Endpoint) error             { return errUnsupported }
func (platformSys) listen(uintptr, int) error                        { return errUnsupported }
func (platformSys) shutdown(uintptr, ShutdownHow) error              { return errUnsupported }
func (platformSys) localAddr(uintptr) (Endpoint, error)              { return Endpoint{}, errUnsupported }
func (platformSys) remoteAddr(uintptr) (Endpoint, error)             { return Endpoint{}, errUnsupported }
func (platformSys) setOption(uintptr, int, int, int) error           { return errUnsupported }
func (platformSys) getOption(uintptr, int, int) (int, error)         { return 0, errUnsupported }
func (platformSys) ioControl(uintptr, uintptr, *int) error           { return errUnsupported }
func (platformSys) connect(uintptr, Domain, Endpoint) (bool, error)  { return true, errUnsupported }
func (platformSys) connectResult(uintptr) error                      { return errUnsupported }
func (platformSys) accept(uintptr) (uintptr, Endpoint, bool, error) {
	return 0, Endpoint{}, true, errUnsupported
}
func (platformSys) send(uintptr, []byte) (int, bool, error) { return 0, true, errUnsupported }
func (platformSys) receive(uintptr, []byte) (int, bool, error) { return 0, true, errUnsupported }
func (platformSys) sendTo(uintptr, []byte, Endpoint) (int, bool, error) {
	return 0, true, errUnsupported
}
func (platformSys) receiveFrom(uintptr, []byte) (int, Endpoint, bool, error) {
	return 0, Endpoint{}, true, errUnsupported
}

func isAddrInUse(error) bool        { return false }
func isAddrNotAvailable(error) bool { return false }
