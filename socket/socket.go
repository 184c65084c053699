// File: socket/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package socket implements the socket service: it translates socket
// operations into reactor/proactor operation records. Address-family/
// protocol modeling itself is an external collaborator out of scope
// here, so endpoints are expressed with the standard library's net.IP
// rather than a home-grown type.
package socket

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/demux"
	"github.com/ohhmm/asio/internal/record"
	"github.com/ohhmm/asio/ioctx"
)

// Domain selects an address family.
type Domain int

const (
	IPv4 Domain = iota
	IPv6
)

// Type selects a socket type.
type Type int

const (
	Stream Type = iota
	Datagram
)

// Endpoint is a minimal IP+port pair, sufficient for bind/connect/
// accept addressing without reimplementing endpoint modeling.
type Endpoint struct {
	IP   net.IP
	Port int
}

// state is the socket's lifecycle state machine.
type state int32

const (
	stateUnopened state = iota
	stateOpen
	stateConnected
	stateClosed
)

// Socket is one socket-service managed descriptor.
type Socket struct {
	ctx   *ioctx.Context
	mux   demux.Demultiplexer
	sys   sys
	arena *record.Arena

	fd       uintptr
	state    atomic.Int32
	inflight sync.WaitGroup

	token *CancelToken

	domain Domain
	typ    Type
}

// New constructs an unopened Socket bound to ctx/mux. Call Open before
// any other operation.
func New(ctx *ioctx.Context, mux demux.Demultiplexer) *Socket {
	return &Socket{ctx: ctx, mux: mux, sys: platformSys{}, arena: record.NewArena(), token: NewCancelToken()}
}

// NativeHandle returns the underlying OS descriptor, or (0, false) if
// the socket has not been opened.
func (s *Socket) NativeHandle() (uintptr, bool) {
	if state(s.state.Load()) == stateUnopened {
		return 0, false
	}
	return s.fd, true
}

func (s *Socket) checkOpen(op string) error {
	switch state(s.state.Load()) {
	case stateUnopened, stateClosed:
		return asioerr.New(op, asioerr.BadDescriptor)
	default:
		return nil
	}
}

// Open creates the underlying non-blocking socket.
func (s *Socket) Open(domain Domain, typ Type) error {
	if state(s.state.Load()) != stateUnopened {
		return asioerr.New("socket.open", asioerr.AlreadyConnected)
	}
	fd, err := s.sys.open(domain, typ)
	if err != nil {
		return asioerr.Wrap("socket.open", asioerr.System, err)
	}
	s.fd = fd
	s.domain = domain
	s.typ = typ
	s.state.Store(int32(stateOpen))
	return nil
}

// Bind binds the socket to a local endpoint.
func (s *Socket) Bind(ep Endpoint) error {
	if err := s.checkOpen("socket.bind"); err != nil {
		return err
	}
	if err := s.sys.bind(s.fd, s.domain, ep); err != nil {
		return asioerr.Wrap("socket.bind", classifyBindErr(err), err)
	}
	return nil
}

// Listen marks the socket as a passive listener.
func (s *Socket) Listen(backlog int) error {
	if err := s.checkOpen("socket.listen"); err != nil {
		return err
	}
	if err := s.sys.listen(s.fd, backlog); err != nil {
		return asioerr.Wrap("socket.listen", asioerr.System, err)
	}
	return nil
}

// Shutdown half- or fully closes the connection without releasing the
// descriptor.
func (s *Socket) Shutdown(how ShutdownHow) error {
	if err := s.checkOpen("socket.shutdown"); err != nil {
		return err
	}
	if err := s.sys.shutdown(s.fd, how); err != nil {
		return asioerr.Wrap("socket.shutdown", asioerr.System, err)
	}
	return nil
}

// ShutdownHow selects which half of the connection Shutdown affects.
type ShutdownHow int

const (
	ShutdownRead ShutdownHow = iota
	ShutdownWrite
	ShutdownBoth
)

// Close cancels every pending operation on this socket (as a local
// close, not a peer reset) and releases the descriptor. Idempotent.
//
// A reactor dispatch or a proactor worker can already be mid-Perform
// on this descriptor on another goroutine when Close runs -- Perform
// calls the raw syscall layer directly, off any queue lock, so
// CancelDescriptor alone only removes ops that have not started yet.
// Close blocks on inflight (armed around every such call by
// acquireOp) so the descriptor is never released back to the OS while
// a goroutine is still syscalling on it.
func (s *Socket) Close() error {
	prev := state(s.state.Swap(int32(stateClosed)))
	if prev == stateClosed || prev == stateUnopened {
		return nil
	}
	s.token.CancelLocal()
	hadAny, aborted := s.mux.CancelDescriptor(s.fd)
	_ = hadAny
	for _, op := range aborted {
		s.ctx.Dispatch(op.Finish)
	}
	s.mux.CancelTimer(s.token)
	s.inflight.Wait()
	return s.sys.close(s.fd)
}

// LocalEndpoint reports the locally bound address.
func (s *Socket) LocalEndpoint() (Endpoint, error) {
	if err := s.checkOpen("socket.local_endpoint"); err != nil {
		return Endpoint{}, err
	}
	return s.sys.localAddr(s.fd)
}

// RemoteEndpoint reports the connected peer address.
func (s *Socket) RemoteEndpoint() (Endpoint, error) {
	if state(s.state.Load()) != stateConnected {
		return Endpoint{}, asioerr.New("socket.remote_endpoint", asioerr.NotConnected)
	}
	return s.sys.remoteAddr(s.fd)
}

// SetOption sets a raw socket option, e.g. SO_REUSEADDR.
func (s *Socket) SetOption(level, name int, value int) error {
	if err := s.checkOpen("socket.set_option"); err != nil {
		return err
	}
	return s.sys.setOption(s.fd, level, name, value)
}

// GetOption reads back a raw socket option.
func (s *Socket) GetOption(level, name int) (int, error) {
	if err := s.checkOpen("socket.get_option"); err != nil {
		return 0, err
	}
	return s.sys.getOption(s.fd, level, name)
}

// IOControl performs a low-level ioctl, e.g. FIONBIO. The value *arg is
// passed to the ioctl as its integer argument and is not written back,
// so requests that return a value through arg are not supported.
func (s *Socket) IOControl(request uintptr, arg *int) error {
	if err := s.checkOpen("socket.io_control"); err != nil {
		return err
	}
	return s.sys.ioControl(s.fd, request, arg)
}

// sys is the platform syscall surface the Socket type drives. Linux's
// implementation (platformSys in socket_linux.go) is backed by
// golang.org/x/sys/unix; on other platforms New still succeeds but
// every syscall, starting with Open, fails (see socket_other.go) --
// the socket service itself is Linux-first,
// matching the reactor's own platform split.
type sys interface {
	open(domain Domain, typ Type) (uintptr, error)
	close(fd uintptr) error
	bind(fd uintptr, domain Domain, ep Endpoint) error
	listen(fd uintptr, backlog int) error
	shutdown(fd uintptr, how ShutdownHow) error
	localAddr(fd uintptr) (Endpoint, error)
	remoteAddr(fd uintptr) (Endpoint, error)
	setOption(fd uintptr, level, name, value int) error
	getOption(fd uintptr, level, name int) (int, error)
	ioControl(fd uintptr, request uintptr, arg *int) error

	// connect starts a non-blocking connect. done=true means the
	// result (possibly an error) is final; done=false means the
	// connect is in progress and the caller should wait for the
	// descriptor to become writable-or-excepted, then call
	// connectResult.
	connect(fd uintptr, domain Domain, ep Endpoint) (done bool, err error)
	// connectResult reads back a non-blocking connect's outcome (via
	// SO_ERROR) once the descriptor is writable.
	connectResult(fd uintptr) error

	// accept attempts one non-blocking accept. done=false means "would
	// block, try again once the listener is readable".
	accept(fd uintptr) (newFD uintptr, peer Endpoint, done bool, err error)
	send(fd uintptr, b []byte) (n int, done bool, err error)
	receive(fd uintptr, b []byte) (n int, done bool, err error)
	sendTo(fd uintptr, b []byte, to Endpoint) (n int, done bool, err error)
	receiveFrom(fd uintptr, b []byte) (n int, from Endpoint, done bool, err error)
}

func classifyBindErr(err error) asioerr.Code {
	if isAddrInUse(err) {
		return asioerr.AddressInUse
	}
	if isAddrNotAvailable(err) {
		return asioerr.AddressNotAvailable
	}
	return asioerr.System
}

// acquireOp is a small helper shared by every async entry point: it
// builds a *record.Op wired to run perform on its direction's queue
// and deliver result through ctx.Dispatch so the handler runs through
// this socket's context rather than directly on the reactor/proactor
// goroutine. A work guard is held for the operation's lifetime so a
// pending read/write/connect/accept keeps Run from returning early, the
// same way an outstanding async operation keeps io_context::run()
// running in the original Asio source.
func (s *Socket) acquireOp(perform record.PerformFunc, handler func(record.Result)) *record.Op {
	guard := s.ctx.MakeWorkGuard()
	op := s.arena.Acquire()
	op.Perform = func() (record.Result, bool) {
		s.inflight.Add(1)
		defer s.inflight.Done()
		return perform()
	}
	op.Complete = func(res record.Result) {
		guard.Release()
		s.ctx.Dispatch(func() { handler(res) })
	}
	return op
}
