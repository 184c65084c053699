// File: socket/ops.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchronous and asynchronous forms of every socket-service operation:
// the sync form blocks the calling goroutine on a channel fed by the
// async form's completion, rather than duplicating the syscall logic.
package socket

import (
	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/internal/record"
)

// AsyncConnect starts a non-blocking connect to ep and invokes handler
// exactly once with the outcome.
func (s *Socket) AsyncConnect(ep Endpoint, handler func(err error)) {
	if err := s.checkOpen("socket.connect"); err != nil {
		handler(err)
		return
	}
	done, err := s.sys.connect(s.fd, s.domain, ep)
	if done {
		s.finishConnect(classifyOpErr("socket.connect", s.token, err), handler)
		return
	}
	op := s.acquireOp(func() (record.Result, bool) {
		cerr := s.sys.connectResult(s.fd)
		return record.Result{Err: cerr}, true
	}, func(res record.Result) {
		s.finishConnect(classifyOpErr("socket.connect", s.token, res.Err), handler)
	})
	s.mux.StartWrite(s.fd, op)
	s.mux.StartExcept(s.fd, op)
}

func (s *Socket) finishConnect(err error, handler func(error)) {
	if err == nil {
		s.state.CompareAndSwap(int32(stateOpen), int32(stateConnected))
	}
	handler(err)
}

// Connect is the blocking form of AsyncConnect.
func (s *Socket) Connect(ep Endpoint) error {
	result := make(chan error, 1)
	s.AsyncConnect(ep, func(err error) { result <- err })
	return <-result
}

// AsyncAccept waits for an incoming connection and assigns it into
// peer, invoking handler exactly once with the outcome. peer must not
// already be open: AsyncAccept fails immediately with AlreadyConnected
// without touching the listener otherwise, matching the misuse case a
// caller reusing a live connection socket as an accept target hits.
func (s *Socket) AsyncAccept(peer *Socket, handler func(err error)) {
	if err := s.checkOpen("socket.accept"); err != nil {
		handler(err)
		return
	}
	if state(peer.state.Load()) != stateUnopened {
		handler(asioerr.New("socket.accept", asioerr.AlreadyConnected))
		return
	}
	if newFD, _, done, err := s.sys.accept(s.fd); done {
		s.deliverAccept(peer, newFD, err, handler)
		return
	}
	op := s.acquireOp(func() (record.Result, bool) {
		newFD, _, done, err := s.sys.accept(s.fd)
		if !done {
			return record.Result{}, false
		}
		return record.Result{N: int(newFD), Err: err}, true
	}, func(res record.Result) {
		s.deliverAccept(peer, uintptr(res.N), res.Err, handler)
	})
	s.mux.StartRead(s.fd, op)
}

func (s *Socket) deliverAccept(peer *Socket, newFD uintptr, err error, handler func(error)) {
	if err != nil {
		handler(classifyAcceptErr(err))
		return
	}
	peer.fd = newFD
	peer.domain = s.domain
	peer.typ = s.typ
	peer.state.Store(int32(stateConnected))
	handler(nil)
}

func classifyAcceptErr(err error) error {
	if ae, ok := err.(*asioerr.Error); ok {
		return ae
	}
	return asioerr.Wrap("socket.accept", classifyErrno(err), err)
}

// Accept is the blocking form of AsyncAccept.
func (s *Socket) Accept(peer *Socket) error {
	result := make(chan error, 1)
	s.AsyncAccept(peer, func(err error) { result <- err })
	return <-result
}

// AsyncSend writes b and invokes handler exactly once with the number
// of bytes transferred.
func (s *Socket) AsyncSend(b []byte, handler func(n int, err error)) {
	if err := s.checkOpen("socket.send"); err != nil {
		handler(0, err)
		return
	}
	if n, done, err := s.sys.send(s.fd, b); done {
		handler(n, classifyOpErr("socket.send", s.token, err))
		return
	}
	op := s.acquireOp(func() (record.Result, bool) {
		n, done, err := s.sys.send(s.fd, b)
		if !done {
			return record.Result{}, false
		}
		return record.Result{N: n, Err: err}, true
	}, func(res record.Result) {
		handler(res.N, classifyOpErr("socket.send", s.token, res.Err))
	})
	s.mux.StartWrite(s.fd, op)
}

// Send is the blocking form of AsyncSend.
func (s *Socket) Send(b []byte) (int, error) {
	type res struct {
		n   int
		err error
	}
	result := make(chan res, 1)
	s.AsyncSend(b, func(n int, err error) { result <- res{n, err} })
	r := <-result
	return r.n, r.err
}

// AsyncReceive reads into b and invokes handler exactly once. A clean
// peer close is reported as asioerr.EOF.
func (s *Socket) AsyncReceive(b []byte, handler func(n int, err error)) {
	if err := s.checkOpen("socket.receive"); err != nil {
		handler(0, err)
		return
	}
	if n, done, err := s.sys.receive(s.fd, b); done {
		handler(n, s.classifyReceive(n, err))
		return
	}
	op := s.acquireOp(func() (record.Result, bool) {
		n, done, err := s.sys.receive(s.fd, b)
		if !done {
			return record.Result{}, false
		}
		return record.Result{N: n, Err: err}, true
	}, func(res record.Result) { handler(res.N, s.classifyReceive(res.N, res.Err)) })
	s.mux.StartRead(s.fd, op)
}

func (s *Socket) classifyReceive(n int, err error) error {
	if err == nil && n == 0 {
		return asioerr.New("socket.receive", asioerr.EOF)
	}
	return classifyOpErr("socket.receive", s.token, err)
}

// Receive is the blocking form of AsyncReceive.
func (s *Socket) Receive(b []byte) (int, error) {
	type res struct {
		n   int
		err error
	}
	result := make(chan res, 1)
	s.AsyncReceive(b, func(n int, err error) { result <- res{n, err} })
	r := <-result
	return r.n, r.err
}

// AsyncSendTo writes b to a specific datagram peer.
func (s *Socket) AsyncSendTo(b []byte, to Endpoint, handler func(n int, err error)) {
	if err := s.checkOpen("socket.send_to"); err != nil {
		handler(0, err)
		return
	}
	if n, done, err := s.sys.sendTo(s.fd, b, to); done {
		handler(n, classifyOpErr("socket.send_to", s.token, err))
		return
	}
	op := s.acquireOp(func() (record.Result, bool) {
		n, done, err := s.sys.sendTo(s.fd, b, to)
		if !done {
			return record.Result{}, false
		}
		return record.Result{N: n, Err: err}, true
	}, func(res record.Result) {
		handler(res.N, classifyOpErr("socket.send_to", s.token, res.Err))
	})
	s.mux.StartWrite(s.fd, op)
}

// SendTo is the blocking form of AsyncSendTo.
func (s *Socket) SendTo(b []byte, to Endpoint) (int, error) {
	type res struct {
		n   int
		err error
	}
	result := make(chan res, 1)
	s.AsyncSendTo(b, to, func(n int, err error) { result <- res{n, err} })
	r := <-result
	return r.n, r.err
}

// AsyncReceiveFrom reads a datagram into b and reports its sender.
func (s *Socket) AsyncReceiveFrom(b []byte, handler func(n int, from Endpoint, err error)) {
	if err := s.checkOpen("socket.receive_from"); err != nil {
		handler(0, Endpoint{}, err)
		return
	}
	if n, from, done, err := s.sys.receiveFrom(s.fd, b); done {
		handler(n, from, classifyOpErr("socket.receive_from", s.token, err))
		return
	}
	var gotFrom Endpoint
	op := s.acquireOp(func() (record.Result, bool) {
		n, from, done, err := s.sys.receiveFrom(s.fd, b)
		if !done {
			return record.Result{}, false
		}
		gotFrom = from
		return record.Result{N: n, Err: err}, true
	}, func(res record.Result) {
		handler(res.N, gotFrom, classifyOpErr("socket.receive_from", s.token, res.Err))
	})
	s.mux.StartRead(s.fd, op)
}

// ReceiveFrom is the blocking form of AsyncReceiveFrom.
func (s *Socket) ReceiveFrom(b []byte) (int, Endpoint, error) {
	type res struct {
		n    int
		from Endpoint
		err  error
	}
	result := make(chan res, 1)
	s.AsyncReceiveFrom(b, func(n int, from Endpoint, err error) { result <- res{n, from, err} })
	r := <-result
	return r.n, r.from, r.err
}
