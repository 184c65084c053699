//go:build linux
// +build linux

// File: socket/socket_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking socket syscalls backing the sys interface, grounded on
// an earlier transport layer's transport_linux.go (SetNonblock,
// Accept4-with-flags, SO_ERROR retrieval for a deferred connect).
package socket

import (
	"net"

	"github.com/ohhmm/asio/asioerr"
	"golang.org/x/sys/unix"
)

type platformSys struct{}

func domainToAF(d Domain) int {
	if d == IPv6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

func typeToSock(t Type) int {
	if t == Datagram {
		return unix.SOCK_DGRAM
	}
	return unix.SOCK_STREAM
}

func sockaddrFromEndpoint(domain Domain, ep Endpoint) unix.Sockaddr {
	if domain == IPv6 {
		sa := &unix.SockaddrInet6{Port: ep.Port}
		copy(sa.Addr[:], ep.IP.To16())
		return sa
	}
	sa := &unix.SockaddrInet4{Port: ep.Port}
	copy(sa.Addr[:], ep.IP.To4())
	return sa
}

func endpointFromSockaddr(sa unix.Sockaddr) Endpoint {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, a.Addr[:])
		return Endpoint{IP: ip, Port: a.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, a.Addr[:])
		return Endpoint{IP: ip, Port: a.Port}
	default:
		return Endpoint{}
	}
}

func (platformSys) open(domain Domain, typ Type) (uintptr, error) {
	fd, err := unix.Socket(domainToAF(domain), typeToSock(typ), 0)
	if err != nil {
		return 0, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return uintptr(fd), nil
}

func (platformSys) close(fd uintptr) error {
	return unix.Close(int(fd))
}

func (platformSys) bind(fd uintptr, domain Domain, ep Endpoint) error {
	return unix.Bind(int(fd), sockaddrFromEndpoint(domain, ep))
}

func (platformSys) listen(fd uintptr, backlog int) error {
	return unix.Listen(int(fd), backlog)
}

func (platformSys) shutdown(fd uintptr, how ShutdownHow) error {
	var w int
	switch how {
	case ShutdownRead:
		w = unix.SHUT_RD
	case ShutdownWrite:
		w = unix.SHUT_WR
	default:
		w = unix.SHUT_RDWR
	}
	return unix.Shutdown(int(fd), w)
}

func (platformSys) localAddr(fd uintptr) (Endpoint, error) {
	sa, err := unix.Getsockname(int(fd))
	if err != nil {
		return Endpoint{}, err
	}
	return endpointFromSockaddr(sa), nil
}

func (platformSys) remoteAddr(fd uintptr) (Endpoint, error) {
	sa, err := unix.Getpeername(int(fd))
	if err != nil {
		return Endpoint{}, err
	}
	return endpointFromSockaddr(sa), nil
}

func (platformSys) setOption(fd uintptr, level, name, value int) error {
	return unix.SetsockoptInt(int(fd), level, name, value)
}

func (platformSys) getOption(fd uintptr, level, name int) (int, error) {
	return unix.GetsockoptInt(int(fd), level, name)
}

func (platformSys) ioControl(fd uintptr, request uintptr, arg *int) error {
	return unix.IoctlSetInt(int(fd), uint(request), *arg)
}

func (platformSys) connect(fd uintptr, domain Domain, ep Endpoint) (bool, error) {
	err := unix.Connect(int(fd), sockaddrFromEndpoint(domain, ep))
	if err == nil {
		return true, nil
	}
	if err == unix.EINPROGRESS {
		return false, nil
	}
	return true, err
}

func (platformSys) connectResult(fd uintptr) error {
	errno, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func (platformSys) accept(fd uintptr) (uintptr, Endpoint, bool, error) {
	newFD, sa, err := unix.Accept4(int(fd), unix.SOCK_NONBLOCK)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, Endpoint{}, false, nil
		}
		return 0, Endpoint{}, true, err
	}
	return uintptr(newFD), endpointFromSockaddr(sa), true, nil
}

func (platformSys) send(fd uintptr, b []byte) (int, bool, error) {
	n, err := unix.Write(int(fd), b)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, false, nil
		}
		return 0, true, err
	}
	return n, true, nil
}

func (platformSys) receive(fd uintptr, b []byte) (int, bool, error) {
	n, err := unix.Read(int(fd), b)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, false, nil
		}
		return 0, true, err
	}
	return n, true, nil
}

func (platformSys) sendTo(fd uintptr, b []byte, to Endpoint) (int, bool, error) {
	domain := IPv4
	if to.IP.To4() == nil {
		domain = IPv6
	}
	err := unix.Sendto(int(fd), b, 0, sockaddrFromEndpoint(domain, to))
	if err != nil {
		if err == unix.EAGAIN {
			return 0, false, nil
		}
		return 0, true, err
	}
	return len(b), true, nil
}

func (platformSys) receiveFrom(fd uintptr, b []byte) (int, Endpoint, bool, error) {
	n, sa, err := unix.Recvfrom(int(fd), b, 0)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, Endpoint{}, false, nil
		}
		return 0, Endpoint{}, true, err
	}
	return n, endpointFromSockaddr(sa), true, nil
}

func isAddrInUse(err error) bool {
	return err == unix.EADDRINUSE
}

func isAddrNotAvailable(err error) bool {
	return err == unix.EADDRNOTAVAIL
}

// classifyErrno maps a raw unix.Errno surfaced by the syscall layer
// onto the engine's error taxonomy. Errors that are not a unix.Errno
// (already an *asioerr.Error, or some other wrapped cause) fall back
// to asioerr.System; callers are expected to have already unwrapped
// an *asioerr.Error before reaching here.
func classifyErrno(err error) asioerr.Code {
	errno, ok := err.(unix.Errno)
	if !ok {
		return asioerr.System
	}
	switch errno {
	case unix.ECONNRESET, unix.EPIPE:
		return asioerr.ConnectionReset
	case unix.ECONNREFUSED:
		return asioerr.ConnectionRefused
	case unix.ECONNABORTED:
		return asioerr.ConnectionAborted
	case unix.EHOSTUNREACH, unix.ENETUNREACH:
		return asioerr.Unreachable
	case unix.EBADF:
		return asioerr.BadDescriptor
	case unix.EINVAL:
		return asioerr.InvalidArgument
	default:
		return asioerr.System
	}
}
