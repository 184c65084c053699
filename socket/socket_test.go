//go:build linux
// +build linux

package socket

import (
	"net"
	"testing"

	"github.com/ohhmm/asio/asioerr"
	"github.com/ohhmm/asio/ioctx"
	"golang.org/x/sys/unix"
)

func TestEchoOverTCPLoopback(t *testing.T) {
	ctx, mux, err := ioctx.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	defer mux.Close()
	guard := ctx.MakeWorkGuard()

	listener := New(ctx, mux)
	if err := listener.Open(IPv4, Stream); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := listener.SetOption(1 /*SOL_SOCKET*/, 2 /*SO_REUSEADDR*/, 1); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if err := listener.Bind(Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 0}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := listener.Listen(1); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	local, err := listener.LocalEndpoint()
	if err != nil {
		t.Fatalf("LocalEndpoint: %v", err)
	}

	done := make(chan struct{})
	var serverErr, clientErr error
	var echoed []byte

	conn := New(ctx, mux)
	listener.AsyncAccept(conn, func(err error) {
		if err != nil {
			serverErr = err
			close(done)
			return
		}
		buf := make([]byte, 5)
		conn.AsyncReceive(buf, func(n int, err error) {
			if err != nil {
				serverErr = err
				close(done)
				return
			}
			conn.AsyncSend(buf[:n], func(_ int, err error) {
				serverErr = err
				conn.Close()
			})
		})
	})

	client := New(ctx, mux)
	if err := client.Open(IPv4, Stream); err != nil {
		t.Fatalf("Open client: %v", err)
	}
	client.AsyncConnect(Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: local.Port}, func(err error) {
		if err != nil {
			clientErr = err
			close(done)
			return
		}
		client.AsyncSend([]byte("hello"), func(_ int, err error) {
			if err != nil {
				clientErr = err
				close(done)
				return
			}
			buf := make([]byte, 5)
			client.AsyncReceive(buf, func(n int, err error) {
				echoed = append([]byte{}, buf[:n]...)
				clientErr = err
				client.Close()
				listener.Close()
				guard.Release()
				close(done)
			})
		})
	})

	runErrCh := make(chan error, 1)
	go func() {
		_, err := ctx.Run()
		runErrCh <- err
	}()

	<-done
	if err := <-runErrCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if serverErr != nil {
		t.Fatalf("server side error: %v", serverErr)
	}
	if clientErr != nil {
		t.Fatalf("client side error: %v", clientErr)
	}
	if string(echoed) != "hello" {
		t.Fatalf("echoed = %q, want %q", echoed, "hello")
	}
}

func TestAsyncAcceptFailsWithAlreadyConnectedWhenPeerAlreadyOpen(t *testing.T) {
	ctx, mux, err := ioctx.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	defer mux.Close()

	listener := New(ctx, mux)
	if err := listener.Open(IPv4, Stream); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := listener.Bind(Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 0}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := listener.Listen(1); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	alreadyOpen := New(ctx, mux)
	if err := alreadyOpen.Open(IPv4, Stream); err != nil {
		t.Fatalf("Open alreadyOpen: %v", err)
	}
	defer alreadyOpen.Close()

	gotErr := listener.Accept(alreadyOpen)
	listener.Close()
	if asioerr.CodeOf(gotErr) != asioerr.AlreadyConnected {
		t.Fatalf("Accept onto an open peer: got %v, want AlreadyConnected", gotErr)
	}
}

// TestReceiveAfterPeerResetYieldsConnectionReset forces the client to
// RST the connection on close (SO_LINGER with a zero timeout) and
// checks the server's in-flight receive surfaces ConnectionReset, not
// a raw errno, per the error taxonomy every socket operation is
// expected to translate into.
func TestReceiveAfterPeerResetYieldsConnectionReset(t *testing.T) {
	ctx, mux, err := ioctx.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	defer mux.Close()
	guard := ctx.MakeWorkGuard()

	listener := New(ctx, mux)
	if err := listener.Open(IPv4, Stream); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := listener.SetOption(1 /*SOL_SOCKET*/, 2 /*SO_REUSEADDR*/, 1); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if err := listener.Bind(Endpoint{IP: net.IPv4(127, 0, 0, 1), Port: 0}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := listener.Listen(1); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	local, err := listener.LocalEndpoint()
	if err != nil {
		t.Fatalf("LocalEndpoint: %v", err)
	}

	done := make(chan struct{})
	var gotErr error

	conn := New(ctx, mux)
	listener.AsyncAccept(conn, func(err error) {
		if err != nil {
			t.Errorf("accept: %v", err)
			close(done)
			return
		}
		buf := make([]byte, 16)
		conn.AsyncReceive(buf, func(_ int, err error) {
			gotErr = err
			guard.Release()
			close(done)
		})
	})

	client := New(ctx, mux)
	if err := client.Open(IPv4, Stream); err != nil {
		t.Fatalf("Open client: %v", err)
	}
	client.AsyncConnect(local, func(err error) {
		if err != nil {
			t.Errorf("connect: %v", err)
			return
		}
		fd, _ := client.NativeHandle()
		if err := unix.SetsockoptLinger(int(fd), unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0}); err != nil {
			t.Errorf("SetsockoptLinger: %v", err)
			return
		}
		client.Close()
	})

	go ctx.Run()
	<-done
	listener.Close()

	if asioerr.CodeOf(gotErr) != asioerr.ConnectionReset {
		t.Fatalf("receive after peer reset: got %v, want ConnectionReset", gotErr)
	}
}
