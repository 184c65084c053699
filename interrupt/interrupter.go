// Package interrupt provides a kernel-visible wakeup primitive usable
// inside a blocking multiplexer call (reactor's EpollWait/select,
// proactor's GetQueuedCompletionStatus).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package interrupt

// Interrupter has one read side that a multiplexer can register for
// readiness, and a thread-safe Signal that makes the read side ready.
// Implementations never block on any of their methods.
type Interrupter interface {
	// ReadFD returns the descriptor the multiplexer should register for
	// read-readiness.
	ReadFD() uintptr

	// Signal makes the read side ready. Idempotent, safe from any
	// thread, safe to call from a signal handler context.
	Signal()

	// Reset drains all pending wakeup bytes and reports whether a stop
	// request was pending (i.e. whether Signal was called since the
	// last Reset). Never blocks.
	Reset() (wasSignalled bool)

	// Close releases the underlying descriptors.
	Close() error
}
