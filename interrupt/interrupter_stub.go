//go:build !linux && !windows
// +build !linux,!windows

// File: interrupt/interrupter_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback interrupter for platforms without a wired reactor/proactor
// backend, mirroring reactor/poller_other.go's "not supported" shape.

package interrupt

import "errors"

// New returns an error for unsupported platforms.
func New() (Interrupter, error) {
	return nil, errors.New("interrupt: this platform is not supported")
}
