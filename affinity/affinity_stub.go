//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Every GOOS outside linux/windows: proactor workers on these
// platforms run unpinned, which only costs cache locality, not
// correctness, so callers are expected to ignore this error.

package affinity

import "errors"

// Supported reports whether this build can pin an OS thread to a core.
const Supported = false

func setAffinityPlatform(cpuID int) error {
	return errors.New("affinity: not supported on this platform")
}
