//go:build !linux && !windows
// +build !linux,!windows

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Fallback platform probe registration for GOOS values without a
// dedicated file -- the reactor refuses to construct and every socket
// syscall fails on these platforms, but the control plane itself stays
// usable.

package control

import (
	"runtime"

	"github.com/ohhmm/asio/affinity"
)

// RegisterPlatformProbes sets the platform-agnostic debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("platform.affinity_supported", func() any { return affinity.Supported })
}
