//go:build windows
// +build windows

// control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows runs the IOCP proactor and can pin proactor workers via
// SetThreadAffinityMask (see affinity/affinity_windows.go); both facts
// are worth having in a debug dump without reading the binary's GOOS.

package control

import (
	"runtime"

	"github.com/ohhmm/asio/affinity"
)

// RegisterPlatformProbes installs Windows's platform debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("platform.affinity_supported", func() any { return affinity.Supported })
}
