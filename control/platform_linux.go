//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux runs the epoll reactor and can pin proactor workers via
// pthread_setaffinity_np (see affinity/affinity_linux.go); both facts
// are worth having in a debug dump without reading the binary's GOOS.

package control

import (
	"runtime"

	"github.com/ohhmm/asio/affinity"
)

// RegisterPlatformProbes installs Linux's platform debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("platform.affinity_supported", func() any { return affinity.Supported })
}
