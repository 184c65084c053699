// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral CPU pinning for the proactor's worker goroutines.
// Each worker calls SetAffinity once, from its own goroutine, so it
// keeps running on one core for as long as it lives -- a blocking
// syscall that migrates mid-op would otherwise cool another worker's
// cache for no benefit. Platform specifics live in affinity_linux.go,
// affinity_windows.go and affinity_stub.go, selected by build tag.

package affinity

// SetAffinity pins the calling OS thread to cpuID on supported
// platforms. Must be called from the goroutine that should be pinned
// -- it affects the current thread, and goroutines can otherwise hop
// between OS threads between calls. Returns an error on platforms
// without a pinning implementation; callers are expected to treat that
// as best-effort and proceed unpinned.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}
