//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// pthread_setaffinity_np via cgo -- Go's runtime exposes no portable
// wrapper for thread affinity, and golang.org/x/sys/unix's
// sched_setaffinity operates on a pid/tid, which would require
// resolving the current goroutine's OS thread id separately; calling
// the pthread form directly on the calling thread avoids that step.

package affinity

/*
#define _GNU_SOURCE
#include <sched.h>
#include <pthread.h>
#include <errno.h>

static int asio_set_affinity(int cpu) {
	cpu_set_t set;
	CPU_ZERO(&set);
	CPU_SET(cpu, &set);
	return pthread_setaffinity_np(pthread_self(), sizeof(set), &set);
}
*/
import "C"
import "fmt"

// Supported reports whether this build can pin an OS thread to a core.
const Supported = true

// setAffinityPlatform pins the calling OS thread to cpuID.
func setAffinityPlatform(cpuID int) error {
	if ret := C.asio_set_affinity(C.int(cpuID)); ret != 0 {
		return fmt.Errorf("affinity: pthread_setaffinity_np failed, code %d", ret)
	}
	return nil
}
