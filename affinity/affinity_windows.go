//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// SetThreadAffinityMask via a lazily loaded kernel32.dll: a separate
// call from the IOCP proactor's golang.org/x/sys/windows usage, since
// that package has no thread-affinity wrapper of its own.

package affinity

import "syscall"

// Supported reports whether this build can pin an OS thread to a core.
const Supported = true

// setAffinityPlatform pins the calling OS thread to cpuID.
func setAffinityPlatform(cpuID int) error {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	getCurrentThread := kernel32.NewProc("GetCurrentThread")
	setThreadAffinityMask := kernel32.NewProc("SetThreadAffinityMask")

	hThread, _, _ := getCurrentThread.Call()
	mask := uintptr(1) << cpuID
	if ret, _, err := setThreadAffinityMask.Call(hThread, mask); ret == 0 {
		return err
	}
	return nil
}
