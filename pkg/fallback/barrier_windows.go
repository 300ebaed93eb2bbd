//go:build windows

package fallback

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var procFlushProcessWriteBuffers = windows.
	NewLazySystemDLL("kernel32.dll").
	NewProc("FlushProcessWriteBuffers")

func init() {
	// Resolve eagerly so a FullBarrier call never takes the loader lock.
	if err := procFlushProcessWriteBuffers.Find(); err != nil {
		panic("fallback: FlushProcessWriteBuffers unavailable: " + err.Error())
	}
}

// FullBarrier forces a full memory synchronization point across execution
// contexts by issuing an inherently serializing system call against the
// current process, discarding the outcome. On Windows the kernel provides
// FlushProcessWriteBuffers for exactly this purpose.
//
// The call allocates nothing and takes no locks, so it is safe to invoke
// from an asynchronous interrupt context, even while a cell guard is held
// elsewhere.
func FullBarrier() {
	_, _, _ = syscall.SyscallN(procFlushProcessWriteBuffers.Addr())
}
