//go:build !windows

package fallback

import "golang.org/x/sys/unix"

// The barrier's syscall target is resolved once, so a FullBarrier call reads
// no mutable process-wide state. Some barriers are placed in signal handlers.
var barrierPID = unix.Getpid()

// FullBarrier forces a full memory synchronization point across execution
// contexts by issuing an inherently serializing system call against the
// current process, discarding the outcome. It is used only when the platform
// provides no direct fence instruction.
//
// Sending signal 0 performs an existence check only; kernels old enough to
// need this emulation include a full barrier while looking up the pid. The
// call allocates nothing and takes no locks, so it is safe to invoke from an
// asynchronous signal context, even while a cell guard is held elsewhere.
func FullBarrier() {
	_ = unix.Kill(barrierPID, 0)
}
