// Package spin provides the busy-wait exclusive-access primitive that guards
// emulated atomic cells. It exposes acquire/release semantics only: no
// timeouts, no cancellation, no reentrancy.
package spin

import (
	"runtime"
	"sync/atomic"
)

// spinBurst is the number of test-and-set attempts made before yielding the
// processor. Critical sections guarded by a Lock are a compare and a store at
// most, so a holder is expected to be gone within a burst.
const spinBurst = 100

// Lock is a 4-byte test-and-set spinlock. It is designed to be placed in
// shared memory: the zero value (and all-zero storage) is the unlocked state,
// and it holds no heap-owned resources.
type Lock uint32

// Init resets the lock to the unlocked state. Must not race with Acquire or
// Release on the same lock.
func (l *Lock) Init() {
	atomic.StoreUint32((*uint32)(l), 0)
}

// Acquire blocks until the lock is held by the caller. Acquire is not
// reentrant; acquiring a lock already held by the caller deadlocks.
func (l *Lock) Acquire() {
	for {
		for i := 0; i < spinBurst; i++ {
			if atomic.CompareAndSwapUint32((*uint32)(l), 0, 1) {
				return
			}
			Pause()
		}
		runtime.Gosched()
	}
}

// TryAcquire attempts to take the lock without spinning.
func (l *Lock) TryAcquire() bool {
	return atomic.CompareAndSwapUint32((*uint32)(l), 0, 1)
}

// Release unlocks the lock. Must only be called by the current holder.
func (l *Lock) Release() {
	atomic.StoreUint32((*uint32)(l), 0)
}

// Pause is a spin-wait hint. Not much can be done portably to calm the
// processor between test-and-set attempts; the noinline ensures the call
// itself is executed rather than optimized away.
//
//go:noinline
func Pause() {}
