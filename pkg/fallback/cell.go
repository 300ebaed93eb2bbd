package fallback

import (
	"unsafe"

	"github.com/srediag/atomic-fallback/internal/spin"
)

// GuardReserve is the number of bytes a Uint64 cell reserves for its embedded
// exclusive-access lock. It must be at least the size of the platform's lock
// primitive; a too-small reservation fails the build below, never at runtime.
const GuardReserve = 4

// Uint64 is a 64-bit unsigned atomic cell emulated with an embedded
// busy-wait lock. The zero value is NOT ready for use: call Init first, or
// place the cell in zeroed storage (all-zero guard bytes are the unlocked
// state, all-zero value is 0, so fully zeroed memory is equivalent to
// Init(0)).
//
// A cell is shared by every execution context holding its address. It has no
// teardown: reclaiming or zeroing the containing memory destroys it. If a
// holder of the guard dies, the cell stalls forever; this layer performs no
// detection or recovery, and memory containing such cells must be fully
// reset before reuse after a crash.
type Uint64 struct {
	value uint64
	guard [GuardReserve]byte
}

// Build-time checks mirroring the cell's storage contract: the guard
// reservation fits the lock primitive, sits on the lock's alignment, and the
// value keeps 8-byte alignment for placement in mapped memory.
const (
	_ = GuardReserve - unsafe.Sizeof(spin.Lock(0))
	_ = -(unsafe.Offsetof(Uint64{}.guard) % unsafe.Alignof(spin.Lock(0)))
	_ = -(unsafe.Sizeof(Uint64{}) % 8)
)

func (c *Uint64) lock() *spin.Lock {
	return (*spin.Lock)(unsafe.Pointer(&c.guard))
}

// Init sets the guard to the unlocked state and the value to val. It must
// not be called concurrently with any other access to the same cell.
func (c *Uint64) Init(val uint64) {
	c.lock().Init()
	c.value = val
}

// CompareAndSwap atomically compares the cell against *expected and, on a
// match, stores newval and returns true. On a mismatch it returns false and
// overwrites *expected with the value actually observed.
//
// This is a strong compare-and-swap: a false result means the observed value
// genuinely differed from *expected, never a spurious failure. It might look
// like the implementation could skip the exchange when the guard is
// contended, but that would emulate a weak variant, and dependent algorithms
// rely on the strong one.
func (c *Uint64) CompareAndSwap(expected *uint64, newval uint64) bool {
	l := c.lock()
	l.Acquire()

	swapped := c.value == *expected
	*expected = c.value
	if swapped {
		c.value = newval
	}

	l.Release()
	return swapped
}

// FetchAdd atomically adds delta to the cell, wrapping modulo 2^64, and
// returns the value held before the addition.
func (c *Uint64) FetchAdd(delta int64) uint64 {
	l := c.lock()
	l.Acquire()

	old := c.value
	c.value = old + uint64(delta)

	l.Release()
	return old
}
