// Package fallback implements 64-bit atomic operations and memory/compiler
// barriers in software, for platforms and toolchains without native support
// for them.
//
// The package is the last-resort substitute selected by build-time feature
// detection in the consuming system; when native 64-bit atomic instructions
// exist they are always preferred. Every operation here trades performance
// for correctness: a Uint64 cell is a plain 64-bit value guarded by an
// embedded busy-wait lock, and the full memory barrier is emulated with a
// serializing system call.
//
// Example usage:
//
//	var c fallback.Uint64
//	c.Init(0)
//	old := c.FetchAdd(1)
//	expected := old + 1
//	swapped := c.CompareAndSwap(&expected, 42)
//
// Cells may be placed in shared memory mapped into several processes; see
// the pkg/shm package.
package fallback
