package fallback

// CompilerBarrier restricts compile-time reordering of memory reads and
// writes across the call. It performs no work and provides no runtime
// synchronization between execution contexts; its only purpose is to be a
// call the compiler cannot prove side-effect free. The noinline keeps it
// opaque to the optimizer.
//
//go:noinline
func CompilerBarrier() {}
