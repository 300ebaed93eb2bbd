// Package shm provides named shared memory regions hosting the emulated
// atomic cells of pkg/fallback, so independent processes can operate on the
// same cells.
//
// A region is a memory-mapped segment with a small fenced header (magic,
// version, state, reset generation) followed by an 8-byte aligned payload in
// which cells are placed at caller-chosen offsets. Regions are created by
// one process and attached by others; attachers wait for the creator's
// header commit. After a crash that may have left a cell guard locked by a
// vanished holder, Reset zeroes the payload back to a usable state.
//
// The package is instrumented with prometheus counters and accepts optional
// OpenTelemetry instruments in Config.
//
// Example usage:
//
//	region, err := shm.Open(ctx, shm.Config{Name: "counters", Size: 4096, Create: true})
//	// ...
//	c, err := region.PlaceUint64(0, 0)
//	c.FetchAdd(1)
package shm
