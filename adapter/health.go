// Package adapter provides integrations with external monitoring systems.
package adapter

import (
	"fmt"

	"github.com/heptiolabs/healthcheck"

	"github.com/srediag/atomic-fallback/pkg/fallback"
)

// SelfTest exercises the emulated atomics end to end: initialization, a
// failing compare-and-swap probe, a successful swap, fetch-add, and both
// barriers. It returns nil when every operation behaved as contracted.
func SelfTest() error {
	var c fallback.Uint64
	c.Init(7)

	expected := uint64(0)
	if c.CompareAndSwap(&expected, 1) {
		return fmt.Errorf("compare-and-swap succeeded against a mismatched expectation")
	}
	if expected != 7 {
		return fmt.Errorf("failed compare-and-swap observed %d, want 7", expected)
	}
	if !c.CompareAndSwap(&expected, 8) {
		return fmt.Errorf("compare-and-swap failed against a matching expectation")
	}

	if old := c.FetchAdd(2); old != 8 {
		return fmt.Errorf("fetch-add returned %d, want 8", old)
	}

	fallback.CompilerBarrier()
	fallback.FullBarrier()

	if got := c.FetchAdd(0); got != 10 {
		return fmt.Errorf("cell holds %d after barriers, want 10", got)
	}
	return nil
}

// NewHealthHandler returns a healthcheck handler whose liveness check runs
// the atomics self test, so a deployment notices a broken emulation on the
// host it actually runs on.
func NewHealthHandler() healthcheck.Handler {
	h := healthcheck.NewHandler()
	h.AddLivenessCheck("atomics-selftest", SelfTest)
	return h
}
