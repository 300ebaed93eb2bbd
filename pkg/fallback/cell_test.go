package fallback

import (
	"math"
	"sync"
	"testing"

	queuepkg "github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
)

func TestInitThenProbe(t *testing.T) {
	var c Uint64
	c.Init(42)

	// zero-delta fetch-add probe
	assert.Equal(t, uint64(42), c.FetchAdd(0))

	// failing compare-and-swap probe
	expected := uint64(0)
	assert.Equal(t, false, c.CompareAndSwap(&expected, 1))
	assert.Equal(t, uint64(42), expected)
	assert.Equal(t, uint64(42), c.FetchAdd(0))
}

func TestCompareAndSwapSuccess(t *testing.T) {
	var c Uint64
	c.Init(7)

	expected := uint64(7)
	assert.Equal(t, true, c.CompareAndSwap(&expected, 8))
	assert.Equal(t, uint64(7), expected, "expected must be untouched on success")
	assert.Equal(t, uint64(8), c.FetchAdd(0))
}

func TestCompareAndSwapFailure(t *testing.T) {
	var c Uint64
	c.Init(7)

	expected := uint64(9)
	assert.Equal(t, false, c.CompareAndSwap(&expected, 8))
	assert.Equal(t, uint64(7), expected, "expected must hold the observed value on failure")
	assert.Equal(t, uint64(7), c.FetchAdd(0), "failed swap must leave the cell unchanged")
}

func TestFetchAddReturnsOldValue(t *testing.T) {
	var c Uint64
	c.Init(100)

	assert.Equal(t, uint64(100), c.FetchAdd(5))
	assert.Equal(t, uint64(105), c.FetchAdd(-5))
	assert.Equal(t, uint64(100), c.FetchAdd(0))
}

func TestFetchAddWraparound(t *testing.T) {
	var c Uint64
	c.Init(math.MaxUint64)

	assert.Equal(t, uint64(math.MaxUint64), c.FetchAdd(1))
	assert.Equal(t, uint64(0), c.FetchAdd(0))

	c.Init(5)
	assert.Equal(t, uint64(5), c.FetchAdd(-7))
	assert.Equal(t, uint64(math.MaxUint64-1), c.FetchAdd(0))
}

func TestFetchAddStress(t *testing.T) {
	const (
		workers    = 8
		iterations = 10000
	)
	var c Uint64
	c.Init(0)

	pool, err := ants.NewPool(workers)
	assert.Nil(t, err)
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				c.FetchAdd(1)
			}
		})
		assert.Nil(t, err)
	}
	wg.Wait()

	assert.Equal(t, uint64(workers*iterations), c.FetchAdd(0), "no update may be lost")
}

// TestCompareAndSwapLinearizable drives concurrent CAS increments and checks
// that the observed pre-values form a permutation of 0..total-1: every
// successful swap saw a distinct value, which is exactly what a valid serial
// interleaving produces.
func TestCompareAndSwapLinearizable(t *testing.T) {
	const (
		workers    = 4
		increments = 2000
	)
	var c Uint64
	c.Init(0)

	history := queuepkg.New(workers * increments)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			expected := c.FetchAdd(0)
			for n := 0; n < increments; n++ {
				// on failure the strong swap refreshed expected with the
				// observed value, so the retry starts from fresh state
				for !c.CompareAndSwap(&expected, expected+1) {
				}
				if err := history.Put(expected); err != nil {
					t.Error(err)
					return
				}
				expected++
			}
		}()
	}
	wg.Wait()

	total := int64(workers * increments)
	assert.Equal(t, total, history.Len())
	seen := make(map[uint64]bool, total)
	items, err := history.Get(total)
	assert.Nil(t, err)
	for _, item := range items {
		old := item.(uint64)
		assert.Less(t, old, uint64(total))
		assert.False(t, seen[old], "pre-value observed twice: %d", old)
		seen[old] = true
	}
	assert.Equal(t, uint64(total), c.FetchAdd(0))
}

func TestMixedOperationsConverge(t *testing.T) {
	const workers = 6
	var c Uint64
	c.Init(0)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if id%2 == 0 {
				for j := 0; j < 1000; j++ {
					c.FetchAdd(1)
				}
				return
			}
			expected := c.FetchAdd(0)
			for j := 0; j < 1000; j++ {
				for !c.CompareAndSwap(&expected, expected+1) {
				}
				expected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(workers*1000), c.FetchAdd(0))
}
