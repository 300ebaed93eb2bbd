package spin

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireRelease(t *testing.T) {
	var l Lock
	l.Init()

	l.Acquire()
	assert.Equal(t, false, l.TryAcquire())
	l.Release()
	assert.Equal(t, true, l.TryAcquire())
	l.Release()
}

func TestInitUnlocks(t *testing.T) {
	var l Lock
	l.Acquire()
	// a reset of the containing memory must leave the lock acquirable
	l.Init()
	assert.Equal(t, true, l.TryAcquire())
	l.Release()
}

func TestMutualExclusion(t *testing.T) {
	const (
		workers    = 8
		iterations = 20000
	)
	var (
		l       Lock
		counter int
		wg      sync.WaitGroup
	)
	l.Init()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				l.Acquire()
				counter++
				l.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
}
