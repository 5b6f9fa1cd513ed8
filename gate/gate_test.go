package gate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryAcquireRelease(t *testing.T) {
	var g Gate

	assert.True(t, g.TryAcquire())
	assert.True(t, g.Busy())
	assert.False(t, g.TryAcquire(), "second acquire must fail while held")

	g.Release()
	assert.False(t, g.Busy())
	assert.True(t, g.TryAcquire(), "acquire must succeed again after release")
}

func TestConcurrentAcquireExactlyOneWins(t *testing.T) {
	var g Gate
	var wins atomic.Int32
	var start, done sync.WaitGroup

	const callers = 32
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			start.Wait()
			if g.TryAcquire() {
				wins.Add(1)
			}
		}()
	}
	start.Done()
	done.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
