package notifier

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInFlightGuard_AcquireRelease(t *testing.T) {
	guard := NewInFlightGuard()

	assert.True(t, guard.TryAcquire("business|42"))
	assert.False(t, guard.TryAcquire("business|42"), "second acquire must fail while held")
	assert.True(t, guard.TryAcquire("sports|42"), "other keys are independent")

	guard.Release("business|42")
	assert.True(t, guard.TryAcquire("business|42"), "acquire succeeds after release")
}

func TestInFlightGuard_ReleaseUnheldKeyIsSafe(t *testing.T) {
	guard := NewInFlightGuard()
	guard.Release("never-acquired")
	assert.True(t, guard.TryAcquire("never-acquired"))
}

func TestInFlightGuard_OnlyOneWinnerUnderContention(t *testing.T) {
	guard := NewInFlightGuard()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryAcquire("business|42") {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
