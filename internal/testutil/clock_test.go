package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickingClock_AdvancesByStep(t *testing.T) {
	c := NewTickingClock(BaseTime, time.Second)

	assert.Equal(t, BaseTime, c.Now())
	assert.Equal(t, BaseTime.Add(time.Second), c.Now())
	assert.Equal(t, BaseTime.Add(2*time.Second), c.Current())
}

func TestTickingClock_ConcurrentCallsAreUnique(t *testing.T) {
	c := NewTickingClock(BaseTime, time.Millisecond)

	const n = 50
	times := make([]time.Time, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			times[i] = c.Now()
		}(i)
	}
	wg.Wait()

	seen := map[time.Time]bool{}
	for _, ts := range times {
		assert.False(t, seen[ts], "duplicate timestamp %v", ts)
		seen[ts] = true
	}
}
