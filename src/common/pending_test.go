package common

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingInitLock(t *testing.T) {
	assert.True(t, AcquireBookingInitLock(1))
	assert.False(t, AcquireBookingInitLock(1))
	assert.True(t, AcquireBookingInitLock(2))
	ReleaseBookingInitLock(1)
	assert.True(t, AcquireBookingInitLock(1))
	ReleaseBookingInitLock(1)
	ReleaseBookingInitLock(2)
}

func TestBookingInitLockConcurrent(t *testing.T) {
	const workers = 16
	var acquired int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if AcquireBookingInitLock(99) {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), acquired)
	ReleaseBookingInitLock(99)
}
