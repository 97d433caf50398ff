package kiosk

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdleTimer_TouchReschedules(t *testing.T) {
	var fired atomic.Int32

	timer := NewIdleTimer(100*time.Millisecond, func() { fired.Add(1) })
	timer.Touch()

	for range 4 {
		time.Sleep(20 * time.Millisecond)
		timer.Touch()
	}

	assert.Equal(t, int32(0), fired.Load(), "touching should keep postponing expiry")

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestIdleTimer_Stop(t *testing.T) {
	var fired atomic.Int32

	timer := NewIdleTimer(5*time.Millisecond, func() { fired.Add(1) })
	timer.Touch()
	timer.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestClock_Run(t *testing.T) {
	loc := time.FixedZone("PHT", 8*3600)

	var ticks atomic.Int32

	clock := NewClock(5*time.Millisecond, loc, func(tm time.Time) {
		assert.Equal(t, loc, tm.Location())
		ticks.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		clock.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestFace(t *testing.T) {
	loc := time.FixedZone("PHT", 8*3600)
	face := Face(time.Date(2025, 4, 7, 14, 5, 0, 0, loc))

	assert.Equal(t, "2:05 PM", face.Clock)
	assert.Equal(t, "Monday, April 7, 2025", face.Date)
	assert.Equal(t, "PHT", face.Timezone)
}
