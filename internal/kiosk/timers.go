package kiosk

import (
	"context"
	"sync"
	"time"
)

// IdleTimer fires onIdle once after a period without interaction.
// Every Touch cancels the pending expiry and schedules a new one.
type IdleTimer struct {
	onIdle  func()
	timer   *time.Timer
	timeout time.Duration
	gen     uint64
	mu      sync.Mutex
}

// NewIdleTimer creates a stopped idle timer.
func NewIdleTimer(timeout time.Duration, onIdle func()) *IdleTimer {
	return &IdleTimer{timeout: timeout, onIdle: onIdle}
}

// Touch records an interaction and restarts the countdown.
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}

	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.timeout, func() { t.fire(gen) })
}

// Stop cancels any pending expiry.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// fire ignores expiries superseded by a later Touch or Stop.
func (t *IdleTimer) fire(gen uint64) {
	t.mu.Lock()
	current := gen == t.gen
	t.mu.Unlock()

	if current {
		t.onIdle()
	}
}

// Clock reports the current time in the display's location on a fixed interval.
type Clock struct {
	loc      *time.Location
	now      func() time.Time
	onTick   func(time.Time)
	interval time.Duration
}

// NewClock creates a clock ticking every interval.
func NewClock(interval time.Duration, loc *time.Location, onTick func(time.Time)) *Clock {
	if loc == nil {
		loc = time.Local
	}

	return &Clock{interval: interval, loc: loc, now: time.Now, onTick: onTick}
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Run ticks immediately and then every interval until ctx is done.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.onTick(c.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.onTick(c.Now())
		}
	}
}

// ClockFace is the formatted time shown on the display.
type ClockFace struct {
	Time     time.Time `json:"time"`
	Clock    string    `json:"clock"`
	Date     string    `json:"date"`
	Timezone string    `json:"timezone"`
}

// Face formats t for the display.
func Face(t time.Time) ClockFace {
	return ClockFace{
		Time:     t,
		Clock:    t.Format("3:04 PM"),
		Date:     t.Format("Monday, January 2, 2006"),
		Timezone: t.Location().String(),
	}
}
