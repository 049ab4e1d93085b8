// Package playback keeps server-side playback sessions over report
// timelines: a signed-speed clock, event stepping, and an in-memory
// session registry swept by an idle janitor.
package playback

import (
	"sync"
	"time"
)

// Clock tracks a position on a millisecond timeline. The position
// advances with wall time scaled by a signed speed; negative speeds
// play in reverse. Position keeps fractional milliseconds so slow
// speeds still make progress between reads.
type Clock struct {
	mu     sync.Mutex
	now    func() time.Time
	base   float64
	mark   time.Time
	speed  float64
	paused bool
}

// NewClock returns a running clock at position 0.
func NewClock(speed float64) *Clock {
	return newClock(speed, time.Now)
}

func newClock(speed float64, now func() time.Time) *Clock {
	if speed == 0 {
		speed = 1
	}
	return &Clock{now: now, mark: now(), speed: speed}
}

// Position returns the current timeline position in milliseconds.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *Clock) position() float64 {
	if c.paused {
		return c.base
	}
	elapsed := c.now().Sub(c.mark)
	return c.base + elapsed.Seconds()*1000*c.speed
}

// rebase folds the elapsed time into base so speed or pause changes
// take effect from the current position.
func (c *Clock) rebase() {
	c.base = c.position()
	c.mark = c.now()
}

// Pause freezes the clock at its current position.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebase()
	c.paused = true
}

// Resume lets a paused clock run again; running clocks are unaffected.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.mark = c.now()
	c.paused = false
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Seek jumps to the given position without changing pause state.
func (c *Clock) Seek(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = ms
	c.mark = c.now()
}

// Speed returns the signed speed.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the signed speed, keeping the current position.
func (c *Clock) SetSpeed(speed float64) {
	if speed == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebase()
	c.speed = speed
}
