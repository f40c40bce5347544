// package timer measures frame time for the run loop.
package timer

import "time"

// Clock tracks frame deltas and a sprite frame counter that advances once every SpriteDelay.
// Deltas are smoothed by averaging the elapsed time of consecutive steps.
type Clock struct {
	now   func() time.Time
	start time.Time

	elapsedAvg time.Duration
	frame      time.Duration

	spriteDelay   time.Duration
	spriteCounter time.Duration
	spriteFrames  uint32
}

// NewClock starts a clock at the current time.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Clock: the clock
func NewClock(options ...ClockOption) *Clock {
	c := &Clock{
		now:         time.Now,
		spriteDelay: 70 * time.Millisecond,
	}
	for _, opt := range options {
		opt(c)
	}
	c.start = c.now()
	return c
}

// Step samples the clock and returns the time since the previous step.
func (c *Clock) Step() time.Duration {
	previous := c.elapsedAvg
	elapsed := c.now().Sub(c.start)
	c.elapsedAvg = (c.elapsedAvg + elapsed) / 2
	c.frame = c.elapsedAvg - previous

	c.spriteCounter += c.frame
	if c.spriteDelay > 0 && c.spriteCounter >= c.spriteDelay {
		steps := c.spriteCounter / c.spriteDelay
		c.spriteCounter -= steps * c.spriteDelay
		c.spriteFrames += uint32(steps)
	}
	return c.frame
}

// Delta returns the last frame time.
func (c *Clock) Delta() time.Duration { return c.frame }

// DeltaSeconds returns the last frame time in seconds.
func (c *Clock) DeltaSeconds() float32 { return float32(c.frame.Seconds()) }

// Elapsed returns the smoothed time since the clock started.
func (c *Clock) Elapsed() time.Duration { return c.elapsedAvg }

// SpriteFrames returns how many SpriteDelay periods have passed.
func (c *Clock) SpriteFrames() uint32 { return c.spriteFrames }
