package timer

import "time"

// ClockOption is a functional option used to configure a Clock during construction.
type ClockOption func(*Clock)

// WithTimeSource replaces time.Now, mainly for tests.
func WithTimeSource(now func() time.Time) ClockOption {
	return func(c *Clock) {
		c.now = now
	}
}

// WithSpriteDelay sets the period of the sprite frame counter.
func WithSpriteDelay(d time.Duration) ClockOption {
	return func(c *Clock) {
		c.spriteDelay = d
	}
}
