package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func TestStepAveragesElapsed(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	c := NewClock(WithTimeSource(ft.now))

	ft.t = ft.t.Add(100 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, c.Step())
	assert.Equal(t, 50*time.Millisecond, c.Elapsed())

	ft.t = ft.t.Add(100 * time.Millisecond)
	assert.Equal(t, 75*time.Millisecond, c.Step())
	assert.Equal(t, 125*time.Millisecond, c.Elapsed())
	assert.InDelta(t, 0.075, c.DeltaSeconds(), 1e-6)
}

func TestSpriteFramesAdvance(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	c := NewClock(WithTimeSource(ft.now), WithSpriteDelay(10*time.Millisecond))

	ft.t = ft.t.Add(70 * time.Millisecond)
	c.Step()
	assert.Equal(t, uint32(3), c.SpriteFrames())
}
