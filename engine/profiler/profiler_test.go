package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(logger.Options{Writer: &buf})
	require.NoError(t, err)

	now := time.Unix(0, 0)
	stats := FrameStats{}
	p := NewProfiler(
		WithLogger(l),
		WithTimeSource(func() time.Time { return now }),
		WithFrameStats(func() FrameStats { return stats }),
	)

	now = now.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())

	now = now.Add(500 * time.Millisecond)
	stats = FrameStats{Presented: 2, Skipped: 1}
	assert.True(t, p.Tick())
	assert.InDelta(t, 2.0, p.FPS(), 1e-9)
	assert.Contains(t, buf.String(), "skipped=1")
}
