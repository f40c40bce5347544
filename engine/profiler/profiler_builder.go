package profiler

import (
	"time"

	"github.com/charmbracelet/log"
)

// ProfilerOption is a functional option used to configure a Profiler during construction.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are logged.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(l *log.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// WithFrameStats adds renderer counters to every report.
//
// Parameters:
//   - stats: returns the cumulative counters; the report shows the change since the previous report
//
// Returns:
//   - ProfilerOption: a function that sets the stats source
func WithFrameStats(stats func() FrameStats) ProfilerOption {
	return func(p *Profiler) {
		p.stats = stats
	}
}

// WithTimeSource replaces time.Now, mainly for tests.
func WithTimeSource(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}
