package engine

import (
	"time"

	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/config"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/Carmen-Shannon/perspective/engine/timer"
	"github.com/charmbracelet/log"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling logs frame rate, memory and renderer counters every interval. Zero disables profiling.
//
// Parameters:
//   - interval: the report interval
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = interval > 0
		e.profileInterval = interval
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxFrames stops Run after n rendered frames. Zero runs until the host closes.
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithCamera sets the camera state handed to the handler and renderer.
func WithCamera(c *camera.State) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithLights sets the light state handed to the handler and renderer.
func WithLights(l *light.State) EngineBuilderOption {
	return func(e *engine) {
		e.lights = l
	}
}

// WithClock replaces the frame clock.
func WithClock(c *timer.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. Defaults to logger.Default().
func WithLogger(l *log.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig applies cfg's camera, lights, clear color and log level at construction.
//
// Parameters:
//   - cfg: a validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.config = cfg
	}
}

// WithConfigWatch reloads the file at path while Run is active and applies each valid version between frames.
//
// Parameters:
//   - path: the TOML configuration file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigWatch(path string) EngineBuilderOption {
	return func(e *engine) {
		e.configPath = path
	}
}
