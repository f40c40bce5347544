// package engine runs the frame loop that ties a host window, the sprite renderer and the application together.
// Each frame the clock is stepped, the handler updates the camera and lights it owns, the renderer uploads them and
// draws, and the host pumps its events. Resizes and configuration reloads arriving between frames are applied at the
// start of the next one.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/config"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/Carmen-Shannon/perspective/engine/profiler"
	"github.com/Carmen-Shannon/perspective/engine/renderer"
	"github.com/Carmen-Shannon/perspective/engine/timer"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// Host is the platform side of the loop. window.Window satisfies it.
type Host interface {
	// ProcessMessages dispatches pending events and reports whether the host is still open.
	ProcessMessages() bool

	// SetResizeCallback registers the framebuffer resize listener.
	SetResizeCallback(callback func(width, height int))
}

// Renderer is the part of renderer.Renderer the loop drives.
type Renderer interface {
	UpdateAnimationAndCamera(dt time.Duration, cam *camera.State, lights *light.State)
	RenderFrame() error
	Resize(width, height uint32) error
	SetClearColor(c wgpu.Color)
	Stats() renderer.Stats
}

// Handler is the application hook called once per frame before the renderer reads the camera and lights.
type Handler interface {
	// Update advances application state. Returning an error stops the loop.
	//
	// Parameters:
	//   - dt: the frame delta
	//   - cam: the camera the renderer will upload this frame
	//   - lights: the lights the renderer will upload this frame
	//
	// Returns:
	//   - error: error to stop the loop with
	Update(dt time.Duration, cam *camera.State, lights *light.State) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(dt time.Duration, cam *camera.State, lights *light.State) error

func (f HandlerFunc) Update(dt time.Duration, cam *camera.State, lights *light.State) error {
	return f(dt, cam, lights)
}

// Engine is the frame loop.
type Engine interface {
	// Run drives frames until the host closes, Quit is called, ctx ends or the frame limit is reached.
	//
	// Parameters:
	//   - ctx: cancels the loop and any configuration watch
	//
	// Returns:
	//   - error: the first fatal render or handler error, nil on a normal stop
	Run(ctx context.Context) error

	// Quit stops the loop after the current frame. Safe to call from any goroutine, more than once.
	Quit()

	// Camera returns the camera the loop passes to the handler and renderer.
	Camera() *camera.State

	// Lights returns the lights the loop passes to the handler and renderer.
	Lights() *light.State

	// Clock returns the frame clock.
	Clock() *timer.Clock

	// Frames returns the number of frames rendered.
	Frames() uint64
}

// engine implements the Engine interface.
type engine struct {
	host     Host
	renderer Renderer
	handler  Handler

	clock  *timer.Clock
	camera *camera.State
	lights *light.State
	logger *log.Logger

	profiler         *profiler.Profiler
	profileInterval  time.Duration
	profilingEnabled bool

	config     *config.Config
	configPath string

	// renderFrameLimit is the minimum frame duration; 0 = uncapped
	renderFrameLimit time.Duration
	maxFrames        uint64
	frames           uint64

	// mu guards the values queued from callbacks and the configuration watcher.
	mu            *sync.Mutex
	pendingResize *[2]uint32
	pendingConfig *config.Config

	quitChannel chan struct{}
	quitOnce    sync.Once
}

var _ Engine = &engine{}

// NewEngine creates the loop. The handler may be nil.
//
// Parameters:
//   - host: the window or headless host
//   - r: the renderer
//   - handler: the per-frame application hook
//   - options: functional options
//
// Returns:
//   - Engine: the loop, not yet running
func NewEngine(host Host, r Renderer, handler Handler, options ...EngineBuilderOption) Engine {
	e := &engine{
		host:        host,
		renderer:    r,
		handler:     handler,
		logger:      logger.Default(),
		mu:          &sync.Mutex{},
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.clock == nil {
		e.clock = timer.NewClock()
	}
	if e.camera == nil {
		e.camera = camera.NewState()
	}
	if e.lights == nil {
		e.lights = light.NewState()
	}
	if e.config != nil {
		e.applyConfig(e.config)
	}
	if e.profilingEnabled {
		e.profiler = profiler.NewProfiler(
			profiler.WithInterval(e.profileInterval),
			profiler.WithLogger(e.logger),
			profiler.WithFrameStats(func() profiler.FrameStats {
				s := e.renderer.Stats()
				return profiler.FrameStats{Presented: s.Presented, Skipped: s.Skipped}
			}),
		)
	}

	host.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		e.mu.Lock()
		e.pendingResize = &[2]uint32{uint32(width), uint32(height)}
		e.mu.Unlock()
	})
	return e
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if e.configPath != "" {
		go e.watchConfig(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		default:
		}

		start := time.Now()
		if err := e.frame(); err != nil {
			return err
		}
		if !e.host.ProcessMessages() {
			return nil
		}
		if e.maxFrames > 0 && e.frames >= e.maxFrames {
			return nil
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// frame runs one iteration: pending changes, clock, handler, uniforms, draw.
func (e *engine) frame() error {
	e.applyPending()

	dt := e.clock.Step()
	if e.handler != nil {
		if err := e.handler.Update(dt, e.camera, e.lights); err != nil {
			return fmt.Errorf("handler update at frame %d: %w", e.frames, err)
		}
	}
	e.renderer.UpdateAnimationAndCamera(dt, e.camera, e.lights)
	if err := e.renderer.RenderFrame(); err != nil {
		e.logger.Error("render failed, stopping", "frame", e.frames, "err", err)
		return fmt.Errorf("render frame %d: %w", e.frames, err)
	}
	e.frames++

	if e.profiler != nil {
		e.profiler.Tick()
	}
	return nil
}

// applyPending applies the latest queued resize and configuration.
func (e *engine) applyPending() {
	e.mu.Lock()
	resize, cfg := e.pendingResize, e.pendingConfig
	e.pendingResize, e.pendingConfig = nil, nil
	e.mu.Unlock()

	if resize != nil {
		if err := e.renderer.Resize(resize[0], resize[1]); err != nil {
			e.logger.Error("resize failed", "width", resize[0], "height", resize[1], "err", err)
		} else {
			e.camera.SetViewport(resize[0], resize[1])
			e.logger.Debug("resized", "width", resize[0], "height", resize[1])
		}
	}
	if cfg != nil {
		e.applyConfig(cfg)
		e.logger.Info("configuration reloaded", "path", e.configPath)
	}
}

// applyConfig copies the camera, light, clear color and log level of cfg. Window size is not hot reloaded.
func (e *engine) applyConfig(cfg *config.Config) {
	cfg.ApplyCamera(e.camera)
	cfg.ApplyLight(e.lights)
	cc := cfg.Renderer.ClearColor
	e.renderer.SetClearColor(wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]})
	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		e.logger.SetLevel(level)
	}
	e.config = cfg
}

func (e *engine) watchConfig(ctx context.Context) {
	err := config.Watch(ctx, e.configPath, func(cfg *config.Config) {
		e.mu.Lock()
		e.pendingConfig = cfg
		e.mu.Unlock()
	}, func(err error) {
		e.logger.Warn("configuration reload failed", "path", e.configPath, "err", err)
	})
	if err != nil {
		e.logger.Error("configuration watch stopped", "path", e.configPath, "err", err)
	}
}

// Quit signals the loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Camera() *camera.State {
	return e.camera
}

func (e *engine) Lights() *light.State {
	return e.lights
}

func (e *engine) Clock() *timer.Clock {
	return e.clock
}

func (e *engine) Frames() uint64 {
	return e.frames
}
