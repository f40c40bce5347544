// package window is the host the run loop pumps once per frame. It provides the platform surface descriptor, input
// callbacks and resize notifications, backed by GLFW or by a headless stand-in for runs without a display.
package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a framebuffer host with input callbacks. Callbacks run on the goroutine that calls ProcessMessages.
type Window interface {
	// SetResizeCallback registers the framebuffer resize handler, replacing any previous one.
	//
	// Parameters:
	//   - callback: receives the new framebuffer size in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback registers the vertical scroll handler. Positive deltas scroll away from the user.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback registers the handler for key presses and repeats. Codes match common.Key.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback registers the handler for key releases.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseMoveCallback registers the cursor handler, called with window-relative coordinates.
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor describes the native surface to present into.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: built by wgpuglfw from the GLFW window, nil when headless
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window has been spawned and not yet closed.
	IsRunning() bool

	// Close destroys the platform window. Closing twice is a no-op.
	Close() error

	// ProcessMessages dispatches pending platform events without blocking.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	ProcessMessages() bool

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int

	// Headless reports whether the window has no platform surface.
	Headless() bool
}

// platform is the backend behind an engineWindow.
type platform interface {
	processMessages() bool
	running() bool
	close() error
	surfaceDescriptor() *wgpu.SurfaceDescriptor
}

// engineWindow owns the size limits and callbacks. The platform reads them when it dispatches events.
type engineWindow struct {
	title string

	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	// width and height are the current framebuffer size in pixels.
	width  int
	height int

	headless bool

	// internalWindow holds the platform backend, nil until spawned.
	internalWindow platform

	onResize    func(width, height int)
	onScroll    func(delta float32)
	onKeyDown   func(keyCode uint32)
	onKeyUp     func(keyCode uint32)
	onMouseMove func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates and spawns a Window with the specified options.
// Applies default values first, then each option in order. Failing to create the platform window panics.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "perspective",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}

	var err error
	if w.headless {
		w.internalWindow = newHeadlessWindow()
	} else {
		w.internalWindow, err = newPlatformWindow(w)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	return w.internalWindow.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.internalWindow != nil && w.internalWindow.running()
}

func (w *engineWindow) Close() error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	return w.internalWindow.close()
}

func (w *engineWindow) ProcessMessages() bool {
	if w.internalWindow == nil {
		return false
	}
	return w.internalWindow.processMessages()
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Headless() bool {
	return w.headless
}

// resized records a framebuffer size change and forwards it. Zero sizes (minimised) are forwarded too; the renderer
// ignores them.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
