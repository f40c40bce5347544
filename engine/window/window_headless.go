package window

import "github.com/cogentcore/webgpu/wgpu"

// headlessWindow runs until closed and never produces events.
type headlessWindow struct {
	open bool
}

func newHeadlessWindow() *headlessWindow {
	return &headlessWindow{open: true}
}

func (h *headlessWindow) processMessages() bool {
	return h.open
}

func (h *headlessWindow) running() bool {
	return h.open
}

func (h *headlessWindow) close() error {
	h.open = false
	return nil
}

func (h *headlessWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}
