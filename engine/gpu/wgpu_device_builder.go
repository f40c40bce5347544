package gpu

import "github.com/cogentcore/webgpu/wgpu"

// WGPUDeviceOption is a functional option used to configure a WGPUDevice during construction.
type WGPUDeviceOption func(*WGPUDevice)

// WithSurfaceDescriptor creates a presentation surface from the platform descriptor and picks a compatible adapter.
// Omit it for a headless device.
//
// Parameters:
//   - desc: the platform surface descriptor, typically from the window
//
// Returns:
//   - WGPUDeviceOption: a function that sets the surface descriptor
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) WGPUDeviceOption {
	return func(d *WGPUDevice) {
		d.surfaceDescriptor = desc
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUDeviceOption: a function that sets the fallback preference
func WithForceFallbackAdapter(force bool) WGPUDeviceOption {
	return func(d *WGPUDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithVSync selects Fifo presentation when enabled and Immediate otherwise.
//
// Parameters:
//   - enabled: true to synchronise presentation with the display
//
// Returns:
//   - WGPUDeviceOption: a function that sets the present mode
func WithVSync(enabled bool) WGPUDeviceOption {
	return func(d *WGPUDevice) {
		if enabled {
			d.presentMode = wgpu.PresentModeFifo
		} else {
			d.presentMode = wgpu.PresentModeImmediate
		}
	}
}
