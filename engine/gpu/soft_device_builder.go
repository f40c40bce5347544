package gpu

// SoftDeviceOption is a functional option used to configure a SoftDevice during construction.
type SoftDeviceOption func(*SoftDevice)

// WithKernel registers a compute kernel for an entry point.
//
// Parameters:
//   - entryPoint: the WGSL entry point name the kernel stands in for
//   - k: the CPU implementation
//
// Returns:
//   - SoftDeviceOption: a function that registers the kernel
func WithKernel(entryPoint string, k Kernel) SoftDeviceOption {
	return func(d *SoftDevice) {
		d.kernels[entryPoint] = k
	}
}
