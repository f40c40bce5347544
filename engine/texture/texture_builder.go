package texture

import "github.com/Carmen-Shannon/perspective/common"

// RegistryOption is a functional option used to configure a Registry during construction.
type RegistryOption func(*Registry)

// WithSampler overrides the sampler settings of every texture the registry uploads.
// Zero fields keep the defaults: clamp-to-edge addressing, linear magnification and nearest minification.
//
// Parameters:
//   - sampler: the sampler settings
//
// Returns:
//   - RegistryOption: a function that sets the sampler settings
func WithSampler(sampler common.SamplerStagingData) RegistryOption {
	return func(r *Registry) {
		r.sampler = sampler
	}
}
