package compute

import "github.com/charmbracelet/log"

type jobConfig struct {
	logger         *log.Logger
	validateShader bool
}

// JobBuilderOption is a functional option applied by NewJob.
type JobBuilderOption func(*jobConfig)

// WithLogger sets the logger. Defaults to logger.Default().
func WithLogger(l *log.Logger) JobBuilderOption {
	return func(c *jobConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithShaderValidation runs the kernel through the naga front end before the pipeline is created.
//
// Parameters:
//   - enabled: true to validate
//
// Returns:
//   - JobBuilderOption: a function that toggles validation
func WithShaderValidation(enabled bool) JobBuilderOption {
	return func(c *jobConfig) {
		c.validateShader = enabled
	}
}
