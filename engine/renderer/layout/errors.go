package layout

import "fmt"

// ConfigurationError reports a pipeline whose bind group layouts do not match the Set contract.
// It is raised at construction and never recovered from at runtime.
type ConfigurationError struct {
	Pipeline string
	// Group is the first mismatching group, -1 when the count itself is wrong.
	Group  Group
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Group < 0 {
		return fmt.Sprintf("pipeline %q: invalid bind group layouts: %s", e.Pipeline, e.Reason)
	}
	return fmt.Sprintf("pipeline %q: invalid %s bind group layout (group %d): %s", e.Pipeline, e.Group, int(e.Group), e.Reason)
}
