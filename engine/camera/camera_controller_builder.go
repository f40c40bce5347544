package camera

// ControllerOption is a functional option for configuring a Controller.
type ControllerOption func(*controller)

// WithPanSpeed sets the pan speed multiplier.
//
// Parameters:
//   - speed: world units per unit of pan input
//
// Returns:
//   - ControllerOption: functional option to set pan speed
func WithPanSpeed(speed float32) ControllerOption {
	return func(c *controller) {
		c.panSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier. A zoom input of 1 scaled by speed removes that fraction of the
// eye-target distance.
//
// Parameters:
//   - speed: zoom speed
//
// Returns:
//   - ControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) ControllerOption {
	return func(c *controller) {
		c.zoomSpeed = speed
	}
}

// WithDistanceBounds sets the minimum and maximum eye-target distance.
//
// Parameters:
//   - min: minimum distance
//   - max: maximum distance
//
// Returns:
//   - ControllerOption: functional option to set distance bounds
func WithDistanceBounds(min, max float32) ControllerOption {
	return func(c *controller) {
		c.minDistance = min
		c.maxDistance = max
	}
}
