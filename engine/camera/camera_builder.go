package camera

import "github.com/go-gl/mathgl/mgl32"

// StateOption is a functional option used to configure a State during construction.
type StateOption func(*State)

// NewState creates a perspective camera at (0, 1, 2) looking at the origin with a 80 degree field of view.
//
// Parameters:
//   - options: functional options applied over the defaults
//
// Returns:
//   - *State: the camera
func NewState(options ...StateOption) *State {
	s := &State{
		Eye:        mgl32.Vec3{0, 1, 2},
		Target:     mgl32.Vec3{0, 0, 0},
		Up:         mgl32.Vec3{0, 1, 0},
		Aspect:     16.0 / 9.0,
		Projection: ProjectionPerspective,
		Fovy:       80,
		OrthoSize:  1,
		Near:       0.1,
		Far:        1000,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithEye sets the camera position.
func WithEye(x, y, z float32) StateOption {
	return func(s *State) {
		s.Eye = mgl32.Vec3{x, y, z}
	}
}

// WithTarget sets the look-at point.
func WithTarget(x, y, z float32) StateOption {
	return func(s *State) {
		s.Target = mgl32.Vec3{x, y, z}
	}
}

// WithUp sets the up vector.
func WithUp(x, y, z float32) StateOption {
	return func(s *State) {
		s.Up = mgl32.Vec3{x, y, z}
	}
}

// WithAspect sets the aspect ratio (width / height).
func WithAspect(aspect float32) StateOption {
	return func(s *State) {
		s.Aspect = aspect
	}
}

// WithPerspective selects a perspective projection.
//
// Parameters:
//   - fovy: vertical field of view in degrees
//
// Returns:
//   - StateOption: a function that sets the projection
func WithPerspective(fovy float32) StateOption {
	return func(s *State) {
		s.Projection = ProjectionPerspective
		s.Fovy = fovy
	}
}

// WithOrthographic selects an orthographic projection.
//
// Parameters:
//   - size: half height of the view volume
//
// Returns:
//   - StateOption: a function that sets the projection
func WithOrthographic(size float32) StateOption {
	return func(s *State) {
		s.Projection = ProjectionOrthographic
		s.OrthoSize = size
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
func WithClipPlanes(near, far float32) StateOption {
	return func(s *State) {
		s.Near = near
		s.Far = far
	}
}
