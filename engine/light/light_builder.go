package light

import "github.com/go-gl/mathgl/mgl32"

// StateOption is a functional option used to configure a State during construction.
type StateOption func(*State)

// NewState creates a warm point light at (2, 1, 2) over a dim blue ambient fill.
//
// Parameters:
//   - options: functional options applied over the defaults
//
// Returns:
//   - *State: the light rig
func NewState(options ...StateOption) *State {
	s := &State{
		Point: Point{
			Position: mgl32.Vec3{2, 1, 2},
			Color:    mgl32.Vec3{0.95, 0.35, 0.25},
		},
		Ambient: Ambient{
			Direction:   mgl32.Vec3{0, -1, 0},
			LightColor:  mgl32.Vec3{0.03, 0.05, 0.075},
			ShadowColor: mgl32.Vec3{0.03, 0.05, 0.075},
		},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithPointPosition sets the point light position.
func WithPointPosition(x, y, z float32) StateOption {
	return func(s *State) {
		s.Point.Position = mgl32.Vec3{x, y, z}
	}
}

// WithPointColor sets the point light color.
//
// Parameters:
//   - r, g, b: linear color components
//
// Returns:
//   - StateOption: a function that sets the point light color
func WithPointColor(r, g, b float32) StateOption {
	return func(s *State) {
		s.Point.Color = mgl32.Vec3{r, g, b}
	}
}

// WithAmbient sets the ambient fill.
//
// Parameters:
//   - direction: direction the light travels
//   - lightColor: color added to faces turned toward the light
//   - shadowColor: color added to faces turned away
//
// Returns:
//   - StateOption: a function that sets the ambient light
func WithAmbient(direction, lightColor, shadowColor mgl32.Vec3) StateOption {
	return func(s *State) {
		s.Ambient = Ambient{Direction: direction, LightColor: lightColor, ShadowColor: shadowColor}
	}
}
