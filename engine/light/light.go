// package light holds the light state the host owns and the renderer uploads every frame.
package light

import "github.com/go-gl/mathgl/mgl32"

// Point is a single point light.
type Point struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// Ambient is a directional fill light with separate colors for lit and unlit faces.
type Ambient struct {
	Direction   mgl32.Vec3
	LightColor  mgl32.Vec3
	ShadowColor mgl32.Vec3
}

// State is the light rig handed to the renderer by reference every frame. Fields may be mutated freely between frames.
type State struct {
	Point   Point
	Ambient Ambient
}

// PointUniform returns the GPU representation of the point light.
func (s *State) PointUniform() GPUPointLight {
	return GPUPointLight{Position: s.Point.Position, Color: s.Point.Color}
}

// AmbientUniform returns the GPU representation of the ambient light.
func (s *State) AmbientUniform() GPUAmbientLight {
	return GPUAmbientLight{
		Direction:   s.Ambient.Direction,
		LightColor:  s.Ambient.LightColor,
		ShadowColor: s.Ambient.ShadowColor,
	}
}
