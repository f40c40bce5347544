package camera

import (
	"github.com/Carmen-Shannon/perspective/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection selects how State maps view space to clip space.
type Projection int

const (
	// ProjectionPerspective uses Fovy as the vertical field of view.
	ProjectionPerspective Projection = iota

	// ProjectionOrthographic uses OrthoSize as the half height of the view volume.
	ProjectionOrthographic
)

// State is the look-at camera the host owns and hands to the renderer by reference every frame.
// All fields may be mutated freely between frames.
type State struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// Aspect is width over height of the render target.
	Aspect float32

	Projection Projection
	// Fovy is the vertical field of view in degrees.
	Fovy float32
	// OrthoSize is the half height of the orthographic view volume.
	OrthoSize float32

	Near float32
	Far  float32
}

// ViewMatrix returns the right-handed look-at matrix.
func (s *State) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(s.Eye, s.Target, s.Up)
}

// ProjectionMatrix returns the projection matrix in WebGPU clip space.
//
// Returns:
//   - mgl32.Mat4: OpenGLToWGPU * projection
func (s *State) ProjectionMatrix() mgl32.Mat4 {
	var proj mgl32.Mat4
	switch s.Projection {
	case ProjectionOrthographic:
		w := s.OrthoSize * s.Aspect
		proj = mgl32.Ortho(-w, w, -s.OrthoSize, s.OrthoSize, s.Near, s.Far)
	default:
		proj = mgl32.Perspective(mgl32.DegToRad(s.Fovy), s.Aspect, s.Near, s.Far)
	}
	return common.OpenGLToWGPU.Mul4(proj)
}

// ViewProjection returns the combined view-projection matrix uploaded to the camera uniform.
func (s *State) ViewProjection() mgl32.Mat4 {
	return s.ProjectionMatrix().Mul4(s.ViewMatrix())
}

// SetViewport updates Aspect from a framebuffer size. Zero sizes are ignored.
//
// Parameters:
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
func (s *State) SetViewport(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	s.Aspect = float32(width) / float32(height)
}

// Uniform returns the GPU representation of the camera.
func (s *State) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       s.ViewProjection(),
		CameraPosition: s.Eye,
	}
}
