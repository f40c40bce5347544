package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// OpenGLToWGPU converts OpenGL clip space (z in [-1, 1]) into WebGPU clip space (z in [0, 1]).
// Projection matrices built by mgl32 follow the OpenGL convention and must be premultiplied by this matrix.
var OpenGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// TransformPoint applies m to the point p (w = 1) and performs the perspective divide.
//
// Parameters:
//   - m: the transform matrix
//   - p: the point to transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v.W() != 0 {
		return v.Vec3().Mul(1 / v.W())
	}
	return v.Vec3()
}
