package camera

import (
	"testing"

	"github.com/Carmen-Shannon/perspective/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestUniformSize(t *testing.T) {
	var u GPUCameraUniform
	assert.Equal(t, 80, u.Size())
	assert.Len(t, u.Marshal(), 80)
}

func TestTargetProjectsToScreenCentre(t *testing.T) {
	s := NewState()
	p := common.TransformPoint(s.ViewProjection(), s.Target)
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.True(t, p.Z() > 0 && p.Z() < 1, "depth %v outside WebGPU clip range", p.Z())
}

func TestOrthographicDepthRange(t *testing.T) {
	s := NewState(WithOrthographic(2), WithClipPlanes(1, 11), WithEye(0, 0, 1), WithTarget(0, 0, 0))
	near := common.TransformPoint(s.ViewProjection(), mgl32.Vec3{0, 0, 0})
	far := common.TransformPoint(s.ViewProjection(), mgl32.Vec3{0, 0, -10})
	assert.InDelta(t, 0, near.Z(), 1e-5)
	assert.InDelta(t, 1, far.Z(), 1e-5)
}

func TestSetViewportIgnoresZero(t *testing.T) {
	s := NewState(WithAspect(2))
	s.SetViewport(0, 100)
	assert.Equal(t, float32(2), s.Aspect)
	s.SetViewport(400, 100)
	assert.Equal(t, float32(4), s.Aspect)
}

func TestControllerPanMovesEyeAndTarget(t *testing.T) {
	s := NewState(WithEye(0, 0, 5), WithTarget(0, 0, 0))
	c := NewController(WithPanSpeed(2))
	c.PanRight(1)
	c.Apply(s)
	assert.InDelta(t, 2, s.Target.X(), 1e-5)
	assert.InDelta(t, 2, s.Eye.X(), 1e-5)
	assert.InDelta(t, 5, s.Eye.Z(), 1e-5)

	c.Apply(s)
	assert.InDelta(t, 2, s.Target.X(), 1e-5)
}

func TestControllerZoomClamps(t *testing.T) {
	s := NewState(WithEye(0, 0, 5), WithTarget(0, 0, 0))
	c := NewController(WithZoomSpeed(1), WithDistanceBounds(1, 10))
	c.Zoom(0.99)
	c.Apply(s)
	assert.InDelta(t, 1, s.Eye.Z(), 1e-5)
}
