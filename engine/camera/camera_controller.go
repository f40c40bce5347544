package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Controller turns input into camera movement. Input handlers call the movement methods from any goroutine; the
// frame loop calls Apply once per frame to move a State.
type Controller interface {
	// PanRight moves the camera along its right axis.
	//
	// Parameters:
	//   - delta: distance in world units, scaled by the pan speed
	PanRight(delta float32)

	// PanUp moves the camera along its up axis.
	//
	// Parameters:
	//   - delta: distance in world units, scaled by the pan speed
	PanUp(delta float32)

	// Zoom moves the eye toward the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount, scaled by the zoom speed
	Zoom(delta float32)

	// Apply moves s by the input accumulated since the last call and clears it.
	//
	// Parameters:
	//   - s: the camera to move
	Apply(s *State)
}

// controller is the implementation of Controller.
type controller struct {
	mu *sync.Mutex

	pan  mgl32.Vec2
	zoom float32

	panSpeed    float32
	zoomSpeed   float32
	minDistance float32
	maxDistance float32
}

var _ Controller = &controller{}

// NewController creates a planar pan and zoom controller.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewController(options ...ControllerOption) Controller {
	c := &controller{
		mu:          &sync.Mutex{},
		panSpeed:    1,
		zoomSpeed:   0.25,
		minDistance: 0.5,
		maxDistance: 500,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controller) PanRight(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pan[0] += delta * c.panSpeed
}

func (c *controller) PanUp(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pan[1] += delta * c.panSpeed
}

func (c *controller) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom += delta * c.zoomSpeed
}

func (c *controller) Apply(s *State) {
	c.mu.Lock()
	pan, zoom := c.pan, c.zoom
	c.pan, c.zoom = mgl32.Vec2{}, 0
	c.mu.Unlock()

	back := s.Eye.Sub(s.Target)
	dist := back.Len()
	if dist < 1e-6 {
		return
	}
	forward := back.Mul(-1 / dist)
	right := forward.Cross(s.Up)
	if right.Len() < 1e-6 {
		return
	}
	right = right.Normalize()
	up := right.Cross(forward)

	offset := right.Mul(pan[0]).Add(up.Mul(pan[1]))
	s.Target = s.Target.Add(offset)

	if zoom != 0 {
		dist = mgl32.Clamp(dist*(1-zoom), c.minDistance, c.maxDistance)
	}
	s.Eye = s.Target.Sub(forward.Mul(dist))
}
