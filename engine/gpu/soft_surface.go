package gpu

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// SoftSurface is an offscreen Surface for the software device. Acquisition failures can be queued with InjectAcquireError
// to exercise the renderer's recovery paths.
type SoftSurface struct {
	mu *sync.Mutex

	device         *SoftDevice
	format         wgpu.TextureFormat
	width, height  uint32
	configureCount int
	presented      int
	acquireErrors  []error
	acquired       *softSurfaceImage
}

var _ Surface = &SoftSurface{}

// NewSoftSurface creates an unconfigured offscreen surface bound to device.
func NewSoftSurface(device *SoftDevice) *SoftSurface {
	return &SoftSurface{
		mu:     &sync.Mutex{},
		device: device,
		format: wgpu.TextureFormatBGRA8UnormSrgb,
	}
}

// InjectAcquireError queues err to be returned, classified, by the next AcquireNextImage.
func (s *SoftSurface) InjectAcquireError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquireErrors = append(s.acquireErrors, err)
}

// ConfigureCount returns how many times Configure succeeded.
func (s *SoftSurface) ConfigureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configureCount
}

// Size returns the currently configured size.
func (s *SoftSurface) Size() (uint32, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Presented returns the number of presented images.
func (s *SoftSurface) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

func (s *SoftSurface) Configure(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.New("surface size must be non-zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.configureCount++
	return nil
}

func (s *SoftSurface) AcquireNextImage() (SurfaceImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.acquireErrors) > 0 {
		err := s.acquireErrors[0]
		s.acquireErrors = s.acquireErrors[1:]
		return nil, ClassifySurfaceError(err)
	}
	if s.width == 0 || s.height == 0 {
		return nil, &SurfaceError{Kind: SurfaceRecoverable, Err: errors.New("surface is not configured")}
	}
	if s.acquired != nil {
		return nil, &SurfaceError{Kind: SurfaceRecoverable, Err: errors.New("surface image already acquired")}
	}
	s.acquired = &softSurfaceImage{surface: s, view: &softTextureView{texture: &softTexture{device: s.device, width: s.width, height: s.height, format: s.format}}}
	return s.acquired, nil
}

func (s *SoftSurface) Present(img SurfaceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img == nil || img != SurfaceImage(s.acquired) {
		return
	}
	s.acquired = nil
	s.presented++
}

func (s *SoftSurface) Format() wgpu.TextureFormat {
	return s.format
}

func (s *SoftSurface) Release() {}

type softSurfaceImage struct {
	surface *SoftSurface
	view    TextureView
}

func (i *softSurfaceImage) View() TextureView { return i.view }

func (i *softSurfaceImage) Release() {
	i.surface.mu.Lock()
	defer i.surface.mu.Unlock()
	if i.surface.acquired == i {
		i.surface.acquired = nil
	}
}
