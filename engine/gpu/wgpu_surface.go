package gpu

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUSurface is the Surface implementation over a wgpu swapchain.
type WGPUSurface struct {
	mu *sync.Mutex

	surface     *wgpu.Surface
	adapter     *wgpu.Adapter
	device      *wgpu.Device
	format      wgpu.TextureFormat
	presentMode wgpu.PresentMode
}

var _ Surface = &WGPUSurface{}

func (s *WGPUSurface) Configure(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.New("surface size must be non-zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	capabilities := s.surface.GetCapabilities(s.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}
	s.format = capabilities.Formats[0]
	var alphaMode wgpu.CompositeAlphaMode
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	s.surface.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.format,
		Width:       width,
		Height:      height,
		PresentMode: s.presentMode,
		AlphaMode:   alphaMode,
	})
	return nil
}

func (s *WGPUSurface) AcquireNextImage() (SurfaceImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, ClassifySurfaceError(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, ClassifySurfaceError(err)
	}
	return &wgpuSurfaceImage{texture: tex, view: &wgpuTextureView{view: view}}, nil
}

func (s *WGPUSurface) Present(img SurfaceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img == nil {
		return
	}
	s.surface.Present()
	img.Release()
}

func (s *WGPUSurface) Format() wgpu.TextureFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == wgpu.TextureFormatUndefined {
		capabilities := s.surface.GetCapabilities(s.adapter)
		if len(capabilities.Formats) > 0 {
			s.format = capabilities.Formats[0]
		}
	}
	return s.format
}

func (s *WGPUSurface) Release() {
	s.surface.Release()
}

type wgpuSurfaceImage struct {
	texture *wgpu.Texture
	view    *wgpuTextureView
}

func (i *wgpuSurfaceImage) View() TextureView { return i.view }

func (i *wgpuSurfaceImage) Release() {
	if i.view != nil {
		i.view.Release()
		i.view = nil
	}
	if i.texture != nil {
		i.texture.Release()
		i.texture = nil
	}
}
