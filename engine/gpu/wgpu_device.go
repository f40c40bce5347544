package gpu

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/perspective/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUDevice is the Device implementation backed by wgpu-native through cogentcore/webgpu.
type WGPUDevice struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *WGPUSurface

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
}

var _ Device = &WGPUDevice{}

// NewWGPUDevice requests an adapter and device. When a surface descriptor is supplied through WithSurfaceDescriptor
// the adapter is chosen to be compatible with it and the resulting surface is available from Surface().
//
// Parameters:
//   - options: functional options configuring adapter selection and presentation
//
// Returns:
//   - *WGPUDevice: the device
//   - error: error if no adapter or device could be obtained
func NewWGPUDevice(options ...WGPUDeviceOption) (*WGPUDevice, error) {
	runtime.LockOSThread()
	d := &WGPUDevice{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	for _, opt := range options {
		opt(d)
	}

	var surface *wgpu.Surface
	if d.surfaceDescriptor != nil {
		surface = d.instance.CreateSurface(d.surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	if surface != nil {
		d.surface = &WGPUSurface{
			mu:          &sync.Mutex{},
			surface:     surface,
			adapter:     a,
			device:      dev,
			presentMode: d.presentMode,
		}
	}
	return d, nil
}

// Surface returns the presentation surface, nil for a headless device.
func (d *WGPUDevice) Surface() *WGPUSurface {
	return d.surface
}

func (d *WGPUDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error) {
	if desc == nil {
		return nil, errors.New("buffer descriptor is nil")
	}
	buf, err := d.device.CreateBuffer(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{buf: buf, label: desc.Label, size: desc.Size, usage: desc.Usage}, nil
}

func (d *WGPUDevice) CreateBufferInit(label string, usage wgpu.BufferUsage, contents []byte) (Buffer, error) {
	size := (uint64(len(contents)) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	buf, err := d.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	if len(contents) > 0 {
		padded := contents
		if uint64(len(contents)) != size {
			padded = make([]byte, size)
			copy(padded, contents)
		}
		if err := d.WriteBuffer(buf, 0, padded); err != nil {
			buf.Release()
			return nil, err
		}
	}
	return buf, nil
}

func (d *WGPUDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb == nil {
		return errors.New("write to a buffer not owned by this device")
	}
	if offset+uint64(len(data)) > wb.size {
		return fmt.Errorf("write of %d bytes at %d overruns buffer %q of %d bytes", len(data), offset, wb.label, wb.size)
	}
	if offset%4 != 0 {
		return fmt.Errorf("write offset %d into buffer %q is not 4-byte aligned", offset, wb.label)
	}
	// queue writes must be a multiple of 4 bytes
	if n := common.AlignUp(uint64(len(data)), 4); n != uint64(len(data)) && offset+n <= wb.size {
		padded := make([]byte, n)
		copy(padded, data)
		data = padded
	}
	d.queue.WriteBuffer(wb.buf, offset, data)
	return nil
}

func (d *WGPUDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	if desc == nil {
		return nil, errors.New("bind group layout descriptor is nil")
	}
	l, err := d.device.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %q: %w", desc.Label, err)
	}
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	copy(entries, desc.Entries)
	return &wgpuBindGroupLayout{layout: l, label: desc.Label, entries: entries}, nil
}

func (d *WGPUDevice) CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error) {
	if desc == nil || desc.Layout == nil {
		return nil, errors.New("bind group descriptor has no layout")
	}
	layout, ok := desc.Layout.(*wgpuBindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("bind group %q: layout not owned by this device", desc.Label)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			wb, ok := e.Buffer.(*wgpuBuffer)
			if !ok {
				return nil, fmt.Errorf("bind group %q binding %d: buffer not owned by this device", desc.Label, e.Binding)
			}
			entry.Buffer = wb.buf
			entry.Size = wgpu.WholeSize
		case e.TextureView != nil:
			tv, ok := e.TextureView.(*wgpuTextureView)
			if !ok {
				return nil, fmt.Errorf("bind group %q binding %d: texture view not owned by this device", desc.Label, e.Binding)
			}
			entry.TextureView = tv.view
		case e.Sampler != nil:
			s, ok := e.Sampler.(*wgpuSampler)
			if !ok {
				return nil, fmt.Errorf("bind group %q binding %d: sampler not owned by this device", desc.Label, e.Binding)
			}
			entry.Sampler = s.sampler
		default:
			return nil, fmt.Errorf("bind group %q binding %d has no resource", desc.Label, e.Binding)
		}
		entries[i] = entry
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{group: bg, label: desc.Label, layout: layout}, nil
}

func (d *WGPUDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return nil, errors.New("texture must have non-zero dimensions")
	}
	usage := desc.Usage
	if usage == 0 {
		usage = wgpu.TextureUsageRenderAttachment
		if len(desc.Pixels) > 0 {
			usage = wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
		}
	}
	extent := wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Usage:         usage,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        desc.Format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	if len(desc.Pixels) > 0 {
		d.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			desc.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  desc.Width * 4,
				RowsPerImage: desc.Height,
			},
			&extent,
		)
	}
	return &wgpuTexture{tex: tex, width: desc.Width, height: desc.Height, format: desc.Format}, nil
}

func (d *WGPUDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error) {
	s, err := d.device.CreateSampler(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	return &wgpuSampler{sampler: s}, nil
}

func (d *WGPUDevice) pipelineLayout(label string, layouts []BindGroupLayout) (*wgpu.PipelineLayout, error) {
	raw := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		wl, ok := l.(*wgpuBindGroupLayout)
		if !ok || wl == nil {
			return nil, fmt.Errorf("pipeline %q: bind group layout %d not owned by this device", label, i)
		}
		raw[i] = wl.layout
	}
	return d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: raw,
	})
}

func (d *WGPUDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	if desc == nil {
		return nil, errors.New("render pipeline descriptor is nil")
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %q: %w", desc.Label, err)
	}
	layout, err := d.pipelineLayout(desc.Label, desc.Layouts)
	if err != nil {
		return nil, err
	}

	target := wgpu.ColorTargetState{
		Format:    desc.ColorFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
		Blend:     desc.Blend,
	}
	var depth *wgpu.DepthStencilState
	if desc.DepthFormat != wgpu.TextureFormatUndefined {
		depth = &wgpu.DepthStencilState{
			Format:            desc.DepthFormat,
			DepthWriteEnabled: desc.DepthWriteEnabled,
			DepthCompare:      desc.DepthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: desc.FrontFace,
			CullMode:  desc.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{pipeline: created, label: desc.Label, layouts: append([]BindGroupLayout(nil), desc.Layouts...)}, nil
}

func (d *WGPUDevice) CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error) {
	if desc == nil {
		return nil, errors.New("compute pipeline descriptor is nil")
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %q: %w", desc.Label, err)
	}
	layout, err := d.pipelineLayout(desc.Label, desc.Layouts)
	if err != nil {
		return nil, err
	}
	created, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create compute pipeline %q: %w", desc.Label, err)
	}
	return &wgpuComputePipeline{pipeline: created, label: desc.Label, layouts: append([]BindGroupLayout(nil), desc.Layouts...)}, nil
}

func (d *WGPUDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &wgpuEncoder{encoder: enc}, nil
}

func (d *WGPUDevice) Submit(buffers ...CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cb := range buffers {
		wcb, ok := cb.(*wgpuCommandBuffer)
		if !ok || wcb == nil {
			continue
		}
		d.queue.Submit(wcb.buffer)
	}
}

func (d *WGPUDevice) Poll(mode PollMode) {
	d.device.Poll(mode == PollWait, nil)
}

func (d *WGPUDevice) Release() {
	if d.surface != nil {
		d.surface.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}
