package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Init creates the buffers missing from provider and the bind group against layout.
// Texture and sampler bindings must already be set on the provider. Buffer bindings without a pre-set buffer are
// allocated with the layout's MinBindingSize unless sizes overrides it.
//
// Parameters:
//   - device: the device to allocate on
//   - provider: the provider to populate
//   - layout: the layout to create the bind group against
//   - sizes: optional per-binding buffer sizes in bytes
//
// Returns:
//   - error: error if a binding is unsatisfied or a GPU object could not be created
func Init(device gpu.Device, provider BindGroupProvider, layout gpu.BindGroupLayout, sizes map[int]uint64) error {
	if layout == nil {
		return fmt.Errorf("%s: bind group layout is nil", provider.Label())
	}
	provider.SetBindGroupLayout(layout)

	layoutEntries := layout.Entries()
	entries := make([]gpu.BindGroupEntry, len(layoutEntries))
	for i, entry := range layoutEntries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view", provider.Label(), binding)
			}
			entries[i] = gpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
		case isSampler:
			s := provider.Sampler(binding)
			if s == nil {
				return fmt.Errorf("%s: sampler binding %d has no sampler", provider.Label(), binding)
			}
			entries[i] = gpu.BindGroupEntry{Binding: entry.Binding, Sampler: s}
		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				var usage wgpu.BufferUsage
				switch entry.Buffer.Type {
				case wgpu.BufferBindingTypeUniform:
					usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
				default:
					usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
				}
				size := entry.Buffer.MinBindingSize
				if override, ok := sizes[binding]; ok {
					size = override
				}
				if size == 0 {
					return fmt.Errorf("%s: buffer binding %d has no size", provider.Label(), binding)
				}
				var err error
				buf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  size,
					Usage: usage,
				})
				if err != nil {
					return err
				}
				provider.SetBuffer(binding, buf)
			}
			entries[i] = gpu.BindGroupEntry{Binding: entry.Binding, Buffer: buf}
		}
	}

	bg, err := device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

// InitMesh uploads vertex and index data into new buffers owned by provider.
//
// Parameters:
//   - device: the device to allocate on
//   - provider: the provider to populate
//   - vertexData: packed vertex bytes
//   - indexData: packed index bytes
//   - indexCount: number of indices in indexData
//
// Returns:
//   - error: error if a buffer could not be created
func InitMesh(device gpu.Device, provider BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) > 0 {
		buf, err := device.CreateBufferInit(provider.Label()+" Vertex Buffer", wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, vertexData)
		if err != nil {
			return err
		}
		provider.SetVertexBuffer(buf)
	}
	if len(indexData) > 0 {
		buf, err := device.CreateBufferInit(provider.Label()+" Index Buffer", wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, indexData)
		if err != nil {
			return err
		}
		provider.SetIndexBuffer(buf)
	}
	provider.SetIndexCount(indexCount)
	return nil
}
