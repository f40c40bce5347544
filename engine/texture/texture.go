// package texture decodes sprite sheets, uploads them and keeps the bind groups sprite batches sample from.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/Carmen-Shannon/perspective/common"
	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ID identifies an uploaded texture.
type ID = uuid.UUID

// ErrUnknownTexture is returned when an ID is not in the registry.
var ErrUnknownTexture = errors.New("unknown texture")

// ErrTextureInUse is returned by Unload while a sprite pool still samples the texture.
var ErrTextureInUse = errors.New("texture in use")

// Binding is a resident texture as seen by the renderer.
type Binding struct {
	ID        ID
	Width     uint32
	Height    uint32
	Aspect    float32
	BindGroup gpu.BindGroup
}

type entry struct {
	binding  Binding
	provider bind_group_provider.BindGroupProvider
	// refs counts the sprite pools sampling this texture.
	refs int
}

// Registry owns every uploaded texture. Textures are never modified after upload; lookups may run concurrently.
type Registry struct {
	mu      *sync.RWMutex
	device  gpu.Device
	layout  gpu.BindGroupLayout
	sampler common.SamplerStagingData
	entries map[ID]*entry
}

// NewRegistry creates an empty registry whose bind groups are built against layout.
//
// Parameters:
//   - device: the device to upload to
//   - layout: the texture group layout (texture at binding 0, sampler at binding 1)
//   - options: functional options
//
// Returns:
//   - *Registry: the registry
func NewRegistry(device gpu.Device, layout gpu.BindGroupLayout, options ...RegistryOption) *Registry {
	r := &Registry{
		mu:      &sync.RWMutex{},
		device:  device,
		layout:  layout,
		entries: make(map[ID]*entry),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Load decodes an encoded image and uploads it. PNG, JPEG, GIF, BMP and WebP are recognised.
//
// Parameters:
//   - data: the encoded image
//   - aspect: width over height of one tile of the sheet, stored alongside the texture
//
// Returns:
//   - ID: the ID of the new texture
//   - error: error if decoding or upload fails
func (r *Registry) Load(data []byte, aspect float32) (ID, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode texture: %w", err)
	}
	staging := ToRGBA(img)
	id, err := r.LoadRGBA(staging, aspect)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upload %s texture: %w", format, err)
	}
	return id, nil
}

// LoadRGBA uploads raw RGBA pixels.
//
// Parameters:
//   - staging: the pixels and their dimensions
//   - aspect: width over height of one tile of the sheet
//
// Returns:
//   - ID: the ID of the new texture
//   - error: error if the pixels do not match the dimensions or a GPU object could not be created
func (r *Registry) LoadRGBA(staging common.TextureStagingData, aspect float32) (ID, error) {
	if !staging.Valid() {
		return uuid.Nil, fmt.Errorf("texture staging data of %d bytes does not match %dx%d", len(staging.Pixels), staging.Width, staging.Height)
	}
	id := uuid.New()
	label := "texture " + id.String()

	tex, err := r.device.CreateTexture(&gpu.TextureDescriptor{
		Label:  label,
		Width:  staging.Width,
		Height: staging.Height,
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Pixels: staging.Pixels,
	})
	if err != nil {
		return uuid.Nil, err
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return uuid.Nil, fmt.Errorf("failed to create view of %s: %w", label, err)
	}
	s := r.sampler
	sampler, err := r.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeNearest),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(s.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return uuid.Nil, err
	}

	provider := bind_group_provider.NewBindGroupProvider(label,
		bind_group_provider.WithTextureView(0, view),
		bind_group_provider.WithSampler(1, sampler),
	)
	provider.AdoptTexture(tex)
	if err := bind_group_provider.Init(r.device, provider, r.layout, nil); err != nil {
		provider.Release()
		return uuid.Nil, fmt.Errorf("failed to create bind group of %s: %w", label, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{
		binding: Binding{
			ID:        id,
			Width:     staging.Width,
			Height:    staging.Height,
			Aspect:    aspect,
			BindGroup: provider.BindGroup(),
		},
		provider: provider,
	}
	return id, nil
}

// Get returns the resident texture with the given ID.
func (r *Registry) Get(id ID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Binding{}, false
	}
	return e.binding, true
}

// TextureBindGroup returns the bind group sampling the texture with the given ID.
func (r *Registry) TextureBindGroup(id ID) (gpu.BindGroup, bool) {
	b, ok := r.Get(id)
	return b.BindGroup, ok
}

// Retain pins a texture for a sprite pool. Pinned textures stay resident until Release.
//
// Parameters:
//   - id: the texture to pin
//
// Returns:
//   - Binding: the pinned texture
//   - error: ErrUnknownTexture if id is not resident
func (r *Registry) Retain(id ID) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Binding{}, fmt.Errorf("%w: %s", ErrUnknownTexture, id)
	}
	e.refs++
	return e.binding, nil
}

// Unload releases one texture that no sprite pool has retained.
//
// Parameters:
//   - id: the texture to release
//
// Returns:
//   - error: ErrUnknownTexture if id is not resident, ErrTextureInUse if a pool retains it
func (r *Registry) Unload(id ID) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTexture, id)
	}
	if e.refs > 0 {
		refs := e.refs
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is sampled by %d sprite pools", ErrTextureInUse, id, refs)
	}
	delete(r.entries, id)
	r.mu.Unlock()
	e.provider.Release()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Release frees every texture.
func (r *Registry) Release() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[ID]*entry)
	r.mu.Unlock()
	for _, e := range entries {
		e.provider.Release()
	}
}

// ToRGBA converts any decoded image into tightly packed RGBA staging data.
//
// Parameters:
//   - img: the decoded image
//
// Returns:
//   - common.TextureStagingData: the pixels, origin at the top-left
func ToRGBA(img image.Image) common.TextureStagingData {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}
}
