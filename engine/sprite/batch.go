package sprite

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// TextureLookup resolves a texture ID into the bind group that samples it at layout group 0.
type TextureLookup interface {
	// TextureBindGroup returns the texture bind group for id.
	//
	// Parameters:
	//   - id: the texture ID
	//
	// Returns:
	//   - gpu.BindGroup: the bind group
	//   - bool: false if the texture is unknown
	TextureBindGroup(id uuid.UUID) (gpu.BindGroup, bool)
}

// Batch couples one texture, one quad mesh, one animation table and one InstancePool into a single indexed draw.
type Batch struct {
	textureID uuid.UUID
	settings  PoolSettings

	mesh      bind_group_provider.BindGroupProvider
	animation bind_group_provider.BindGroupProvider
	pool      *InstancePool

	elapsed time.Duration
	uniform GPUAnimationUniform
}

// NewBatch builds the quad mesh, the animation bind group and the instance pool of a batch.
//
// Parameters:
//   - device: the device to allocate on
//   - layouts: the renderer's layout set
//   - textureID: the sprite sheet the batch samples
//   - settings: mesh, animation and capacity settings
//
// Returns:
//   - *Batch: the batch
//   - error: error if the settings are invalid or a GPU object could not be created
func NewBatch(device gpu.Device, layouts *layout.Set, textureID uuid.UUID, settings PoolSettings) (*Batch, error) {
	if len(settings.AnimationFrames) == 0 {
		return nil, fmt.Errorf("sprite batch %q: animation frame table is empty", settings.Label)
	}
	if settings.TileAspect <= 0 {
		return nil, fmt.Errorf("sprite batch %q: tile aspect must be positive, got %v", settings.Label, settings.TileAspect)
	}

	b := &Batch{
		textureID: textureID,
		settings:  settings,
		mesh:      bind_group_provider.NewBindGroupProvider(settings.Label + " Quad"),
		uniform:   GPUAnimationUniform{FrameCount: uint32(len(settings.AnimationFrames))},
	}

	vertices, indices := marshalQuad(settings.TileAspect, settings.TileSize)
	if err := bind_group_provider.InitMesh(device, b.mesh, vertices, indices, len(quadIndices)); err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create quad mesh for sprite batch %q: %w", settings.Label, err)
	}

	frames, err := device.CreateBufferInit(settings.Label+" Frame Table", wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, MarshalFrames(settings.AnimationFrames))
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create frame table for sprite batch %q: %w", settings.Label, err)
	}
	b.animation = bind_group_provider.NewBindGroupProvider(settings.Label+" Animation", bind_group_provider.WithBuffer(0, frames))
	if err := bind_group_provider.Init(device, b.animation, layouts.SpriteAnimation(), nil); err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create animation bind group for sprite batch %q: %w", settings.Label, err)
	}

	b.pool, err = NewInstancePool(device, settings.Label, settings.Capacity)
	if err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// AdvanceAnimation accumulates elapsed time and converts it into whole frame steps.
func (b *Batch) AdvanceAnimation(elapsed time.Duration) {
	if b.settings.FrameDelay <= 0 {
		return
	}
	b.elapsed += elapsed
	steps := b.elapsed / b.settings.FrameDelay
	b.elapsed -= steps * b.settings.FrameDelay
	b.uniform.Progress += uint32(steps)
}

// Progress returns the number of whole frame steps taken so far.
func (b *Batch) Progress() uint32 {
	return b.uniform.Progress
}

// SyncAnimation writes the progress uniform.
func (b *Batch) SyncAnimation(device gpu.Device) error {
	return bind_group_provider.WriteBuffers(device, []bind_group_provider.BufferWrite{
		{Provider: b.animation, Binding: 1, Data: b.uniform.Marshal()},
	})
}

// SyncInstances flushes the instance mirror to the GPU.
func (b *Batch) SyncInstances(device gpu.Device) error {
	return b.pool.Sync(device)
}

// Draw binds the texture and animation groups of the batch and issues one indexed draw covering every spawned
// instance. The camera and light groups must already be bound on pass. A batch without spawns draws nothing.
//
// Parameters:
//   - pass: the open render pass
//   - textures: resolves the batch's texture
//
// Returns:
//   - error: error if the texture is unknown
func (b *Batch) Draw(pass gpu.RenderPass, textures TextureLookup) error {
	if b.pool.NumSpawns() == 0 {
		return nil
	}
	tex, ok := textures.TextureBindGroup(b.textureID)
	if !ok {
		return fmt.Errorf("sprite batch %q: texture %s is not loaded", b.settings.Label, b.textureID)
	}
	pass.SetBindGroup(uint32(layout.GroupTexture), tex)
	pass.SetBindGroup(uint32(layout.GroupSpriteAnimation), b.animation.BindGroup())
	pass.SetVertexBuffer(0, b.mesh.VertexBuffer())
	pass.SetVertexBuffer(1, b.pool.Buffer())
	pass.SetIndexBuffer(b.mesh.IndexBuffer(), wgpu.IndexFormatUint16)
	pass.DrawIndexed(uint32(b.mesh.IndexCount()), uint32(b.pool.NumSpawns()))
	return nil
}

func (b *Batch) TextureID() uuid.UUID   { return b.textureID }
func (b *Batch) Settings() PoolSettings { return b.settings }
func (b *Batch) Pool() *InstancePool    { return b.pool }

// AnimationBindGroup returns the bind group of layout group 3.
func (b *Batch) AnimationBindGroup() gpu.BindGroup {
	if b.animation == nil {
		return nil
	}
	return b.animation.BindGroup()
}

// Release frees the mesh, animation and instance buffers.
func (b *Batch) Release() {
	if b.mesh != nil {
		b.mesh.Release()
	}
	if b.animation != nil {
		b.animation.Release()
	}
	if b.pool != nil {
		b.pool.Release()
	}
}
