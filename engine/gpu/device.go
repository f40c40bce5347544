// package gpu is the boundary between the engine and the graphics API. It exposes the device, queue and surface
// operations the engine consumes as interfaces, with a WebGPU implementation for real hardware and a software
// implementation that executes submissions on the CPU for headless runs and tests.
package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PollMode selects whether Device.Poll blocks until the queue drains.
type PollMode int

const (
	// PollNonBlocking processes completed work and returns immediately.
	PollNonBlocking PollMode = iota

	// PollWait blocks until all submitted work has completed.
	PollWait
)

// Buffer is a GPU allocated byte buffer.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	Label() string

	// Size returns the size of the buffer in bytes.
	Size() uint64

	// Usage returns the usage flags the buffer was created with.
	Usage() wgpu.BufferUsage

	// MapAsync requests that the buffer be mapped for host access. The callback fires from inside Device.Poll once the
	// GPU has finished all work that touches the buffer, never synchronously from this call.
	//
	// Parameters:
	//   - mode: the map mode, only wgpu.MapModeRead is used by the engine
	//   - offset: byte offset of the mapped range
	//   - size: byte length of the mapped range
	//   - callback: receives the completion status
	//
	// Returns:
	//   - error: error if the request could not be issued (wrong usage, already mapped)
	MapAsync(mode wgpu.MapMode, offset, size uint64, callback func(wgpu.BufferMapAsyncStatus)) error

	// MappedRange returns the host view of a mapped range. Only valid between a successful map callback and Unmap.
	//
	// Parameters:
	//   - offset: byte offset into the buffer
	//   - size: byte length of the view
	//
	// Returns:
	//   - []byte: the mapped bytes, nil if the buffer is not mapped
	MappedRange(offset, size uint64) []byte

	// Unmap releases the host mapping.
	Unmap()

	// Release frees the GPU allocation.
	Release()
}

// BindGroupLayout describes the shape of a bind group.
type BindGroupLayout interface {
	// Label returns the debug label of the layout.
	Label() string

	// Entries returns the binding entries the layout was created with.
	Entries() []wgpu.BindGroupLayoutEntry

	// Release frees the GPU object.
	Release()
}

// BindGroup is a set of resources bound together against a BindGroupLayout.
type BindGroup interface {
	// Label returns the debug label of the bind group.
	Label() string

	// Layout returns the layout the bind group was created against.
	Layout() BindGroupLayout

	// Release frees the GPU object.
	Release()
}

// Texture is a GPU image.
type Texture interface {
	Width() uint32
	Height() uint32
	Format() wgpu.TextureFormat

	// CreateView creates a default view over the whole texture.
	CreateView() (TextureView, error)

	Release()
}

// TextureView is a view over a Texture usable as an attachment or binding.
type TextureView interface {
	Release()
}

// Sampler is a texture sampler.
type Sampler interface {
	Release()
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Label() string
	Layouts() []BindGroupLayout
	Release()
}

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline interface {
	Label() string
	Layouts() []BindGroupLayout
	Release()
}

// CommandBuffer is a finished, submittable list of commands.
type CommandBuffer interface {
	Release()
}

// RenderPass records draw commands into a CommandEncoder.
type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	End()
}

// ComputePass records dispatch commands into a CommandEncoder.
type ComputePass interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, group BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End()
}

// CommandEncoder records passes and copies into a CommandBuffer.
type CommandEncoder interface {
	// BeginRenderPass opens a render pass. The pass must be ended before any other pass is opened.
	BeginRenderPass(desc *RenderPassDescriptor) RenderPass

	// BeginComputePass opens a compute pass.
	BeginComputePass(label string) ComputePass

	// CopyBufferToBuffer records a copy of size bytes from src to dst.
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64)

	// Finish closes the encoder and returns the recorded commands.
	Finish() (CommandBuffer, error)

	Release()
}

// Device creates GPU resources and owns the submission queue.
type Device interface {
	// CreateBuffer allocates a zero-initialised buffer.
	CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error)

	// CreateBufferInit allocates a buffer and fills it with contents.
	CreateBufferInit(label string, usage wgpu.BufferUsage, contents []byte) (Buffer, error)

	// WriteBuffer queues a host to GPU write. Writes queued before a Submit are visible to that submission's commands.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)

	// CreateTexture allocates a 2D texture, uploading desc.Pixels when present.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit hands command buffers to the queue in order.
	Submit(buffers ...CommandBuffer)

	// Poll drives completion of submitted work and fires pending map callbacks.
	Poll(mode PollMode)

	Release()
}

// SurfaceImage is a swapchain image acquired for one frame.
type SurfaceImage interface {
	View() TextureView
	Release()
}

// Surface is the presentation target. Acquisition failures are reported as *SurfaceError.
type Surface interface {
	// Configure (re)creates the swapchain at the given size.
	Configure(width, height uint32) error

	// AcquireNextImage returns the image to render into this frame.
	AcquireNextImage() (SurfaceImage, error)

	// Present queues the acquired image for display.
	Present(img SurfaceImage)

	// Format returns the color format of the swapchain images.
	Format() wgpu.TextureFormat

	Release()
}

// BindGroupEntry binds exactly one of Buffer, TextureView or Sampler at Binding.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group to create.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// TextureDescriptor describes a 2D texture. Pixels, when set, must hold Width*Height RGBA texels.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage
	Pixels []byte
}

// RenderPassDescriptor describes the attachments of a render pass. DepthView may be nil.
type RenderPassDescriptor struct {
	Label      string
	ColorView  TextureView
	ClearColor wgpu.Color
	DepthView  TextureView
}

// RenderPipelineDescriptor describes a render pipeline built from a single WGSL module.
type RenderPipelineDescriptor struct {
	Label              string
	Source             string
	VertexEntryPoint   string
	FragmentEntryPoint string
	Layouts            []BindGroupLayout
	VertexBuffers      []wgpu.VertexBufferLayout
	ColorFormat        wgpu.TextureFormat
	DepthFormat        wgpu.TextureFormat
	DepthCompare       wgpu.CompareFunction
	DepthWriteEnabled  bool
	Blend              *wgpu.BlendState
	Topology           wgpu.PrimitiveTopology
	FrontFace          wgpu.FrontFace
	CullMode           wgpu.CullMode
}

// ComputePipelineDescriptor describes a compute pipeline built from a single WGSL module.
type ComputePipelineDescriptor struct {
	Label      string
	Source     string
	EntryPoint string
	Layouts    []BindGroupLayout
}
