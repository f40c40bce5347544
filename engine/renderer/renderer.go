// package renderer orchestrates one frame of sprite rendering: it flushes every batch's buffers, opens a single render
// pass against the swapchain, draws all batches and presents.
package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/Carmen-Shannon/perspective/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/Carmen-Shannon/perspective/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/perspective/engine/sprite"
	"github.com/Carmen-Shannon/perspective/engine/texture"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/sprite.wgsl
var spriteShader string

// SpritePipelineKey is the key of the built-in sprite pipeline.
const SpritePipelineKey = "sprite"

// ErrFrameInProgress is returned when RenderFrame is entered while another frame is still being recorded.
var ErrFrameInProgress = errors.New("frame already in progress")

// FrameState is the position of the renderer in the per-frame protocol.
type FrameState int

const (
	// FrameIdle is the state between frames.
	FrameIdle FrameState = iota

	// FrameBuffersUpdated means every uniform, animation and instance write of the frame has been queued.
	FrameBuffersUpdated

	// FramePassOpen means the swapchain image was acquired and the render pass is recording.
	FramePassOpen

	// FrameSubmitted means the command buffer was handed to the queue.
	FrameSubmitted

	// FramePresented means the image was queued for display.
	FramePresented
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameBuffersUpdated:
		return "buffers_updated"
	case FramePassOpen:
		return "pass_open"
	case FrameSubmitted:
		return "submitted"
	case FramePresented:
		return "presented"
	}
	return fmt.Sprintf("frame_state(%d)", int(s))
}

// Stats counts the outcome of every RenderFrame call.
type Stats struct {
	Presented uint64
	Skipped   uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device  gpu.Device
	surface gpu.Surface
	logger  *log.Logger

	layouts  *layout.Set
	pipeline pipeline.Pipeline
	textures *texture.Registry
	batches  *sprite.Registry

	cameraProvider bind_group_provider.BindGroupProvider
	lightProvider  bind_group_provider.BindGroupProvider
	cameraUniform  camera.GPUCameraUniform
	pointUniform   light.GPUPointLight
	ambientUniform light.GPUAmbientLight

	depthTexture gpu.Texture
	depthView    gpu.TextureView

	width, height uint32
	clearColor    wgpu.Color

	workers    int
	workerPool worker.DynamicWorkerPool

	state FrameState
	stats Stats

	pipelineOptions  []pipeline.PipelineBuilderOption
	shaderValidation bool
	textureOptions   []texture.RegistryOption
}

// Renderer defines the interface for the sprite rendering system.
//
// A Renderer owns the layout set, the sprite pipeline, the texture registry and every sprite batch. All methods must be
// called from the thread that owns the device.
type Renderer interface {
	// CreatePool builds a sprite batch sampling the given texture and registers it.
	//
	// Parameters:
	//   - textureID: a texture loaded through Textures()
	//   - settings: mesh, animation and capacity settings of the batch
	//
	// Returns:
	//   - sprite.PoolID: the handle of the new pool
	//   - error: error if the texture is unknown or the batch could not be built
	CreatePool(textureID texture.ID, settings sprite.PoolSettings) (sprite.PoolID, error)

	// Spawn places a new instance in a pool.
	//
	// Parameters:
	//   - pool: the pool handle
	//   - position: world position
	//   - rotation: orientation
	//   - scale: uniform scale
	//
	// Returns:
	//   - sprite.InstanceID: the instance handle
	//   - error: sprite.ErrUnknownPool or sprite.ErrPoolExhausted
	Spawn(pool sprite.PoolID, position mgl32.Vec3, rotation mgl32.Quat, scale float32) (sprite.InstanceID, error)

	// Instance returns the mutable CPU mirror of an instance. Changes are uploaded by the next RenderFrame.
	//
	// Parameters:
	//   - id: the instance handle
	//
	// Returns:
	//   - *sprite.ObjectInstance: the mirror
	//   - error: sprite.ErrUnknownPool if the handle is not valid
	Instance(id sprite.InstanceID) (*sprite.ObjectInstance, error)

	// Batch returns the batch registered under pool.
	Batch(pool sprite.PoolID) (*sprite.Batch, error)

	// UpdateAnimationAndCamera copies the camera and light state into the pending uniforms and advances the animation of
	// every batch. A nil cam or lights leaves the previous uniform in place.
	//
	// Parameters:
	//   - dt: time elapsed since the previous frame
	//   - cam: the host's camera state
	//   - lights: the host's light state
	UpdateAnimationAndCamera(dt time.Duration, cam *camera.State, lights *light.State)

	// RenderFrame flushes all buffers, draws every batch in one render pass and presents.
	// Recoverable surface errors reconfigure the surface, count the frame as skipped and return nil.
	//
	// Returns:
	//   - error: a wrapped gpu.ErrSurfaceFatal, ErrFrameInProgress, or a recording error
	RenderFrame() error

	// Resize reconfigures the surface and recreates the depth attachment. Identical or zero dimensions are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: error if the surface or the depth texture could not be recreated
	Resize(width, height uint32) error

	// Size returns the configured surface size.
	Size() (uint32, uint32)

	// State returns the current frame state.
	State() FrameState

	// Stats returns the presented and skipped frame counters.
	Stats() Stats

	// Layouts returns the layout set every pipeline is validated against.
	Layouts() *layout.Set

	// Textures returns the texture registry sprite pools sample from.
	Textures() *texture.Registry

	// Pipeline returns the sprite render pipeline.
	Pipeline() pipeline.Pipeline

	// SetClearColor sets the color the render pass clears to.
	SetClearColor(c wgpu.Color)

	// Release frees every GPU object owned by the renderer. The device and surface are not released.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer builds the layout set, the sprite pipeline, the camera and light bind groups, the texture registry and
// the depth attachment, then configures the surface.
//
// Parameters:
//   - device: the device to render with
//   - surface: the presentation target
//   - options: functional options
//
// Returns:
//   - Renderer: the renderer
//   - error: a *layout.ConfigurationError if the pipeline does not match the layout set, or the device error
func NewRenderer(device gpu.Device, surface gpu.Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:         &sync.Mutex{},
		device:     device,
		surface:    surface,
		width:      1280,
		height:     720,
		clearColor: wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0},
		workers:    4,
		batches:    sprite.NewRegistry(),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Default()
	}

	var err error
	r.layouts, err = layout.NewSet(device)
	if err != nil {
		return nil, err
	}

	pipelineOptions := []pipeline.PipelineBuilderOption{
		pipeline.WithPipelineKey(SpritePipelineKey),
		pipeline.WithShaderSource(spriteShader),
		pipeline.WithVertexBuffers(sprite.QuadVertexLayout(), sprite.InstanceVertexLayout()),
		pipeline.WithColorFormat(surface.Format()),
		pipeline.WithDepthFormat(wgpu.TextureFormatDepth32Float),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithShaderValidation(r.shaderValidation),
	}
	r.pipeline, err = pipeline.NewRenderPipeline(device, r.layouts, append(pipelineOptions, r.pipelineOptions...)...)
	if err != nil {
		r.Release()
		return nil, err
	}

	r.cameraProvider = bind_group_provider.NewBindGroupProvider("Camera")
	if err := bind_group_provider.Init(device, r.cameraProvider, r.layouts.Camera(), nil); err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create camera bind group: %w", err)
	}
	r.lightProvider = bind_group_provider.NewBindGroupProvider("Light")
	if err := bind_group_provider.Init(device, r.lightProvider, r.layouts.Light(), nil); err != nil {
		r.Release()
		return nil, fmt.Errorf("failed to create light bind group: %w", err)
	}

	cam := camera.NewState(camera.WithAspect(float32(r.width) / float32(r.height)))
	r.cameraUniform = cam.Uniform()
	lights := light.NewState()
	r.pointUniform = lights.PointUniform()
	r.ambientUniform = lights.AmbientUniform()

	r.textures = texture.NewRegistry(device, r.layouts.Texture(), r.textureOptions...)

	if err := r.configure(r.width, r.height); err != nil {
		r.Release()
		return nil, err
	}

	r.workerPool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	return r, nil
}

func (r *renderer) CreatePool(textureID texture.ID, settings sprite.PoolSettings) (sprite.PoolID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.textures.Get(textureID); !ok {
		return -1, fmt.Errorf("failed to create sprite pool %q: %w: %s", settings.Label, texture.ErrUnknownTexture, textureID)
	}
	b, err := sprite.NewBatch(r.device, r.layouts, textureID, settings)
	if err != nil {
		return -1, err
	}
	if _, err := r.textures.Retain(textureID); err != nil {
		b.Release()
		return -1, fmt.Errorf("failed to create sprite pool %q: %w", settings.Label, err)
	}
	id := r.batches.Add(b)
	r.logger.Debug("sprite pool created", "pool", id, "label", settings.Label, "capacity", settings.Capacity)
	return id, nil
}

func (r *renderer) Spawn(pool sprite.PoolID, position mgl32.Vec3, rotation mgl32.Quat, scale float32) (sprite.InstanceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches.Spawn(pool, position, rotation, scale)
}

func (r *renderer) Instance(id sprite.InstanceID) (*sprite.ObjectInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches.Instance(id)
}

func (r *renderer) Batch(pool sprite.PoolID) (*sprite.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches.Batch(pool)
}

func (r *renderer) UpdateAnimationAndCamera(dt time.Duration, cam *camera.State, lights *light.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cam != nil {
		r.cameraUniform = cam.Uniform()
	}
	if lights != nil {
		r.pointUniform = lights.PointUniform()
		r.ambientUniform = lights.AmbientUniform()
	}
	for _, b := range r.batches.Batches() {
		b.AdvanceAnimation(dt)
	}
}

func (r *renderer) RenderFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != FrameIdle && r.state != FramePresented {
		return fmt.Errorf("%w: renderer is in state %s", ErrFrameInProgress, r.state)
	}
	r.state = FrameIdle

	if err := r.updateBuffers(); err != nil {
		return err
	}
	r.state = FrameBuffersUpdated

	img, err := r.surface.AcquireNextImage()
	if err != nil {
		return r.surfaceFailure(err)
	}

	encoder, err := r.device.CreateCommandEncoder("Frame Encoder")
	if err != nil {
		img.Release()
		r.state = FrameIdle
		return fmt.Errorf("failed to create frame encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label:      "Sprite Pass",
		ColorView:  img.View(),
		ClearColor: r.clearColor,
		DepthView:  r.depthView,
	})
	r.state = FramePassOpen

	pass.SetPipeline(r.pipeline.Render())
	pass.SetBindGroup(uint32(layout.GroupCamera), r.cameraProvider.BindGroup())
	pass.SetBindGroup(uint32(layout.GroupLight), r.lightProvider.BindGroup())
	for _, b := range r.batches.Batches() {
		if err := b.Draw(pass, r.textures); err != nil {
			pass.End()
			img.Release()
			r.state = FrameIdle
			return err
		}
	}
	pass.End()

	cmd, err := encoder.Finish()
	if err != nil {
		img.Release()
		r.state = FrameIdle
		return fmt.Errorf("failed to finish frame encoder: %w", err)
	}
	r.device.Submit(cmd)
	cmd.Release()
	r.state = FrameSubmitted

	r.surface.Present(img)
	r.state = FramePresented
	r.stats.Presented++
	return nil
}

// updateBuffers queues every write of the frame. Instance mirrors are serialized on the worker pool, all queue writes
// happen on the calling thread.
func (r *renderer) updateBuffers() error {
	err := bind_group_provider.WriteBuffers(r.device, []bind_group_provider.BufferWrite{
		{Provider: r.cameraProvider, Binding: 0, Data: r.cameraUniform.Marshal()},
		{Provider: r.lightProvider, Binding: 0, Data: r.pointUniform.Marshal()},
		{Provider: r.lightProvider, Binding: 1, Data: r.ambientUniform.Marshal()},
	})
	if err != nil {
		return fmt.Errorf("failed to write frame uniforms: %w", err)
	}

	batches := r.batches.Batches()
	payloads := make([][]byte, len(batches))

	var wg sync.WaitGroup
	for i, b := range batches {
		if b.Pool().NumSpawns() == 0 {
			continue
		}
		wg.Add(1)
		idx, pool := i, b.Pool()
		r.workerPool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				payloads[idx] = pool.Marshal()
				return nil, nil
			},
		})
	}
	wg.Wait()

	for i, b := range batches {
		if err := b.SyncAnimation(r.device); err != nil {
			return fmt.Errorf("failed to write animation of sprite pool %d: %w", i, err)
		}
		if payloads[i] == nil {
			continue
		}
		if err := b.Pool().Upload(r.device, payloads[i]); err != nil {
			return fmt.Errorf("failed to upload instances of sprite pool %d: %w", i, err)
		}
	}
	return nil
}

func (r *renderer) surfaceFailure(err error) error {
	r.state = FrameIdle
	if errors.Is(err, gpu.ErrSurfaceFatal) {
		return fmt.Errorf("failed to acquire swapchain image: %w", err)
	}
	r.stats.Skipped++
	r.logger.Warn("frame skipped", "reason", err)
	if cerr := r.surface.Configure(r.width, r.height); cerr != nil {
		r.logger.Error("failed to reconfigure surface", "width", r.width, "height", r.height, "err", cerr)
	}
	return nil
}

func (r *renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == 0 || height == 0 {
		return nil
	}
	if width == r.width && height == r.height && r.depthTexture != nil {
		return nil
	}
	return r.configure(width, height)
}

// configure reconfigures the surface and swaps in a depth attachment of the new size.
func (r *renderer) configure(width, height uint32) error {
	if err := r.surface.Configure(width, height); err != nil {
		return fmt.Errorf("failed to configure surface to %dx%d: %w", width, height, err)
	}
	depth, err := r.device.CreateTexture(&gpu.TextureDescriptor{
		Label:  "Depth Texture",
		Width:  width,
		Height: height,
		Format: wgpu.TextureFormatDepth32Float,
		Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	view, err := depth.CreateView()
	if err != nil {
		depth.Release()
		return fmt.Errorf("failed to create depth texture view: %w", err)
	}
	r.releaseDepth()
	r.depthTexture, r.depthView = depth, view
	r.width, r.height = width, height
	r.logger.Debug("surface configured", "width", width, "height", height)
	return nil
}

func (r *renderer) releaseDepth() {
	if r.depthView != nil {
		r.depthView.Release()
		r.depthView = nil
	}
	if r.depthTexture != nil {
		r.depthTexture.Release()
		r.depthTexture = nil
	}
}

func (r *renderer) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) State() FrameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Layouts() *layout.Set {
	return r.layouts
}

func (r *renderer) Textures() *texture.Registry {
	return r.textures
}

func (r *renderer) Pipeline() pipeline.Pipeline {
	return r.pipeline
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = c
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.workerPool != nil {
		r.workerPool.Stop()
		r.workerPool = nil
	}
	r.batches.Release()
	if r.textures != nil {
		r.textures.Release()
		r.textures = nil
	}
	if r.cameraProvider != nil {
		r.cameraProvider.Release()
		r.cameraProvider = nil
	}
	if r.lightProvider != nil {
		r.lightProvider.Release()
		r.lightProvider = nil
	}
	r.releaseDepth()
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.layouts != nil {
		r.layouts.Release()
		r.layouts = nil
	}
}
