package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/perspective/common"
	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/Carmen-Shannon/perspective/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/perspective/engine/sprite"
	"github.com/Carmen-Shannon/perspective/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/naga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, device gpu.Device, surface gpu.Surface, options ...RendererBuilderOption) Renderer {
	t.Helper()
	base := []RendererBuilderOption{WithSize(64, 32), WithLogger(logger.Discard()), WithWorkers(2)}
	r, err := NewRenderer(device, surface, append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func loadTexture(t *testing.T, r Renderer) texture.ID {
	t.Helper()
	id, err := r.Textures().LoadRGBA(common.TextureStagingData{Pixels: make([]byte, 2*2*4), Width: 2, Height: 2}, 1)
	require.NoError(t, err)
	return id
}

func TestRenderFramePresents(t *testing.T) {
	d := gpu.NewSoftDevice()
	s := gpu.NewSoftSurface(d)
	r := newTestRenderer(t, d, s)

	pool, err := r.CreatePool(loadTexture(t, r), sprite.NewPoolSettings(sprite.WithCapacity(4)))
	require.NoError(t, err)
	_, err = r.Spawn(pool, mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent(), 1)
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame())
	assert.Equal(t, FramePresented, r.State())
	assert.Equal(t, Stats{Presented: 1}, r.Stats())
	assert.Equal(t, 1, s.Presented())

	draws := d.DrawRecords()
	require.Len(t, draws, 1)
	assert.Equal(t, SpritePipelineKey, draws[0].Pipeline)
	assert.Equal(t, uint32(1), draws[0].InstanceCount)
	assert.Equal(t, uint32(6), draws[0].IndexCount)
	assert.Empty(t, d.ValidationErrors())

	require.NoError(t, r.RenderFrame())
	assert.Equal(t, uint64(2), r.Stats().Presented)
}

func TestRenderFrameSkipsOnRecoverableSurfaceError(t *testing.T) {
	d := gpu.NewSoftDevice()
	s := gpu.NewSoftSurface(d)
	r := newTestRenderer(t, d, s)
	configured := s.ConfigureCount()

	s.InjectAcquireError(errors.New("surface outdated"))
	require.NoError(t, r.RenderFrame())

	assert.Equal(t, FrameIdle, r.State())
	assert.Equal(t, Stats{Skipped: 1}, r.Stats())
	assert.Equal(t, configured+1, s.ConfigureCount())
	w, h := s.Size()
	assert.Equal(t, uint32(64), w)
	assert.Equal(t, uint32(32), h)
	assert.Equal(t, 0, d.Submissions())

	require.NoError(t, r.RenderFrame())
	assert.Equal(t, Stats{Presented: 1, Skipped: 1}, r.Stats())
}

func TestRenderFrameReturnsFatalSurfaceError(t *testing.T) {
	d := gpu.NewSoftDevice()
	s := gpu.NewSoftSurface(d)
	r := newTestRenderer(t, d, s)

	s.InjectAcquireError(errors.New("device lost"))
	err := r.RenderFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrSurfaceFatal)
	assert.False(t, errors.Is(err, gpu.ErrSurfaceRecoverable))
	assert.Equal(t, FrameIdle, r.State())
	assert.Equal(t, Stats{}, r.Stats())
}

func TestRenderFrameRejectsReentry(t *testing.T) {
	d := gpu.NewSoftDevice()
	r := newTestRenderer(t, d, gpu.NewSoftSurface(d))

	r.(*renderer).state = FramePassOpen
	assert.ErrorIs(t, r.RenderFrame(), ErrFrameInProgress)
}

func TestBatchesDoNotBleed(t *testing.T) {
	d := gpu.NewSoftDevice()
	s := gpu.NewSoftSurface(d)
	r := newTestRenderer(t, d, s)

	texA, texB := loadTexture(t, r), loadTexture(t, r)
	poolA, err := r.CreatePool(texA, sprite.NewPoolSettings(sprite.WithLabel("a"), sprite.WithCapacity(3)))
	require.NoError(t, err)
	poolB, err := r.CreatePool(texB, sprite.NewPoolSettings(sprite.WithLabel("b"), sprite.WithCapacity(2)))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := r.Spawn(poolA, mgl32.Vec3{float32(i), 0, 0}, mgl32.QuatIdent(), 1)
		require.NoError(t, err)
	}
	idB, err := r.Spawn(poolB, mgl32.Vec3{0, 5, 0}, mgl32.QuatIdent(), 2)
	require.NoError(t, err)
	inst, err := r.Instance(idB)
	require.NoError(t, err)
	inst.Position = mgl32.Vec3{0, 7, 0}

	require.NoError(t, r.RenderFrame())

	draws := d.DrawRecords()
	require.Len(t, draws, 2)
	for i, pool := range []sprite.PoolID{poolA, poolB} {
		b, err := r.Batch(pool)
		require.NoError(t, err)
		tex, ok := r.Textures().TextureBindGroup(b.TextureID())
		require.True(t, ok)

		rec := draws[i]
		assert.Same(t, tex, rec.BindGroups[uint32(layout.GroupTexture)])
		assert.Same(t, b.AnimationBindGroup(), rec.BindGroups[uint32(layout.GroupSpriteAnimation)])
		assert.Same(t, b.Pool().Buffer(), rec.VertexBuffers[1])
		assert.Equal(t, b.Pool().Marshal(), rec.VertexData[1])
		assert.Equal(t, uint32(b.Pool().NumSpawns()), rec.InstanceCount)
	}

	got := sprite.UnmarshalGPUInstance(draws[1].VertexData[1])
	assert.Equal(t, [3]float32{0, 7, 0}, got.Position)
	assert.NotSame(t, draws[0].BindGroups[uint32(layout.GroupTexture)], draws[1].BindGroups[uint32(layout.GroupTexture)])
}

type recordingDevice struct {
	gpu.Device
	events []string
}

func (d *recordingDevice) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	d.events = append(d.events, "write")
	return d.Device.WriteBuffer(buf, offset, data)
}

func (d *recordingDevice) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	d.events = append(d.events, "encoder")
	return d.Device.CreateCommandEncoder(label)
}

func (d *recordingDevice) Submit(buffers ...gpu.CommandBuffer) {
	d.events = append(d.events, "submit")
	d.Device.Submit(buffers...)
}

func TestUniformWritesPrecedeThePass(t *testing.T) {
	soft := gpu.NewSoftDevice()
	d := &recordingDevice{Device: soft}
	r := newTestRenderer(t, d, gpu.NewSoftSurface(soft))

	pool, err := r.CreatePool(loadTexture(t, r), sprite.NewPoolSettings(sprite.WithCapacity(1)))
	require.NoError(t, err)
	_, err = r.Spawn(pool, mgl32.Vec3{}, mgl32.QuatIdent(), 1)
	require.NoError(t, err)

	cam := camera.NewState(camera.WithEye(3, 2, 1))
	lights := light.NewState(light.WithPointColor(1, 1, 1))
	r.UpdateAnimationAndCamera(100*time.Millisecond, cam, lights)

	d.events = nil
	require.NoError(t, r.RenderFrame())

	// camera, point, ambient, animation, instances
	require.Equal(t, []string{"write", "write", "write", "write", "write", "encoder", "submit"}, d.events)

	impl := r.(*renderer)
	want := cam.Uniform()
	assert.Equal(t, want.Marshal(), soft.ReadBuffer(impl.cameraProvider.Buffer(0)))
	point := lights.PointUniform()
	assert.Equal(t, point.Marshal(), soft.ReadBuffer(impl.lightProvider.Buffer(0)))

	b, err := r.Batch(pool)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), b.Progress())
}

func TestResizeIsIdempotent(t *testing.T) {
	d := gpu.NewSoftDevice()
	s := gpu.NewSoftSurface(d)
	r := newTestRenderer(t, d, s)
	require.Equal(t, 1, d.LiveTextures())
	configured := s.ConfigureCount()

	require.NoError(t, r.Resize(128, 96))
	require.NoError(t, r.Resize(128, 96))
	assert.Equal(t, 1, d.LiveTextures())
	assert.Equal(t, configured+1, s.ConfigureCount())

	w, h := r.Size()
	assert.Equal(t, uint32(128), w)
	assert.Equal(t, uint32(96), h)

	require.NoError(t, r.Resize(0, 0))
	w, h = r.Size()
	assert.Equal(t, uint32(128), w)
	assert.Equal(t, uint32(96), h)
	assert.Equal(t, configured+1, s.ConfigureCount())
}

func TestSpriteShaderCompiles(t *testing.T) {
	require.NotEmpty(t, spriteShader)
	spirv, err := naga.Compile(spriteShader)
	require.NoError(t, err)
	assert.NotEmpty(t, spirv)

	d := gpu.NewSoftDevice()
	r := newTestRenderer(t, d, gpu.NewSoftSurface(d), WithShaderValidation(true))
	assert.NotNil(t, r.Pipeline().Render())
}

func TestNewRendererRejectsShaderOutsideLayoutSet(t *testing.T) {
	d := gpu.NewSoftDevice()
	src := spriteShader + "\n@group(4) @binding(0) var<uniform> extra: vec4<f32>;\n"
	_, err := NewRenderer(d, gpu.NewSoftSurface(d), WithLogger(logger.Discard()), WithPipelineOptions(pipeline.WithShaderSource(src)))

	var cfg *layout.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, SpritePipelineKey, cfg.Pipeline)
	assert.Equal(t, 0, d.LiveBuffers())
}

func TestPooledTextureStaysLoaded(t *testing.T) {
	d := gpu.NewSoftDevice()
	r := newTestRenderer(t, d, gpu.NewSoftSurface(d))
	sheet := loadTexture(t, r)
	spare := loadTexture(t, r)

	pool, err := r.CreatePool(sheet, sprite.NewPoolSettings(sprite.WithCapacity(2)))
	require.NoError(t, err)
	_, err = r.Spawn(pool, mgl32.Vec3{}, mgl32.QuatIdent(), 1)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Textures().Unload(sheet), texture.ErrTextureInUse)
	require.NoError(t, r.Textures().Unload(spare))

	require.NoError(t, r.RenderFrame())
	assert.Equal(t, uint64(1), r.Stats().Presented)
}

func TestReleaseStopsWorkerPool(t *testing.T) {
	d := gpu.NewSoftDevice()
	r, err := NewRenderer(d, gpu.NewSoftSurface(d), WithLogger(logger.Discard()), WithWorkers(3))
	require.NoError(t, err)
	impl := r.(*renderer)
	require.NotNil(t, impl.workerPool)

	r.Release()
	assert.Nil(t, impl.workerPool)
	assert.Equal(t, 0, d.LiveBuffers())
	assert.NotPanics(t, r.Release)
}

func TestCreatePoolUnknownTexture(t *testing.T) {
	d := gpu.NewSoftDevice()
	r := newTestRenderer(t, d, gpu.NewSoftSurface(d))

	_, err := r.CreatePool(texture.ID{}, sprite.DefaultPoolSettings())
	assert.ErrorIs(t, err, texture.ErrUnknownTexture)

	_, err = r.Spawn(0, mgl32.Vec3{}, mgl32.QuatIdent(), 1)
	assert.ErrorIs(t, err, sprite.ErrUnknownPool)
}

func TestReleaseFreesEverything(t *testing.T) {
	d := gpu.NewSoftDevice()
	s := gpu.NewSoftSurface(d)
	r, err := NewRenderer(d, s, WithLogger(logger.Discard()))
	require.NoError(t, err)

	_, err = r.CreatePool(loadTexture(t, r), sprite.NewPoolSettings(sprite.WithCapacity(2)))
	require.NoError(t, err)
	require.NoError(t, r.RenderFrame())

	r.Release()
	assert.Equal(t, 0, d.LiveBuffers())
	assert.Equal(t, 0, d.LiveTextures())
}

func TestFrameStateString(t *testing.T) {
	assert.Equal(t, "pass_open", FramePassOpen.String())
	assert.Equal(t, "frame_state(9)", FrameState(9).String())
}
