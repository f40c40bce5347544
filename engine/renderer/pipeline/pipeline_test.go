package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spriteSource = `
@group(0) @binding(0) var t: texture_2d<f32>;
@group(1) @binding(0) var<uniform> camera: mat4x4<f32>;
@group(3) @binding(1) var<uniform> progress: vec4<u32>;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(); }
`

func TestNewRenderPipelineUsesLayoutSet(t *testing.T) {
	d := gpu.NewSoftDevice()
	set, err := layout.NewSet(d)
	require.NoError(t, err)

	p, err := NewRenderPipeline(d, set, WithPipelineKey("sprite"), WithShaderSource(spriteSource))
	require.NoError(t, err)
	assert.Equal(t, PipelineTypeRender, p.Type())
	assert.Equal(t, "sprite", p.PipelineKey())
	assert.NotNil(t, p.Render())
	assert.Nil(t, p.Compute())

	l, err := p.BindGroupLayout(int(layout.GroupSpriteAnimation))
	require.NoError(t, err)
	assert.Same(t, set.SpriteAnimation(), l)

	_, err = p.BindGroupLayout(4)
	assert.Error(t, err)
}

func TestNewRenderPipelineRejectsLayoutMismatch(t *testing.T) {
	d := gpu.NewSoftDevice()
	set, err := layout.NewSet(d)
	require.NoError(t, err)

	swapped := set.Layouts()
	swapped[1], swapped[2] = swapped[2], swapped[1]

	_, err = NewRenderPipeline(d, set, WithShaderSource(spriteSource), WithBindGroupLayouts(swapped...))
	var cfg *layout.ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, layout.GroupCamera, cfg.Group)

	_, err = NewRenderPipeline(d, set, WithShaderSource(spriteSource), WithBindGroupLayouts(swapped[:2]...))
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, layout.Group(-1), cfg.Group)
}

func TestShaderReferencingUnknownGroupIsRejected(t *testing.T) {
	d := gpu.NewSoftDevice()
	set, err := layout.NewSet(d)
	require.NoError(t, err)

	_, err = NewRenderPipeline(d, set, WithShaderSource(spriteSource+"@group(4) @binding(0) var<uniform> extra: vec4<f32>;"))
	var cfg *layout.ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, layout.Group(4), cfg.Group)

	_, err = NewRenderPipeline(d, set)
	assert.True(t, errors.As(err, &cfg))
}

func TestShaderValidationFailureIsShaderError(t *testing.T) {
	d := gpu.NewSoftDevice()
	set, err := layout.NewSet(d)
	require.NoError(t, err)

	_, err = NewRenderPipeline(d, set, WithPipelineKey("broken"), WithShaderValidation(true),
		WithShaderSource(spriteSource+"\nfn broken( -> {\n"))
	var shaderErr *ShaderError
	require.True(t, errors.As(err, &shaderErr))
	assert.Equal(t, "broken", shaderErr.Pipeline)
	assert.Contains(t, err.Error(), "shader validation failed")
	assert.NotContains(t, err.Error(), "bind group")

	var cfg *layout.ConfigurationError
	assert.False(t, errors.As(err, &cfg))
}

func TestShaderBindingKindMustMatchLayout(t *testing.T) {
	d := gpu.NewSoftDevice()
	set, err := layout.NewSet(d)
	require.NoError(t, err)

	src := `
@group(1) @binding(0) var<storage, read> camera: array<vec4<f32>>;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(); }
`
	_, err = NewRenderPipeline(d, set, WithShaderSource(src))
	var cfg *layout.ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, layout.GroupCamera, cfg.Group)
	assert.Contains(t, cfg.Reason, "camera")
}

func TestNewComputePipeline(t *testing.T) {
	d := gpu.NewSoftDevice(gpu.WithKernel("main", func([3]uint32, map[uint32]map[uint32][]byte) {}))
	l, err := d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "compute",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
		},
	})
	require.NoError(t, err)

	src := "@group(0) @binding(0) var<storage, read_write> v: array<u32>;\n@compute @workgroup_size(1) fn main() {}"
	p, err := NewComputePipeline(d, WithPipelineKey("double"), WithShaderSource(src), WithBindGroupLayouts(l))
	require.NoError(t, err)
	assert.Equal(t, PipelineTypeCompute, p.Type())
	assert.NotNil(t, p.Compute())
	assert.Nil(t, p.Render())

	got, err := p.BindGroupLayout(0)
	require.NoError(t, err)
	assert.Same(t, l, got)

	_, err = NewComputePipeline(d, WithShaderSource(src))
	assert.Error(t, err)

	_, err = NewComputePipeline(d, WithShaderSource(src), WithComputeEntryPoint("missing"), WithBindGroupLayouts(l))
	assert.Error(t, err)

	p.Release()
	assert.Nil(t, p.Compute())
}

func TestPipelineTypeString(t *testing.T) {
	assert.Equal(t, "render", PipelineTypeRender.String())
	assert.Equal(t, "compute", PipelineTypeCompute.String())
}
