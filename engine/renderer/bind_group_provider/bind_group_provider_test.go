package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformLayout(t *testing.T, d gpu.Device) gpu.BindGroupLayout {
	t.Helper()
	l, err := d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "u",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 16}},
			{Binding: 1, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
		},
	})
	require.NoError(t, err)
	return l
}

func TestInitAllocatesBuffersAndBindGroup(t *testing.T) {
	d := gpu.NewSoftDevice()
	l := uniformLayout(t, d)
	p := NewBindGroupProvider("camera")

	require.NoError(t, Init(d, p, l, map[int]uint64{1: 32}))
	require.NotNil(t, p.BindGroup())
	assert.Same(t, l, p.BindGroupLayout())
	assert.Equal(t, uint64(16), p.Buffer(0).Size())
	assert.Equal(t, uint64(32), p.Buffer(1).Size())
	assert.Equal(t, 2, d.LiveBuffers())

	p.Release()
	assert.Equal(t, 0, d.LiveBuffers())
	assert.Nil(t, p.BindGroup())
}

func TestInitRequiresSizeForStorage(t *testing.T) {
	d := gpu.NewSoftDevice()
	p := NewBindGroupProvider("anim")
	assert.Error(t, Init(d, p, uniformLayout(t, d), nil))
}

func TestInitRequiresTextureView(t *testing.T) {
	d := gpu.NewSoftDevice()
	l, err := d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "tex",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
		},
	})
	require.NoError(t, err)
	assert.Error(t, Init(d, NewBindGroupProvider("tex"), l, nil))
}

func TestWriteBuffers(t *testing.T) {
	d := gpu.NewSoftDevice()
	p := NewBindGroupProvider("camera")
	require.NoError(t, Init(d, p, uniformLayout(t, d), map[int]uint64{1: 16}))

	data := []byte{1, 2, 3, 4}
	require.NoError(t, WriteBuffers(d, []BufferWrite{{Provider: p, Binding: 0, Offset: 4, Data: data}}))
	assert.Equal(t, data, d.ReadBuffer(p.Buffer(0))[4:8])

	assert.Error(t, WriteBuffers(d, []BufferWrite{{Provider: p, Binding: 7, Data: data}}))
}

func TestInitMesh(t *testing.T) {
	d := gpu.NewSoftDevice()
	p := NewBindGroupProvider("quad")
	require.NoError(t, InitMesh(d, p, make([]byte, 80), []byte{0, 0, 3, 0, 1, 0, 1, 0, 3, 0, 2, 0}, 6))
	assert.Equal(t, uint64(80), p.VertexBuffer().Size())
	assert.Equal(t, uint64(12), p.IndexBuffer().Size())
	assert.Equal(t, 6, p.IndexCount())
}
