package gpu

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32Bytes(vals ...uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func TestSoftDeviceWriteBufferValidation(t *testing.T) {
	d := NewSoftDevice()
	buf, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "b", Size: 16, Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst})
	require.NoError(t, err)

	require.NoError(t, d.WriteBuffer(buf, 0, u32Bytes(1, 2, 3, 4)))
	assert.Equal(t, u32Bytes(1, 2, 3, 4), d.ReadBuffer(buf))

	assert.Error(t, d.WriteBuffer(buf, 4, u32Bytes(1, 2, 3, 4)), "overrun")
	assert.Error(t, d.WriteBuffer(buf, 0, []byte{1, 2}), "unaligned size")

	noDst, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "v", Size: 16, Usage: wgpu.BufferUsageVertex})
	require.NoError(t, err)
	assert.Error(t, d.WriteBuffer(noDst, 0, u32Bytes(1)))
}

func TestSoftDeviceRejectsInvalidMapReadUsage(t *testing.T) {
	d := NewSoftDevice()
	_, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "bad", Size: 16, Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageStorage})
	assert.Error(t, err)
}

func TestSoftDeviceMapCallbackOnlyFiresFromPoll(t *testing.T) {
	d := NewSoftDevice()
	src, err := d.CreateBufferInit("src", wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc, u32Bytes(7, 8))
	require.NoError(t, err)
	staging, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "staging", Size: 8, Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst})
	require.NoError(t, err)

	enc, err := d.CreateCommandEncoder("copy")
	require.NoError(t, err)
	enc.CopyBufferToBuffer(src, 0, staging, 0, 8)
	cb, err := enc.Finish()
	require.NoError(t, err)
	d.Submit(cb)

	var got []wgpu.BufferMapAsyncStatus
	require.NoError(t, staging.MapAsync(wgpu.MapModeRead, 0, 8, func(s wgpu.BufferMapAsyncStatus) {
		got = append(got, s)
	}))
	assert.Empty(t, got)
	assert.Nil(t, staging.MappedRange(0, 8))

	d.Poll(PollNonBlocking)
	require.Equal(t, []wgpu.BufferMapAsyncStatus{wgpu.BufferMapAsyncStatusSuccess}, got)
	assert.Equal(t, u32Bytes(7, 8), staging.MappedRange(0, 8))

	assert.Error(t, staging.MapAsync(wgpu.MapModeRead, 0, 8, func(wgpu.BufferMapAsyncStatus) {}), "already mapped")
	staging.Unmap()
	assert.Nil(t, staging.MappedRange(0, 8))
}

func TestSoftDeviceFailNextMap(t *testing.T) {
	d := NewSoftDevice()
	staging, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "staging", Size: 8, Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst})
	require.NoError(t, err)

	d.FailNextMap(wgpu.BufferMapAsyncStatusValidationError)
	var status wgpu.BufferMapAsyncStatus
	require.NoError(t, staging.MapAsync(wgpu.MapModeRead, 0, 8, func(s wgpu.BufferMapAsyncStatus) { status = s }))
	d.Poll(PollWait)
	assert.Equal(t, wgpu.BufferMapAsyncStatusValidationError, status)
	assert.Nil(t, staging.MappedRange(0, 8))

	require.NoError(t, staging.MapAsync(wgpu.MapModeRead, 0, 8, func(s wgpu.BufferMapAsyncStatus) { status = s }))
	d.Poll(PollWait)
	assert.Equal(t, wgpu.BufferMapAsyncStatusSuccess, status)
}

func TestSoftDeviceRejectNextMap(t *testing.T) {
	d := NewSoftDevice()
	staging, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "staging", Size: 8, Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst})
	require.NoError(t, err)

	denied := errors.New("denied")
	d.RejectNextMap(denied)
	called := false
	err = staging.MapAsync(wgpu.MapModeRead, 0, 8, func(wgpu.BufferMapAsyncStatus) { called = true })
	assert.ErrorIs(t, err, denied)
	d.Poll(PollWait)
	assert.False(t, called)

	require.NoError(t, staging.MapAsync(wgpu.MapModeRead, 0, 8, func(wgpu.BufferMapAsyncStatus) { called = true }))
	d.Poll(PollWait)
	assert.True(t, called)
}

func TestSoftDeviceAlignmentRules(t *testing.T) {
	d := NewSoftDevice()
	src, err := d.CreateBufferInit("src", wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc, u32Bytes(1, 2))
	require.NoError(t, err)
	staging, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: "staging", Size: 8, Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst})
	require.NoError(t, err)

	assert.Error(t, staging.MapAsync(wgpu.MapModeRead, 0, 3, func(wgpu.BufferMapAsyncStatus) {}))
	assert.Error(t, staging.MapAsync(wgpu.MapModeRead, 4, 4, func(wgpu.BufferMapAsyncStatus) {}))

	enc, err := d.CreateCommandEncoder("copy")
	require.NoError(t, err)
	enc.CopyBufferToBuffer(src, 0, staging, 0, 6)
	cb, err := enc.Finish()
	require.NoError(t, err)
	d.Submit(cb)
	require.Len(t, d.ValidationErrors(), 1)
	assert.Contains(t, d.ValidationErrors()[0].Error(), "not 4 byte aligned")
}

func TestSoftDeviceComputeKernel(t *testing.T) {
	d := NewSoftDevice(WithKernel("main", func(wg [3]uint32, buffers map[uint32]map[uint32][]byte) {
		data := buffers[0][0]
		for i := 0; i < int(wg[0]); i++ {
			v := binary.LittleEndian.Uint32(data[i*4:])
			binary.LittleEndian.PutUint32(data[i*4:], v+1)
		}
	}))
	layout, err := d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "compute",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
		}},
	})
	require.NoError(t, err)
	storage, err := d.CreateBufferInit("storage", wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc, u32Bytes(1, 2, 3))
	require.NoError(t, err)
	group, err := d.CreateBindGroup(&BindGroupDescriptor{Label: "g", Layout: layout, Entries: []BindGroupEntry{{Binding: 0, Buffer: storage}}})
	require.NoError(t, err)
	pipe, err := d.CreateComputePipeline(&ComputePipelineDescriptor{Label: "inc", Source: "@compute fn main() {}", EntryPoint: "main", Layouts: []BindGroupLayout{layout}})
	require.NoError(t, err)

	_, err = d.CreateComputePipeline(&ComputePipelineDescriptor{Label: "missing", EntryPoint: "nope"})
	assert.Error(t, err)

	enc, err := d.CreateCommandEncoder("dispatch")
	require.NoError(t, err)
	pass := enc.BeginComputePass("inc")
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, group)
	pass.DispatchWorkgroups(3, 1, 1)
	pass.End()
	cb, err := enc.Finish()
	require.NoError(t, err)

	assert.Equal(t, u32Bytes(1, 2, 3), d.ReadBuffer(storage)[:12], "nothing runs before submit")
	d.Submit(cb)
	assert.Equal(t, u32Bytes(2, 3, 4), d.ReadBuffer(storage)[:12])
	assert.Equal(t, 1, d.Submissions())

	d.Submit(cb)
	assert.Len(t, d.ValidationErrors(), 1, "double submit is reported")
}

func TestSoftDeviceEncoderRejectsOpenPass(t *testing.T) {
	d := NewSoftDevice()
	enc, err := d.CreateCommandEncoder("open")
	require.NoError(t, err)
	enc.BeginRenderPass(&RenderPassDescriptor{Label: "p"})
	_, err = enc.Finish()
	assert.Error(t, err)
}

func TestSoftDeviceTextureAccounting(t *testing.T) {
	d := NewSoftDevice()
	tex, err := d.CreateTexture(&TextureDescriptor{Label: "depth", Width: 4, Height: 4, Format: wgpu.TextureFormatDepth32Float})
	require.NoError(t, err)
	assert.Equal(t, 1, d.LiveTextures())
	tex.Release()
	tex.Release()
	assert.Equal(t, 0, d.LiveTextures())

	_, err = d.CreateTexture(&TextureDescriptor{Label: "bad", Width: 2, Height: 2, Pixels: []byte{1, 2, 3}})
	assert.Error(t, err)
}

func TestSoftSurfaceAcquireErrors(t *testing.T) {
	d := NewSoftDevice()
	s := NewSoftSurface(d)

	_, err := s.AcquireNextImage()
	assert.ErrorIs(t, err, ErrSurfaceRecoverable, "unconfigured surface")

	require.NoError(t, s.Configure(8, 8))
	s.InjectAcquireError(errors.New("Surface texture is Outdated"))
	s.InjectAcquireError(errors.New("out of memory"))

	_, err = s.AcquireNextImage()
	assert.ErrorIs(t, err, ErrSurfaceRecoverable)
	_, err = s.AcquireNextImage()
	assert.ErrorIs(t, err, ErrSurfaceFatal)

	img, err := s.AcquireNextImage()
	require.NoError(t, err)
	s.Present(img)
	assert.Equal(t, 1, s.Presented())
}

func TestClassifySurfaceError(t *testing.T) {
	tests := []struct {
		msg  string
		kind SurfaceErrorKind
	}{
		{"Surface texture is Outdated", SurfaceRecoverable},
		{"surface lost", SurfaceRecoverable},
		{"Timeout", SurfaceRecoverable},
		{"OutOfMemory", SurfaceFatal},
		{"device lost", SurfaceFatal},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			se := ClassifySurfaceError(errors.New(tt.msg))
			require.NotNil(t, se)
			assert.Equal(t, tt.kind, se.Kind)
		})
	}
	assert.Nil(t, ClassifySurfaceError(nil))
}
