package sprite

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUInstanceSize is the size of one instance record in the instance buffer.
const GPUInstanceSize = 48

// GPUQuadVertexSize is the size of one quad vertex in the mesh vertex buffer.
const GPUQuadVertexSize = 20

// GPUInstance is the GPU-aligned representation of a single sprite instance.
// Position, rotation and scale are stored as-is; the vertex stage composes the model matrix.
// Size: 48 bytes (36 bytes of data, 12 bytes of padding).
type GPUInstance struct {
	Position [3]float32 // offset  0: world position (12 bytes)
	Scale    float32    // offset 12: uniform scale (4 bytes)
	Rotation [4]float32 // offset 16: orientation quaternion x, y, z, w (16 bytes)
	Slot     uint32     // offset 32: slot index in the owning pool (4 bytes)
	_        [3]uint32  // offset 36: padding (12 bytes)
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, GPUInstanceSize)
	g.MarshalTo(buf)
	return buf
}

// MarshalTo serializes the record into the first 48 bytes of buf.
func (g *GPUInstance) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Scale))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Rotation[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Rotation[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Rotation[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Rotation[3]))
	binary.LittleEndian.PutUint32(buf[32:36], g.Slot)
	clear(buf[36:GPUInstanceSize])
}

// UnmarshalGPUInstance decodes a record previously produced by Marshal.
//
// Parameters:
//   - buf: at least 48 bytes
//
// Returns:
//   - GPUInstance: the decoded record
func UnmarshalGPUInstance(buf []byte) GPUInstance {
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	return GPUInstance{
		Position: [3]float32{f(0), f(4), f(8)},
		Scale:    f(12),
		Rotation: [4]float32{f(16), f(20), f(24), f(28)},
		Slot:     binary.LittleEndian.Uint32(buf[32:36]),
	}
}

// InstanceVertexLayout is the vertex buffer layout of the instance buffer, bound at vertex slot 1.
//
// Returns:
//   - wgpu.VertexBufferLayout: locations 5 (position + scale), 6 (rotation) and 7 (slot), stepped per instance
func InstanceVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUInstanceSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 6},
			{Format: wgpu.VertexFormatUint32, Offset: 32, ShaderLocation: 7},
		},
	}
}

// GPUQuadVertex is a single vertex of the sprite quad.
// Size: 20 bytes.
type GPUQuadVertex struct {
	Position [3]float32 // offset  0: model space position (12 bytes)
	UV       [2]float32 // offset 12: texture coordinate within the first atlas frame (8 bytes)
}

// Marshal serializes the GPUQuadVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (g *GPUQuadVertex) Marshal() []byte {
	buf := make([]byte, GPUQuadVertexSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.UV[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.UV[1]))
	return buf
}

// QuadVertexLayout is the vertex buffer layout of the quad mesh, bound at vertex slot 0.
func QuadVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUQuadVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		},
	}
}

// GPUAnimationUniform is the per-batch animation progress uniform.
// Size: 16 bytes.
type GPUAnimationUniform struct {
	Progress   uint32    // offset 0: whole frame steps elapsed since the batch was created
	FrameCount uint32    // offset 4: number of entries in the frame table
	_          [2]uint32 // offset 8: padding
}

// Marshal serializes the GPUAnimationUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUAnimationUniform) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.Progress)
	binary.LittleEndian.PutUint32(buf[4:8], g.FrameCount)
	return buf
}

// MarshalFrames packs the animation frame table as consecutive vec2<f32> UV offsets.
func MarshalFrames(frames [][2]float32) []byte {
	buf := make([]byte, len(frames)*8)
	for i, f := range frames {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(f[0]))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(f[1]))
	}
	return buf
}
