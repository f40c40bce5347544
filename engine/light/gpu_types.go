package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPointLight is the GPU-aligned representation of the point light uniform (light group, binding 0).
// Size: 48 bytes (WGSL aligned).
type GPUPointLight struct {
	Position [3]float32 // offset  0: world position (vec3<f32>)
	_pad0    float32    // offset 12
	Color    [3]float32 // offset 16: linear RGB color (vec3<f32>)
	_pad1    float32    // offset 28
	_pad2    [4]float32 // offset 32: reserved
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (48)
func (g *GPUPointLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPointLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPUPointLight) Marshal() []byte {
	buf := make([]byte, 48)
	putVec3(buf[0:], g.Position)
	putVec3(buf[16:], g.Color)
	return buf
}

// GPUAmbientLight is the GPU-aligned representation of the ambient light uniform (light group, binding 1).
// Size: 48 bytes (WGSL aligned).
type GPUAmbientLight struct {
	Direction   [3]float32 // offset  0: direction the light travels (vec3<f32>)
	_pad0       float32    // offset 12
	LightColor  [3]float32 // offset 16: color added to lit faces (vec3<f32>)
	_pad1       float32    // offset 28
	ShadowColor [3]float32 // offset 32: color added to faces turned away (vec3<f32>)
	_pad2       float32    // offset 44
}

// Size returns the size of the GPUAmbientLight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (48)
func (g *GPUAmbientLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUAmbientLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPUAmbientLight) Marshal() []byte {
	buf := make([]byte, 48)
	putVec3(buf[0:], g.Direction)
	putVec3(buf[16:], g.LightColor)
	putVec3(buf[32:], g.ShadowColor)
	return buf
}

func putVec3(buf []byte, v [3]float32) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}
