package shader

import "github.com/cogentcore/webgpu/wgpu"

type sampledTexture struct {
	dimension    wgpu.TextureViewDimension
	multisampled bool
}

// typeLayout is the byte size and alignment of a WGSL type in a host-shareable address space.
type typeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}
