package compute

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/perspective/common"
	"golang.org/x/exp/constraints"
)

// LittleEndian returns a decoder that reinterprets one little-endian chunk as T. Integers and floats share the
// same path, the bits are copied, not converted.
//
// Returns:
//   - func([]byte) T: the decoder, for use with Readback.ReadAndRelease
func LittleEndian[T constraints.Integer | constraints.Float]() func([]byte) T {
	return func(b []byte) T {
		var v T
		p := unsafe.Pointer(&v)
		switch unsafe.Sizeof(v) {
		case 1:
			*(*uint8)(p) = b[0]
		case 2:
			*(*uint16)(p) = binary.LittleEndian.Uint16(b)
		case 4:
			*(*uint32)(p) = binary.LittleEndian.Uint32(b)
		case 8:
			*(*uint64)(p) = binary.LittleEndian.Uint64(b)
		}
		return v
	}
}

// encode lays data out the way the GPU reads it: packed, little-endian, one unsafe.Sizeof(T) stride per element,
// zero-padded to a multiple of 4 bytes.
func encode[T any](data []T) ([]byte, error) {
	var zero T
	stride := int(unsafe.Sizeof(zero))
	if size := binary.Size(zero); size != stride {
		return nil, fmt.Errorf("element type %T is not a packed fixed-size type (encoded %d bytes, in memory %d)", zero, size, stride)
	}
	size := int(common.AlignUp(uint64(stride*len(data)), 4))
	out, err := binary.Append(make([]byte, 0, size), binary.LittleEndian, data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T elements: %w", zero, err)
	}
	return append(out, make([]byte, size-len(out))...), nil
}
