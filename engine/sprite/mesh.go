package sprite

import "encoding/binary"

// quadIndices draws the quad as two counter-clockwise triangles.
var quadIndices = []uint16{0, 3, 1, 1, 3, 2}

// QuadVertices builds the four corners of a sprite quad centred on the origin in the XY plane.
// The quad is aspect wide and 1 tall; UVs span a single atlas tile of tileSize.
//
// Parameters:
//   - aspect: width over height of one tile
//   - tileSize: UV extent of one tile in the atlas
//
// Returns:
//   - []GPUQuadVertex: top-left, top-right, bottom-right, bottom-left
func QuadVertices(aspect float32, tileSize [2]float32) []GPUQuadVertex {
	hx := 0.5 * aspect
	hy := float32(0.5)
	return []GPUQuadVertex{
		{Position: [3]float32{-hx, hy, 0}, UV: [2]float32{0, 0}},
		{Position: [3]float32{hx, hy, 0}, UV: [2]float32{tileSize[0], 0}},
		{Position: [3]float32{hx, -hy, 0}, UV: [2]float32{tileSize[0], tileSize[1]}},
		{Position: [3]float32{-hx, -hy, 0}, UV: [2]float32{0, tileSize[1]}},
	}
}

// QuadIndices returns the index list of the quad.
func QuadIndices() []uint16 {
	return append([]uint16(nil), quadIndices...)
}

func marshalQuad(aspect float32, tileSize [2]float32) (vertices, indices []byte) {
	for _, v := range QuadVertices(aspect, tileSize) {
		vertices = append(vertices, v.Marshal()...)
	}
	indices = make([]byte, len(quadIndices)*2)
	for i, idx := range quadIndices {
		binary.LittleEndian.PutUint16(indices[i*2:], idx)
	}
	return vertices, indices
}
