package geometry

import (
	"vkquad/unsafer"

	"github.com/xlab/linmath"
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// Quad returns a unit quad in the XY plane centered on the origin.
func Quad() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{
				Pos:      linmath.Vec3{-0.5, -0.5, 0},
				Color:    linmath.Vec3{1, 0, 0},
				TexCoord: linmath.Vec2{1, 0},
			},
			{
				Pos:      linmath.Vec3{0.5, -0.5, 0},
				Color:    linmath.Vec3{0, 1, 0},
				TexCoord: linmath.Vec2{0, 0},
			},
			{
				Pos:      linmath.Vec3{0.5, 0.5, 0},
				Color:    linmath.Vec3{0, 0, 1},
				TexCoord: linmath.Vec2{0, 1},
			},
			{
				Pos:      linmath.Vec3{-0.5, 0.5, 0},
				Color:    linmath.Vec3{1, 1, 1},
				TexCoord: linmath.Vec2{1, 1},
			},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}

// VertexBytes views the vertices as raw bytes without copying.
func (m *Mesh) VertexBytes() []byte {
	return unsafer.SliceToBytes(m.Vertices)
}

// IndexBytes views the indices as raw bytes without copying.
func (m *Mesh) IndexBytes() []byte {
	return unsafer.SliceToBytes(m.Indices)
}

// IndexCount is the number of indices to draw.
func (m *Mesh) IndexCount() uint32 {
	return uint32(len(m.Indices))
}
