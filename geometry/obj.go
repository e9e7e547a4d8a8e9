package geometry

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mokiat/go-data-front/decoder/obj"
	"github.com/xlab/linmath"
)

// ErrTooManyVertices is returned for meshes which cannot be drawn with 16 bit
// indices.
var ErrTooManyVertices = errors.New("mesh has more unique vertices than 16 bit indices allow")

// ErrBadReference is returned when a face points past the model's vertices or
// texture coordinates.
var ErrBadReference = errors.New("OBJ face reference out of range")

// LoadOBJ decodes a Wavefront OBJ model into a single mesh. Polygons are
// split into triangle fans and identical vertices are shared.
func LoadOBJ(r io.Reader) (*Mesh, error) {
	decoder := obj.NewDecoder(obj.DefaultLimits())

	model, err := decoder.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OBJ: %w", err)
	}

	b := newMeshBuilder(math.MaxUint16)

	index := func(ref obj.Reference) (uint16, error) {
		if ref.VertexIndex < 0 || ref.VertexIndex >= int64(len(model.Vertices)) {
			return 0, fmt.Errorf("face references vertex %d of %d: %w",
				ref.VertexIndex+1, len(model.Vertices), ErrBadReference)
		}
		v := model.GetVertexFromReference(ref)

		vertex := Vertex{
			Pos:   linmath.Vec3{float32(v.X), float32(v.Y), float32(v.Z)},
			Color: linmath.Vec3{1, 1, 1},
		}
		if ref.HasTexCoord() {
			if ref.TexCoordIndex < 0 || ref.TexCoordIndex >= int64(len(model.TexCoords)) {
				return 0, fmt.Errorf("face references texture coordinate %d of %d: %w",
					ref.TexCoordIndex+1, len(model.TexCoords), ErrBadReference)
			}
			tc := model.GetTexCoordFromReference(ref)

			// OBJ puts V=0 at the bottom of the image, Vulkan at the top.
			vertex.TexCoord = linmath.Vec2{float32(tc.U), float32(1 - tc.V)}
		}

		return b.add(vertex)
	}

	for _, object := range model.Objects {
		for _, objMesh := range object.Meshes {
			for _, face := range objMesh.Faces {
				refs := face.References
				for i := 1; i+1 < len(refs); i++ {
					for _, ref := range [3]obj.Reference{refs[0], refs[i], refs[i+1]} {
						idx, err := index(ref)
						if err != nil {
							return nil, err
						}
						b.mesh.Indices = append(b.mesh.Indices, idx)
					}
				}
			}
		}
	}

	if len(b.mesh.Indices) == 0 {
		return nil, fmt.Errorf("OBJ model has no faces")
	}

	return b.mesh, nil
}

// meshBuilder hands out one index per distinct vertex.
type meshBuilder struct {
	mesh        *Mesh
	seen        map[Vertex]uint16
	maxVertices int
}

func newMeshBuilder(maxVertices int) *meshBuilder {
	return &meshBuilder{
		mesh:        &Mesh{},
		seen:        make(map[Vertex]uint16),
		maxVertices: maxVertices,
	}
}

func (b *meshBuilder) add(vertex Vertex) (uint16, error) {
	if idx, ok := b.seen[vertex]; ok {
		return idx, nil
	}

	if len(b.mesh.Vertices) >= b.maxVertices {
		return 0, ErrTooManyVertices
	}

	idx := uint16(len(b.mesh.Vertices))
	b.seen[vertex] = idx
	b.mesh.Vertices = append(b.mesh.Vertices, vertex)
	return idx, nil
}
