package geometry

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

const squareOBJ = `
o square
v -1.0 -1.0 0.0
v 1.0 -1.0 0.0
v 1.0 1.0 0.0
v -1.0 1.0 0.0
vt 0.0 0.0
vt 1.0 0.0
vt 1.0 1.0
vt 0.0 1.0
f 1/1 2/2 3/3 4/4
`

func TestVertexLayout(t *testing.T) {
	g := NewWithT(t)

	g.Expect(VertexSize()).To(Equal(uint32(32)))

	binding := BindingDescription()
	g.Expect(binding.Stride).To(Equal(VertexSize()))
	g.Expect(binding.InputRate).To(Equal(vk.VertexInputRateVertex))

	attrs := AttributeDescriptions()
	g.Expect(attrs).To(HaveLen(3))
	g.Expect(attrs[0].Offset).To(Equal(uint32(0)))
	g.Expect(attrs[1].Offset).To(Equal(uint32(12)))
	g.Expect(attrs[2].Offset).To(Equal(uint32(24)))
	g.Expect(attrs[2].Format).To(Equal(vk.FormatR32g32Sfloat))

	for i, attr := range attrs {
		g.Expect(attr.Location).To(Equal(uint32(i)))
	}
}

func TestQuad(t *testing.T) {
	g := NewWithT(t)

	quad := Quad()
	g.Expect(quad.Vertices).To(HaveLen(4))
	g.Expect(quad.IndexCount()).To(Equal(uint32(6)))
	g.Expect(quad.VertexBytes()).To(HaveLen(4 * 32))
	g.Expect(quad.IndexBytes()).To(HaveLen(12))

	for _, idx := range quad.Indices {
		g.Expect(int(idx)).To(BeNumerically("<", len(quad.Vertices)))
	}
}

func TestLoadOBJTriangulatesAndShares(t *testing.T) {
	g := NewWithT(t)

	mesh, err := LoadOBJ(strings.NewReader(squareOBJ))
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(mesh.Vertices).To(HaveLen(4))
	g.Expect(mesh.Indices).To(Equal([]uint16{0, 1, 2, 0, 2, 3}))

	g.Expect(mesh.Vertices[0].Pos).To(Equal(linmath.Vec3{-1, -1, 0}))
	g.Expect(mesh.Vertices[0].TexCoord).To(Equal(linmath.Vec2{0, 1}))
	g.Expect(mesh.Vertices[2].TexCoord).To(Equal(linmath.Vec2{1, 0}))
	g.Expect(mesh.Vertices[3].Color).To(Equal(linmath.Vec3{1, 1, 1}))
}

func TestLoadOBJWithoutFaces(t *testing.T) {
	g := NewWithT(t)

	_, err := LoadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\n"))
	g.Expect(err).To(HaveOccurred())
}

func TestLoadOBJOutOfRangeReference(t *testing.T) {
	g := NewWithT(t)

	_, err := LoadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"))
	g.Expect(errors.Is(err, ErrBadReference)).To(BeTrue())

	_, err = LoadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3/5\n"))
	g.Expect(errors.Is(err, ErrBadReference)).To(BeTrue())
}

func TestMeshBuilderLimit(t *testing.T) {
	g := NewWithT(t)

	b := newMeshBuilder(2)

	first, err := b.add(Vertex{Pos: linmath.Vec3{1, 0, 0}})
	g.Expect(err).NotTo(HaveOccurred())
	second, err := b.add(Vertex{Pos: linmath.Vec3{0, 1, 0}})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second).To(Equal(first + 1))

	again, err := b.add(Vertex{Pos: linmath.Vec3{1, 0, 0}})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(again).To(Equal(first))

	_, err = b.add(Vertex{Pos: linmath.Vec3{0, 0, 1}})
	g.Expect(errors.Is(err, ErrTooManyVertices)).To(BeTrue())
	g.Expect(b.mesh.Vertices).To(HaveLen(2))
}
