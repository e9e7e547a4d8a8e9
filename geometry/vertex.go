// Package geometry holds the meshes the renderer draws and the vertex layout
// the graphics pipeline is built with.
package geometry

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

// Vertex is a single vertex as it is laid out in the vertex buffer.
type Vertex struct {
	Pos      linmath.Vec3
	Color    linmath.Vec3
	TexCoord linmath.Vec2
}

// VertexSize is the stride between two vertices in the vertex buffer.
func VertexSize() uint32 {
	return uint32(unsafe.Sizeof(Vertex{}))
}

// BindingDescription describes the single per-vertex binding.
func BindingDescription() vk.VertexInputBindingDescription {
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    VertexSize(),
		InputRate: vk.VertexInputRateVertex,
	}

	return bindingDescription
}

// AttributeDescriptions matches the inputs of the quad vertex shader.
func AttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}
