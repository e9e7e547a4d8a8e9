package shaders

import (
	"encoding/binary"
	"errors"
	"testing"
	"testing/fstest"

	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"
)

func spirv(words ...uint32) []byte {
	code := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(code, spirvMagic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(code[4*(i+1):], w)
	}
	return code
}

func TestLoadFindsStages(t *testing.T) {
	g := NewWithT(t)

	fsys := fstest.MapFS{
		"compiled/quad_frag.spv": {Data: spirv(2)},
		"compiled/quad_vert.spv": {Data: spirv(1)},
		"compiled/README.txt":    {Data: []byte("not a shader")},
	}

	loaded, err := Load(fsys, "compiled")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded).To(HaveLen(2))

	g.Expect(loaded[0].Name).To(Equal("quad"))
	g.Expect(loaded[0].Stage).To(Equal(vk.ShaderStageVertexBit))
	g.Expect(loaded[0].Path).To(Equal("compiled/quad_vert.spv"))
	g.Expect(loaded[0].Words()).To(Equal([]uint32{spirvMagic, 1}))

	g.Expect(loaded[1].Stage).To(Equal(vk.ShaderStageFragmentBit))

	vertex, fragment, err := Pair(loaded)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vertex.Path).To(Equal("compiled/quad_vert.spv"))
	g.Expect(fragment.Path).To(Equal("compiled/quad_frag.spv"))
}

func TestLoadEmptyDirectory(t *testing.T) {
	g := NewWithT(t)

	fsys := fstest.MapFS{
		"compiled/notes.md": {Data: []byte("# notes")},
	}

	_, err := Load(fsys, "compiled")
	g.Expect(errors.Is(err, ErrNoShaders)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("go generate"))
}

func TestLoadMissingDirectory(t *testing.T) {
	g := NewWithT(t)

	_, err := Load(fstest.MapFS{}, "compiled")
	g.Expect(err).To(HaveOccurred())
}

func TestLoadRejectsBadModules(t *testing.T) {
	g := NewWithT(t)

	tests := map[string][]byte{
		"empty":     {},
		"unaligned": {0x03, 0x02, 0x23},
		"magic":     {0xde, 0xad, 0xbe, 0xef},
	}

	for name, data := range tests {
		fsys := fstest.MapFS{
			"dir/x_vert.spv": {Data: data},
		}
		_, err := Load(fsys, "dir")
		g.Expect(errors.Is(err, ErrInvalidSPIRV)).To(BeTrue(), name)
	}
}

func TestLoadRejectsUnknownStage(t *testing.T) {
	g := NewWithT(t)

	for _, fileName := range []string{"quad.spv", "quad_geom.spv", "_vert.spv"} {
		fsys := fstest.MapFS{
			"dir/" + fileName: {Data: spirv()},
		}
		_, err := Load(fsys, "dir")
		g.Expect(err).To(HaveOccurred(), fileName)
	}
}

func TestPairNeedsBothStages(t *testing.T) {
	g := NewWithT(t)

	vert := Shader{Name: "a", Stage: vk.ShaderStageVertexBit}
	frag := Shader{Name: "a", Stage: vk.ShaderStageFragmentBit}

	_, _, err := Pair([]Shader{vert})
	g.Expect(err).To(HaveOccurred())

	_, _, err = Pair([]Shader{vert, vert, frag})
	g.Expect(err).To(HaveOccurred())
}
