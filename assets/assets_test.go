package assets

import (
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"vkquad/geometry"
	"vkquad/shaders"

	. "github.com/onsi/gomega"
)

func shaderFS() fstest.MapFS {
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, 0x07230203)

	return fstest.MapFS{
		"compiled/quad_vert.spv": {Data: code},
		"compiled/quad_frag.spv": {Data: code},
	}
}

func TestLoadDefaults(t *testing.T) {
	g := NewWithT(t)

	bundle, err := Load(context.Background(), Config{
		Shaders:   shaderFS(),
		ShaderDir: "compiled",
	})
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(bundle.Vertex.Path).To(Equal("compiled/quad_vert.spv"))
	g.Expect(bundle.Fragment.Path).To(Equal("compiled/quad_frag.spv"))
	g.Expect(bundle.Texture).NotTo(BeNil())
	g.Expect(bundle.Mesh).To(Equal(geometry.Quad()))
}

func TestLoadUsesInjectedLoaders(t *testing.T) {
	g := NewWithT(t)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	mesh := &geometry.Mesh{Indices: []uint16{0, 0, 0}}

	var texturePath, modelPath string
	bundle, err := Load(context.Background(), Config{
		Shaders:     shaderFS(),
		ShaderDir:   "compiled",
		TexturePath: "board.png",
		ModelPath:   "room.obj",
		LoadTexture: func(path string) (*image.RGBA, error) {
			texturePath = path
			return img, nil
		},
		LoadModel: func(path string) (*geometry.Mesh, error) {
			modelPath = path
			return mesh, nil
		},
	})
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(texturePath).To(Equal("board.png"))
	g.Expect(modelPath).To(Equal("room.obj"))
	g.Expect(bundle.Texture).To(BeIdenticalTo(img))
	g.Expect(bundle.Mesh).To(BeIdenticalTo(mesh))
}

func TestLoadReportsFirstError(t *testing.T) {
	g := NewWithT(t)

	textureErr := errors.New("no texture for you")

	_, err := Load(context.Background(), Config{
		Shaders:     shaderFS(),
		ShaderDir:   "compiled",
		TexturePath: "missing.png",
		LoadTexture: func(string) (*image.RGBA, error) {
			return nil, textureErr
		},
	})
	g.Expect(errors.Is(err, textureErr)).To(BeTrue())
}

func TestLoadFallsBackToCheckerboard(t *testing.T) {
	g := NewWithT(t)

	bundle, err := Load(context.Background(), Config{
		Shaders:   shaderFS(),
		ShaderDir: "compiled",
		LoadTexture: func(string) (*image.RGBA, error) {
			return nil, errors.New("corrupt embedded texture")
		},
	})
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(bundle.Texture.Bounds()).To(Equal(image.Rect(0, 0, 256, 256)))
	g.Expect(bundle.Texture.RGBAAt(0, 0)).To(Equal(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}))
	g.Expect(bundle.Texture.RGBAAt(32, 0)).To(Equal(color.RGBA{R: 0xff, B: 0xff, A: 0xff}))
}

func TestLoadMissingShaders(t *testing.T) {
	g := NewWithT(t)

	_, err := Load(context.Background(), Config{
		Shaders:   fstest.MapFS{"compiled/readme.txt": {Data: []byte("hi")}},
		ShaderDir: "compiled",
	})
	g.Expect(errors.Is(err, shaders.ErrNoShaders)).To(BeTrue())
}

func TestLoadModelFromDisk(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "tri.obj")
	obj := "o tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	g.Expect(os.WriteFile(path, []byte(obj), 0o600)).To(Succeed())

	mesh, err := defaultModel(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(mesh.Indices).To(Equal([]uint16{0, 1, 2}))

	_, err = defaultModel(filepath.Join(t.TempDir(), "missing.obj"))
	g.Expect(err).To(HaveOccurred())
}
