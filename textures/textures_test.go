package textures_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"vkquad/textures"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

func TestDefaultTexture(t *testing.T) {
	g := NewWithT(t)

	img, err := textures.Default()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(img.Bounds()).To(Equal(image.Rect(0, 0, 256, 256)))
	g.Expect(img.Pix).To(HaveLen(int(textures.Size(img))))
}

func TestDecodeConvertsToRGBA(t *testing.T) {
	g := NewWithT(t)

	gray := image.NewGray(image.Rect(2, 3, 6, 5))
	gray.SetGray(2, 3, color.Gray{Y: 200})

	var buf bytes.Buffer
	g.Expect(png.Encode(&buf, gray)).To(Succeed())

	img, err := textures.Decode(&buf)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(img.Bounds()).To(Equal(image.Rect(0, 0, 4, 2)))
	g.Expect(img.Stride).To(Equal(16))
	g.Expect(img.RGBAAt(0, 0)).To(Equal(color.RGBA{R: 200, G: 200, B: 200, A: 255}))
	g.Expect(textures.Size(img)).To(Equal(uint64(32)))
}

func TestDecodeGarbage(t *testing.T) {
	g := NewWithT(t)

	_, err := textures.Decode(strings.NewReader("definitely not an image"))
	g.Expect(err).To(HaveOccurred())
}

func TestLoad(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "board.png")

	var buf bytes.Buffer
	g.Expect(png.Encode(&buf, textures.Checkerboard(8, 4, white, black))).To(Succeed())
	g.Expect(os.WriteFile(path, buf.Bytes(), 0o600)).To(Succeed())

	img, err := textures.Load(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(img.RGBAAt(0, 0)).To(Equal(white))
	g.Expect(img.RGBAAt(4, 0)).To(Equal(black))

	_, err = textures.Load(filepath.Join(dir, "missing.png"))
	g.Expect(err).To(HaveOccurred())
}

func TestCheckerboard(t *testing.T) {
	g := NewWithT(t)

	img := textures.Checkerboard(4, 2, white, black)
	g.Expect(img.RGBAAt(0, 0)).To(Equal(white))
	g.Expect(img.RGBAAt(1, 1)).To(Equal(white))
	g.Expect(img.RGBAAt(2, 0)).To(Equal(black))
	g.Expect(img.RGBAAt(0, 2)).To(Equal(black))
	g.Expect(img.RGBAAt(3, 3)).To(Equal(white))

	img = textures.Checkerboard(2, 0, white, black)
	g.Expect(img.RGBAAt(1, 0)).To(Equal(black))
}
