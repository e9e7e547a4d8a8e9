// Package textures turns image files into tightly packed RGBA8 pixel data
// which can be copied straight into a VK_FORMAT_R8G8B8A8_SRGB image.
package textures

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	// Used for decoding textures
	_ "image/jpeg"
	_ "image/png"
)

// DefaultName is the texture shipped inside the binary.
const DefaultName = "texture.png"

// FS contains the default texture. It makes it possible to generate a binary
// and just copy it to another machine.
//
//go:embed texture.png
var FS embed.FS

// Decode reads an image in any of the registered formats and converts it
// to RGBA with its origin at (0, 0).
func Decode(r io.Reader) (*image.RGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%s image has no pixels", format)
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == image.Pt(0, 0) && rgba.Stride == 4*b.Dx() {
		return rgba, nil
	}

	rgbaImg := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgbaImg, rgbaImg.Bounds(), img, b.Min, draw.Src)

	return rgbaImg, nil
}

// Load decodes the image file at path.
func Load(path string) (*image.RGBA, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture: %w", err)
	}
	defer fh.Close()

	img, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Default decodes the embedded texture.
func Default() (*image.RGBA, error) {
	fh, err := FS.Open(DefaultName)
	if err != nil {
		return nil, fmt.Errorf("opening embedded texture: %w", err)
	}
	defer fh.Close()

	return Decode(fh)
}

// Checkerboard generates a size x size image of alternating cells. It stands in
// for the embedded texture when that cannot be decoded.
func Checkerboard(size, cell int, a, b color.RGBA) *image.RGBA {
	if cell <= 0 {
		cell = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return img
}

// Size returns the number of bytes needed to store img's pixels.
func Size(img *image.RGBA) uint64 {
	b := img.Bounds()
	return uint64(b.Dx()) * uint64(b.Dy()) * 4
}
