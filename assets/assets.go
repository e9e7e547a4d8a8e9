// Package assets reads everything the renderer uploads at start up: the
// shader pair, the texture and the mesh.
package assets

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log"
	"os"

	"vkquad/geometry"
	"vkquad/shaders"
	"vkquad/textures"

	"golang.org/x/sync/errgroup"
)

// Config says where the assets come from. Empty TexturePath and ModelPath
// select the embedded texture and the built-in quad. A checkerboard replaces
// the embedded texture if it cannot be decoded.
type Config struct {
	Shaders     fs.FS
	ShaderDir   string
	TexturePath string
	ModelPath   string

	// LoadTexture and LoadModel replace the default loaders when set.
	LoadTexture func(path string) (*image.RGBA, error)
	LoadModel   func(path string) (*geometry.Mesh, error)
}

// Bundle is the set of decoded assets.
type Bundle struct {
	Vertex   shaders.Shader
	Fragment shaders.Shader
	Texture  *image.RGBA
	Mesh     *geometry.Mesh
}

// Load reads the shaders, the texture and the mesh concurrently. The first
// failure cancels ctx for the remaining loaders and is returned.
func Load(ctx context.Context, cfg Config) (*Bundle, error) {
	loadTexture := cfg.LoadTexture
	if loadTexture == nil {
		loadTexture = defaultTexture
	}

	loadModel := cfg.LoadModel
	if loadModel == nil {
		loadModel = defaultModel
	}

	var bundle Bundle
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		loaded, err := shaders.Load(cfg.Shaders, cfg.ShaderDir)
		if err != nil {
			return fmt.Errorf("loading shaders: %w", err)
		}

		bundle.Vertex, bundle.Fragment, err = shaders.Pair(loaded)
		if err != nil {
			return fmt.Errorf("loading shaders: %w", err)
		}

		log.Printf("Loaded shaders %s and %s\n", bundle.Vertex.Path, bundle.Fragment.Path)
		return ctx.Err()
	})

	eg.Go(func() error {
		img, err := loadTexture(cfg.TexturePath)
		if err != nil && cfg.TexturePath == "" {
			log.Printf("Using a checkerboard, the embedded texture failed: %s\n", err)
			img, err = fallbackTexture(), nil
		}
		if err != nil {
			return fmt.Errorf("loading texture: %w", err)
		}

		bundle.Texture = img
		return ctx.Err()
	})

	eg.Go(func() error {
		mesh, err := loadModel(cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("loading model: %w", err)
		}

		bundle.Mesh = mesh
		return ctx.Err()
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &bundle, nil
}

func fallbackTexture() *image.RGBA {
	return textures.Checkerboard(
		256, 32,
		color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		color.RGBA{R: 0xff, B: 0xff, A: 0xff},
	)
}

func defaultTexture(path string) (*image.RGBA, error) {
	if path == "" {
		return textures.Default()
	}
	return textures.Load(path)
}

func defaultModel(path string) (*geometry.Mesh, error) {
	if path == "" {
		return geometry.Quad(), nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return geometry.LoadOBJ(fh)
}
