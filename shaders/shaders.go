// Package shaders finds compiled SPIR-V modules in a directory and works out
// which pipeline stage each one belongs to.
//
// Files are named <name>_<stage>.spv where stage is "vert" or "frag". Run
// `go generate` in order to compile the GLSL sources in this directory into
// compiled/.
package shaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"

	"vkquad/unsafer"

	vk "github.com/vulkan-go/vulkan"
)

//go:generate glslc quad.vert -o compiled/quad_vert.spv
//go:generate glslc quad.frag -o compiled/quad_frag.spv

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

var (
	// ErrNoShaders is returned when a directory holds no .spv files.
	ErrNoShaders = errors.New("no SPIR-V shaders found")

	// ErrInvalidSPIRV is returned for files which are not SPIR-V modules.
	ErrInvalidSPIRV = errors.New("invalid SPIR-V module")
)

// Shader is a single compiled shader module read from disk.
type Shader struct {
	Name  string
	Stage vk.ShaderStageFlagBits
	Path  string
	Code  []byte
}

// Words returns the module code as 32 bit words, ready for vk.ShaderModuleCreateInfo.
func (s Shader) Words() []uint32 {
	return unsafer.BytesToUint32(s.Code)
}

var stageSuffixes = map[string]vk.ShaderStageFlagBits{
	"vert": vk.ShaderStageVertexBit,
	"frag": vk.ShaderStageFragmentBit,
}

// Load reads every .spv file in dir. Other files are skipped. The result is
// ordered vertex stage first, then by name.
func Load(fsys fs.FS, dir string) ([]Shader, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("listing shader directory %s: %w", dir, err)
	}

	var loaded []Shader
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		if path.Ext(fileName) != ".spv" {
			log.Printf("Ignoring file: %s [Non-SPIRV (No .spv extension)]", fileName)
			continue
		}

		name, stage, err := parseName(fileName)
		if err != nil {
			return nil, err
		}

		filePath := path.Join(dir, fileName)
		code, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filePath, err)
		}

		if err := validate(code); err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}

		loaded = append(loaded, Shader{
			Name:  name,
			Stage: stage,
			Path:  filePath,
			Code:  code,
		})
	}

	if len(loaded) == 0 {
		return nil, fmt.Errorf(
			"%s: %w, compile them with `go generate vkquad/shaders`", dir, ErrNoShaders,
		)
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		if loaded[i].Stage != loaded[j].Stage {
			return loaded[i].Stage < loaded[j].Stage
		}
		return loaded[i].Name < loaded[j].Name
	})

	return loaded, nil
}

// Pair returns the vertex and fragment shader out of loaded. Exactly one of
// each has to be present.
func Pair(loaded []Shader) (vertex, fragment Shader, err error) {
	var vertexCount, fragmentCount int

	for _, s := range loaded {
		switch s.Stage {
		case vk.ShaderStageVertexBit:
			vertex = s
			vertexCount++
		case vk.ShaderStageFragmentBit:
			fragment = s
			fragmentCount++
		}
	}

	if vertexCount != 1 || fragmentCount != 1 {
		return Shader{}, Shader{}, fmt.Errorf(
			"expected one vertex and one fragment shader, found %d and %d",
			vertexCount, fragmentCount,
		)
	}

	return vertex, fragment, nil
}

func parseName(fileName string) (string, vk.ShaderStageFlagBits, error) {
	base := strings.TrimSuffix(fileName, ".spv")

	sep := strings.LastIndexByte(base, '_')
	if sep <= 0 {
		return "", 0, fmt.Errorf("shader %s has no stage suffix", fileName)
	}

	stage, ok := stageSuffixes[base[sep+1:]]
	if !ok {
		return "", 0, fmt.Errorf("shader %s has unknown stage %q", fileName, base[sep+1:])
	}

	return base[:sep], stage, nil
}

func validate(code []byte) error {
	if len(code) == 0 || len(code)%4 != 0 {
		return fmt.Errorf("size %d is not a multiple of 4: %w", len(code), ErrInvalidSPIRV)
	}

	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return fmt.Errorf("bad magic number: %w", ErrInvalidSPIRV)
	}

	return nil
}
