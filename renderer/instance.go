package renderer

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

func (r *Renderer) createInstance() error {
	if r.opts.Debug && !r.checkValidationSupport() {
		return fmt.Errorf("validation layers requested but not available")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   r.opts.AppName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	glfwExtensions := r.opts.Window.GetRequiredInstanceExtensions()
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(glfwExtensions)),
		PpEnabledExtensionNames: glfwExtensions,
	}

	if r.opts.Debug {
		createInfo.EnabledLayerCount = uint32(len(r.validationLayers))
		createInfo.PpEnabledLayerNames = r.validationLayers
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return fmt.Errorf("failed to create Vulkan instance: %w", err)
	}

	r.instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return fmt.Errorf("loading instance functions: %w", err)
	}

	return nil
}

func (r *Renderer) checkValidationSupport() bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	availableLayers := make([]vk.LayerProperties, count)

	if vk.EnumerateInstanceLayerProperties(&count, availableLayers) != vk.Success {
		return false
	}

	available := make([]string, 0, count)
	for _, layer := range availableLayers {
		layer.Deref()
		available = append(available, vk.ToString(layer.LayerName[:]))
	}

	return len(missingNames(r.validationLayers, available)) == 0
}

func (r *Renderer) createSurface() error {
	surfacePtr, err := r.opts.Window.CreateWindowSurface(r.instance, nil)
	if err != nil {
		return fmt.Errorf("cannot create surface within GLFW window: %w", err)
	}

	r.surface = vk.SurfaceFromPointer(surfacePtr)
	return nil
}

// missingNames returns the entries of required, which are NUL terminated as
// Vulkan wants them, that are not in available.
func missingNames(required []string, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name+"\x00"] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
