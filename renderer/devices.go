package renderer

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/tablewriter"
)

// deviceInfo is one row of the device table.
type deviceInfo struct {
	name       string
	deviceType vk.PhysicalDeviceType
	apiVersion uint32
	score      uint32
	heaps      []uint64
}

// ListDevices describes every physical device which can be seen through
// window's surface, together with the score the renderer gives it.
func ListDevices(window Surface, debug bool) (string, error) {
	if err := initVulkan(); err != nil {
		return "", err
	}

	r := newRenderer(Options{
		AppName: "vkquad device list",
		Debug:   debug,
		Window:  window,
	})
	defer r.Close()

	if err := r.createInstance(); err != nil {
		return "", fmt.Errorf("createInstance: %w", err)
	}

	if err := r.createSurface(); err != nil {
		return "", fmt.Errorf("createSurface: %w", err)
	}

	pDevices, err := r.physicalDevices()
	if err != nil {
		return "", err
	}

	infos := make([]deviceInfo, 0, len(pDevices))
	for _, device := range pDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(device, &properties)
		properties.Deref()

		var memProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(device, &memProperties)
		memProperties.Deref()

		var heaps []uint64
		for i := uint32(0); i < memProperties.MemoryHeapCount; i++ {
			heap := memProperties.MemoryHeaps[i]
			heap.Deref()
			heaps = append(heaps, uint64(heap.Size))
		}

		infos = append(infos, deviceInfo{
			name:       vk.ToString(properties.DeviceName[:]),
			deviceType: properties.DeviceType,
			apiVersion: properties.ApiVersion,
			score:      r.getDeviceScore(device),
			heaps:      heaps,
		})
	}

	return renderDeviceTable(infos), nil
}

func renderDeviceTable(infos []deviceInfo) string {
	table := tablewriter.CreateTable()
	table.UTF8Box()
	table.AddTitle("PHYSICAL DEVICES")
	table.AddRow("Name", "Type", "API Version", "Score", "Memory Heaps")

	for _, info := range infos {
		table.AddSeparator()

		heaps := make([]string, 0, len(info.heaps))
		for _, size := range info.heaps {
			heaps = append(heaps, units.BytesSize(float64(size)))
		}

		score := fmt.Sprintf("%d", info.score)
		if info.score == 0 {
			score = "unsuitable"
		}

		table.AddRow(
			info.name,
			physicalDeviceType(info.deviceType),
			vk.Version(info.apiVersion),
			score,
			strings.Join(heaps, ", "),
		)
	}

	return table.Render()
}

func physicalDeviceType(gpuType vk.PhysicalDeviceType) string {
	switch gpuType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	case vk.PhysicalDeviceTypeOther:
		return "Other"
	default:
		return "Unknown"
	}
}
