package renderer

import (
	"fmt"
	"log"

	"vkquad/queues"

	vk "github.com/vulkan-go/vulkan"
)

func (r *Renderer) physicalDevices() ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(r.instance, &deviceCount, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to get the number of physical devices: %w", err)
	}
	if deviceCount == 0 {
		return nil, fmt.Errorf("failed to find GPUs with Vulkan support: %w", ErrNoSuitableDevice)
	}

	pDevices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(r.instance, &deviceCount, pDevices))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate the physical devices: %w", err)
	}

	return pDevices, nil
}

func (r *Renderer) pickPhysicalDevice() error {
	pDevices, err := r.physicalDevices()
	if err != nil {
		return err
	}

	var (
		selectedDevice vk.PhysicalDevice
		score          uint32
	)

	for _, device := range pDevices {
		deviceScore := r.getDeviceScore(device)

		if deviceScore > score {
			selectedDevice = device
			score = deviceScore
		}
	}

	if selectedDevice == vk.PhysicalDevice(vk.NullHandle) {
		return ErrNoSuitableDevice
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(selectedDevice, &properties)
	properties.Deref()
	log.Printf("Selected device: %s\n", vk.ToString(properties.DeviceName[:]))

	r.physicalDevice = selectedDevice
	r.families = r.findQueueFamilies(selectedDevice)
	return nil
}

// scoreDevice returns how suitable is a device for the program. Bigger score
// means better. Zero means the device cannot be used.
func scoreDevice(deviceType vk.PhysicalDeviceType, suitable bool) uint32 {
	if !suitable {
		return 0
	}

	if deviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		return 1000
	}
	return 1
}

func (r *Renderer) getDeviceScore(device vk.PhysicalDevice) uint32 {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	deviceScore := scoreDevice(properties.DeviceType, r.isDeviceSuitable(device))

	r.debugf(
		"Available device: %s (score: %d)",
		vk.ToString(properties.DeviceName[:]),
		deviceScore,
	)

	return deviceScore
}

func (r *Renderer) isDeviceSuitable(device vk.PhysicalDevice) bool {
	indices := r.findQueueFamilies(device)
	if !indices.IsComplete() {
		return false
	}

	if !r.checkDeviceExtensionSupport(device) {
		return false
	}

	swapChainSupport, err := r.querySwapChainSupport(device)
	if err != nil {
		log.Printf("WARNING: querying swap chain support: %s", err)
		return false
	}

	return len(swapChainSupport.formats) > 0 && len(swapChainSupport.presentModes) > 0
}

// findQueueFamilies describes the device's queue families and picks the ones
// used for graphics, presentation and transfers.
func (r *Renderer) findQueueFamilies(device vk.PhysicalDevice) queues.FamilyIndices {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	families := make([]queues.Family, 0, queueFamilyCount)
	for i, family := range queueFamilies {
		family.Deref()

		var hasPresent vk.Bool32
		err := vk.Error(
			vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), r.surface, &hasPresent),
		)
		if err != nil {
			log.Printf("error querying surface support for queue family %d: %s", i, err)
		}

		families = append(families, queues.Family{
			Index:      uint32(i),
			Flags:      family.QueueFlags,
			QueueCount: family.QueueCount,
			Present:    err == nil && hasPresent.B(),
		})
	}

	return queues.Find(families)
}

func (r *Renderer) checkDeviceExtensionSupport(device vk.PhysicalDevice) bool {
	var extensionsCount uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount, nil)
	if err := vk.Error(res); err != nil {
		log.Printf(
			"WARNING: enumerating device (%d) extension properties count: %s",
			device,
			err,
		)
		return false
	}

	availableExtensions := make([]vk.ExtensionProperties, extensionsCount)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount,
		availableExtensions)
	if err := vk.Error(res); err != nil {
		log.Printf("WARNING: getting device (%d) extension properties: %s", device, err)
		return false
	}

	available := make([]string, 0, extensionsCount)
	for _, extension := range availableExtensions {
		extension.Deref()
		available = append(available, vk.ToString(extension.ExtensionName[:]))
	}

	return len(missingNames(r.deviceExtensions, available)) == 0
}

func (r *Renderer) createLogicalDevice() error {
	indices := r.families
	if !indices.IsComplete() {
		return fmt.Errorf("createLogicalDevice called for physical device which does " +
			"not have all the queues required by the program")
	}

	queueCreateInfos := []vk.DeviceQueueCreateInfo{}
	for _, familyIndex := range indices.Unique() {
		queueCreateInfos = append(
			queueCreateInfos,
			vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: familyIndex,
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			},
		)
	}

	var supportedFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(r.physicalDevice, &supportedFeatures)
	supportedFeatures.Deref()
	r.anisotropy = supportedFeatures.SamplerAnisotropy.B()

	deviceFeatures := []vk.PhysicalDeviceFeatures{{}}
	if r.anisotropy {
		deviceFeatures[0].SamplerAnisotropy = vk.True
	}

	createInfo := vk.DeviceCreateInfo{
		SType:            vk.StructureTypeDeviceCreateInfo,
		PEnabledFeatures: deviceFeatures,

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(r.deviceExtensions)),
		PpEnabledExtensionNames: r.deviceExtensions,
	}

	if r.opts.Debug {
		createInfo.PpEnabledLayerNames = r.validationLayers
		createInfo.EnabledLayerCount = uint32(len(r.validationLayers))
	}

	var device vk.Device
	err := vk.Error(vk.CreateDevice(r.physicalDevice, &createInfo, nil, &device))
	if err != nil {
		return fmt.Errorf("failed to create logical device: %w", err)
	}
	r.device = device

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(r.device, indices.Graphics.Get(), 0, &graphicsQueue)
	r.graphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(r.device, indices.Present.Get(), 0, &presentQueue)
	r.presentQueue = presentQueue

	var transferQueue vk.Queue
	vk.GetDeviceQueue(r.device, indices.TransferIndex(), 0, &transferQueue)
	r.transferQueue = transferQueue

	if indices.HasDedicatedTransfer() {
		log.Printf("Using dedicated transfer queue family %d\n", indices.TransferIndex())
	} else {
		log.Printf("No dedicated transfer queue family, transfers use the graphics queue\n")
	}

	return nil
}
