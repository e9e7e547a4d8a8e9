package renderer

import (
	"errors"
	"fmt"
	"log"
	"unsafe"

	"vkquad/arena"

	vk "github.com/vulkan-go/vulkan"
)

// stagingAlignment keeps every staged upload aligned for texel and buffer
// copies alike.
const stagingAlignment = 16

// createBuffer creates a buffer with its own memory allocation. Buffers used
// by more than one queue family are created with concurrent sharing. On
// failure nothing is left behind in buffer or bufferMemory.
func (r *Renderer) createBuffer(
	size vk.DeviceSize,
	usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags,
	families []uint32,
	buffer *vk.Buffer,
	bufferMemory *vk.DeviceMemory,
) error {
	mode, familyIndices := sharingMode(families...)

	bufferInfo := vk.BufferCreateInfo{
		SType:                 vk.StructureTypeBufferCreateInfo,
		Size:                  size,
		Usage:                 usage,
		SharingMode:           mode,
		QueueFamilyIndexCount: uint32(len(familyIndices)),
		PQueueFamilyIndices:   familyIndices,
	}

	res := vk.CreateBuffer(r.device, &bufferInfo, nil, buffer)
	if res != vk.Success {
		return fmt.Errorf("failed to create buffer: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(r.device, *buffer, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		r.destroyBuffer(buffer, bufferMemory)
		return err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(r.device, &allocInfo, nil, bufferMemory)
	if res != vk.Success {
		r.destroyBuffer(buffer, bufferMemory)
		return fmt.Errorf("failed to allocate buffer memory: %w", vk.Error(res))
	}

	res = vk.BindBufferMemory(r.device, *buffer, *bufferMemory, 0)
	if res != vk.Success {
		r.destroyBuffer(buffer, bufferMemory)
		return fmt.Errorf("failed to bind buffer memory: %w", vk.Error(res))
	}

	return nil
}

func (r *Renderer) destroyBuffer(buffer *vk.Buffer, memory *vk.DeviceMemory) {
	if *buffer != vk.NullBuffer {
		vk.DestroyBuffer(r.device, *buffer, nil)
		*buffer = vk.NullBuffer
	}
	if *memory != vk.NullDeviceMemory {
		vk.FreeMemory(r.device, *memory, nil)
		*memory = vk.NullDeviceMemory
	}
}

func (r *Renderer) findMemoryType(
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(r.physicalDevice, &memProperties)
	memProperties.Deref()

	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memType := memProperties.MemoryTypes[i]
		memType.Deref()

		if typeFilter&(1<<i) == 0 {
			continue
		}

		if memType.PropertyFlags&properties != properties {
			continue
		}

		return i, nil
	}

	return 0, fmt.Errorf("failed to find suitable memory type")
}

// uploadFamilies are the families which touch uploaded resources.
func (r *Renderer) uploadFamilies() []uint32 {
	return []uint32{r.families.Graphics.Get(), r.families.TransferIndex()}
}

func (r *Renderer) createCommandPools() error {
	graphicsPool, err := r.createCommandPool(r.families.Graphics.Get())
	if err != nil {
		return fmt.Errorf("graphics: %w", err)
	}
	r.graphicsCommandPool = graphicsPool

	transferPool, err := r.createCommandPool(r.families.TransferIndex())
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	r.transferCommandPool = transferPool

	return nil
}

func (r *Renderer) createCommandPool(familyIndex uint32) (vk.CommandPool, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateResetCommandBufferBit,
		),
		QueueFamilyIndex: familyIndex,
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(r.device, &poolInfo, nil, &commandPool)
	if err := vk.Error(res); err != nil {
		return vk.NullCommandPool, fmt.Errorf("failed to create command pool: %w", err)
	}

	return commandPool, nil
}

func (r *Renderer) beginSingleTimeCommands(pool vk.CommandPool) (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        pool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	res := vk.AllocateCommandBuffers(
		r.device,
		&allocInfo,
		commandBuffers,
	)
	if res != vk.Success {
		return nil, fmt.Errorf("failed to allocate command buffer: %w", vk.Error(res))
	}
	commandBuffer := commandBuffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	res = vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if res != vk.Success {
		vk.FreeCommandBuffers(r.device, pool, 1, commandBuffers)
		return nil, fmt.Errorf("failed to begin command buffer: %w", vk.Error(res))
	}

	return commandBuffer, nil
}

// endSingleTimeCommands submits commandBuffer to queue and waits for it to
// finish.
func (r *Renderer) endSingleTimeCommands(
	pool vk.CommandPool,
	queue vk.Queue,
	commandBuffer vk.CommandBuffer,
) error {
	commandBuffers := []vk.CommandBuffer{commandBuffer}

	defer func() {
		vk.FreeCommandBuffers(r.device, pool, 1, commandBuffers)
	}()

	res := vk.EndCommandBuffer(commandBuffer)
	if res != vk.Success {
		return fmt.Errorf("failed end command buffer: %w", vk.Error(res))
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}

	res = vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)
	if res != vk.Success {
		return fmt.Errorf("failed to submit to queue: %w", vk.Error(res))
	}

	res = vk.QueueWaitIdle(queue)
	if res != vk.Success {
		return fmt.Errorf("failed to wait on queue idle: %w", vk.Error(res))
	}

	return nil
}

// createStagingBuffer creates the host visible buffer all uploads are copied
// through. It stays mapped for the renderer's lifetime and is handed out by
// the staging arena.
func (r *Renderer) createStagingBuffer() error {
	if r.opts.StagingSize == 0 {
		return fmt.Errorf("staging size must not be zero")
	}

	size := vk.DeviceSize(r.opts.StagingSize)

	err := r.createBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		nil,
		&r.stagingBuffer,
		&r.stagingBufferMemory,
	)
	if err != nil {
		return fmt.Errorf("creating the staging buffer: %w", err)
	}

	var pData unsafe.Pointer
	res := vk.MapMemory(r.device, r.stagingBufferMemory, 0, size, 0, &pData)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("mapping the staging buffer: %w", err)
	}
	r.stagingBufferMapped = pData
	r.staging = arena.New(r.opts.StagingSize)

	return nil
}

// stage reserves room in the staging buffer for every upload in order. All of
// them are reserved before anything is copied, so an upload which does not fit
// fails before any GPU work.
func (r *Renderer) stage(uploads ...[]byte) ([]arena.Allocation, error) {
	allocations := make([]arena.Allocation, 0, len(uploads))
	for i, data := range uploads {
		alloc, err := r.staging.Allocate(uint64(len(data)), stagingAlignment)
		if err != nil {
			r.staging.Reset()
			if errors.Is(err, arena.ErrOutOfSpace) {
				err = fmt.Errorf("%w (raise -staging)", err)
			}
			return nil, fmt.Errorf("staging upload %d: %w", i, err)
		}
		allocations = append(allocations, alloc)
	}

	for i, data := range uploads {
		if len(data) == 0 {
			continue
		}
		dst := unsafe.Add(r.stagingBufferMapped, allocations[i].Offset)
		vk.Memcopy(dst, data)
	}

	return allocations, nil
}

// uploadAssets copies the mesh and the texture into device local memory.
// Copies run on the transfer queue, the final texture layout transition on
// the graphics queue.
func (r *Renderer) uploadAssets() error {
	mesh := r.opts.Bundle.Mesh
	if mesh == nil || len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return fmt.Errorf("mesh has nothing to draw")
	}

	img := r.opts.Bundle.Texture
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("texture has no pixels")
	}

	vertexData := mesh.VertexBytes()
	indexData := mesh.IndexBytes()
	pixels := tightPixels(img)

	allocations, err := r.stage(vertexData, indexData, pixels)
	if err != nil {
		return err
	}
	log.Printf("Staging buffer: %s\n", r.staging)
	defer r.staging.Reset()

	err = r.createBuffer(
		vk.DeviceSize(len(vertexData)),
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|
			vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		r.uploadFamilies(),
		&r.vertexBuffer,
		&r.vertexBufferMemory,
	)
	if err != nil {
		return fmt.Errorf("creating the vertex buffer: %w", err)
	}

	err = r.createBuffer(
		vk.DeviceSize(len(indexData)),
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|
			vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		r.uploadFamilies(),
		&r.indexBuffer,
		&r.indexBufferMemory,
	)
	if err != nil {
		return fmt.Errorf("creating the index buffer: %w", err)
	}
	r.indexCount = mesh.IndexCount()

	b := img.Bounds()
	texWidth, texHeight := uint32(b.Dx()), uint32(b.Dy())

	err = r.createImage(
		texWidth,
		texHeight,
		vk.FormatR8g8b8a8Srgb,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|
			vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		r.uploadFamilies(),
		&r.textureImage,
		&r.textureImageMemory,
	)
	if err != nil {
		return fmt.Errorf("failed to create Vulkan image: %w", err)
	}

	commandBuffer, err := r.beginSingleTimeCommands(r.transferCommandPool)
	if err != nil {
		return fmt.Errorf("failed to begin transfer commands: %w", err)
	}

	vk.CmdCopyBuffer(commandBuffer, r.stagingBuffer, r.vertexBuffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(allocations[0].Offset),
		DstOffset: 0,
		Size:      vk.DeviceSize(allocations[0].Size),
	}})

	vk.CmdCopyBuffer(commandBuffer, r.stagingBuffer, r.indexBuffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(allocations[1].Offset),
		DstOffset: 0,
		Size:      vk.DeviceSize(allocations[1].Size),
	}})

	err = r.cmdTransitionImageLayout(
		commandBuffer,
		r.textureImage,
		vk.ImageLayoutUndefined,
		vk.ImageLayoutTransferDstOptimal,
	)
	if err != nil {
		return fmt.Errorf("transition image layout: %w", err)
	}

	r.cmdCopyBufferToImage(
		commandBuffer,
		r.stagingBuffer,
		vk.DeviceSize(allocations[2].Offset),
		r.textureImage,
		texWidth,
		texHeight,
	)

	err = r.endSingleTimeCommands(r.transferCommandPool, r.transferQueue, commandBuffer)
	if err != nil {
		return fmt.Errorf("submitting transfers: %w", err)
	}

	commandBuffer, err = r.beginSingleTimeCommands(r.graphicsCommandPool)
	if err != nil {
		return fmt.Errorf("failed to begin graphics commands: %w", err)
	}

	err = r.cmdTransitionImageLayout(
		commandBuffer,
		r.textureImage,
		vk.ImageLayoutTransferDstOptimal,
		vk.ImageLayoutShaderReadOnlyOptimal,
	)
	if err != nil {
		return fmt.Errorf("transitioning to read only optimal layout: %w", err)
	}

	return r.endSingleTimeCommands(r.graphicsCommandPool, r.graphicsQueue, commandBuffer)
}

func (r *Renderer) createUniformBuffers() error {
	bufferSize := vk.DeviceSize(unsafe.Sizeof(UniformBufferObject{}))

	for i := 0; i < maxFramesInFlight; i++ {
		var (
			buffer       vk.Buffer
			bufferMemory vk.DeviceMemory
		)
		err := r.createBuffer(
			bufferSize,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
				vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
			nil,
			&buffer,
			&bufferMemory,
		)
		if err != nil {
			return fmt.Errorf("creating buffer[%d]: %w", i, err)
		}

		var pData unsafe.Pointer
		res := vk.MapMemory(r.device, bufferMemory, 0, bufferSize, 0, &pData)
		if err := vk.Error(res); err != nil {
			r.destroyBuffer(&buffer, &bufferMemory)
			return fmt.Errorf("mapping buffer[%d]: %w", i, err)
		}

		r.uniformBuffers = append(r.uniformBuffers, buffer)
		r.uniformBuffersMemory = append(r.uniformBuffersMemory, bufferMemory)
		r.uniformBuffersMapped = append(r.uniformBuffersMapped, pData)
	}

	return nil
}

func (r *Renderer) createDescriptorPool() error {
	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: maxFramesInFlight,
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: maxFramesInFlight,
		},
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       maxFramesInFlight,
	}

	var descriptorPool vk.DescriptorPool
	res := vk.CreateDescriptorPool(r.device, &poolInfo, nil, &descriptorPool)
	if res != vk.Success {
		return fmt.Errorf("failed to create descriptor pool: %w", vk.Error(res))
	}
	r.descriptorPool = descriptorPool

	return nil
}

func (r *Renderer) createDescriptorSets() error {
	layouts := make([]vk.DescriptorSetLayout, maxFramesInFlight)
	for i := range layouts {
		layouts[i] = r.descriptorSetLayout
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.descriptorPool,
		DescriptorSetCount: maxFramesInFlight,
		PSetLayouts:        layouts,
	}

	r.descriptorSets = make([]vk.DescriptorSet, maxFramesInFlight)

	res := vk.AllocateDescriptorSets(r.device, &allocInfo, &r.descriptorSets[0])
	if res != vk.Success {
		return fmt.Errorf("failed to allocate descriptor set: %w", vk.Error(res))
	}

	for i := 0; i < maxFramesInFlight; i++ {
		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: r.uniformBuffers[i],
			Offset: 0,
			Range:  vk.DeviceSize(vk.WholeSize),
		}

		imageInfo := vk.DescriptorImageInfo{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   r.textureImageView,
			Sampler:     r.textureSampler,
		}

		descriptorWrites := []vk.WriteDescriptorSet{
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          r.descriptorSets[i],
				DstBinding:      0,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
			},
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          r.descriptorSets[i],
				DstBinding:      1,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
			},
		}

		vk.UpdateDescriptorSets(
			r.device,
			uint32(len(descriptorWrites)),
			descriptorWrites,
			0,
			nil,
		)
	}

	return nil
}
