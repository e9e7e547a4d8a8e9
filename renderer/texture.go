package renderer

import (
	"fmt"
	"image"

	"vkquad/textures"

	vk "github.com/vulkan-go/vulkan"
)

func (r *Renderer) createImage(
	width uint32,
	height uint32,
	format vk.Format,
	tiling vk.ImageTiling,
	usage vk.ImageUsageFlags,
	properties vk.MemoryPropertyFlags,
	families []uint32,
	image *vk.Image,
	imageMemory *vk.DeviceMemory,
) error {
	mode, familyIndices := sharingMode(families...)

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:             1,
		ArrayLayers:           1,
		Format:                format,
		Tiling:                tiling,
		InitialLayout:         vk.ImageLayoutUndefined,
		Usage:                 usage,
		SharingMode:           mode,
		QueueFamilyIndexCount: uint32(len(familyIndices)),
		PQueueFamilyIndices:   familyIndices,
		Samples:               vk.SampleCount1Bit,
	}

	res := vk.CreateImage(r.device, &imageInfo, nil, image)
	if res != vk.Success {
		return fmt.Errorf("failed to create an image: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(r.device, *image, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		r.destroyImage(image, imageMemory)
		return err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(r.device, &allocInfo, nil, imageMemory)
	if res != vk.Success {
		r.destroyImage(image, imageMemory)
		return fmt.Errorf("failed to allocate image memory: %w", vk.Error(res))
	}

	res = vk.BindImageMemory(r.device, *image, *imageMemory, 0)
	if res != vk.Success {
		r.destroyImage(image, imageMemory)
		return fmt.Errorf("failed to bind image memory: %w", vk.Error(res))
	}

	return nil
}

func (r *Renderer) destroyImage(image *vk.Image, memory *vk.DeviceMemory) {
	if *image != vk.NullImage {
		vk.DestroyImage(r.device, *image, nil)
		*image = vk.NullImage
	}
	if *memory != vk.NullDeviceMemory {
		vk.FreeMemory(r.device, *memory, nil)
		*memory = vk.NullDeviceMemory
	}
}

// layoutTransition holds the access masks and pipeline stages of an image
// layout change.
type layoutTransition struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

func findLayoutTransition(oldLayout, newLayout vk.ImageLayout) (layoutTransition, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined &&
		newLayout == vk.ImageLayoutTransferDstOptimal:

		return layoutTransition{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil

	case oldLayout == vk.ImageLayoutTransferDstOptimal &&
		newLayout == vk.ImageLayoutShaderReadOnlyOptimal:

		return layoutTransition{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	}

	return layoutTransition{}, fmt.Errorf("unsupported layout transition")
}

func (r *Renderer) cmdTransitionImageLayout(
	commandBuffer vk.CommandBuffer,
	image vk.Image,
	oldLayout vk.ImageLayout,
	newLayout vk.ImageLayout,
) error {
	transition, err := findLayoutTransition(oldLayout, newLayout)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcAccessMask: transition.srcAccess,
		DstAccessMask: transition.dstAccess,
	}

	vk.CmdPipelineBarrier(
		commandBuffer,
		transition.srcStage, transition.dstStage,
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier},
	)

	return nil
}

func (r *Renderer) cmdCopyBufferToImage(
	commandBuffer vk.CommandBuffer,
	buffer vk.Buffer,
	offset vk.DeviceSize,
	image vk.Image,
	width, height uint32,
) {
	region := vk.BufferImageCopy{
		BufferOffset:      offset,
		BufferRowLength:   0,
		BufferImageHeight: 0,

		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},

		ImageOffset: vk.Offset3D{
			X: 0, Y: 0, Z: 0,
		},

		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
	}

	vk.CmdCopyBufferToImage(
		commandBuffer,
		buffer,
		image,
		vk.ImageLayoutTransferDstOptimal,
		1,
		[]vk.BufferImageCopy{region},
	)
}

// tightPixels returns the image's pixels with no padding between rows.
func tightPixels(img *image.RGBA) []byte {
	b := img.Bounds()
	rowSize := 4 * b.Dx()
	size := textures.Size(img)

	if img.Stride == rowSize && b.Min == image.Pt(0, 0) {
		return img.Pix[:size]
	}

	pixels := make([]byte, 0, size)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		pixels = append(pixels, img.Pix[start:start+rowSize]...)
	}
	return pixels
}

func (r *Renderer) createTextureImageView() error {
	textureImageView, err := r.createImageView(
		r.textureImage,
		vk.FormatR8g8b8a8Srgb,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
	)
	if err != nil {
		return err
	}
	r.textureImageView = textureImageView

	return nil
}

func (r *Renderer) createTextureSampler() error {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}

	if r.anisotropy {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(r.physicalDevice, &properties)
		properties.Deref()
		properties.Limits.Deref()

		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = properties.Limits.MaxSamplerAnisotropy
	}

	var sampler vk.Sampler
	res := vk.CreateSampler(r.device, &samplerInfo, nil, &sampler)
	if res != vk.Success {
		return fmt.Errorf("failed to create sampler: %w", vk.Error(res))
	}
	r.textureSampler = sampler

	return nil
}
