package renderer

import (
	"cmp"
	"fmt"
	"log"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

// swapChainSupportDetails describes a present surface. The type is suitable for
// passing around many details of the service between functions.
type swapChainSupportDetails struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func (r *Renderer) querySwapChainSupport(
	device vk.PhysicalDevice,
) (swapChainSupportDetails, error) {
	details := swapChainSupportDetails{}

	var capabilities vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(device, r.surface, &capabilities)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface capabilities: %w", err)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	details.capabilities = capabilities

	formats, err := enumerate(func(count *uint32, out []vk.SurfaceFormat) vk.Result {
		return vk.GetPhysicalDeviceSurfaceFormats(device, r.surface, count, out)
	})
	if err != nil {
		return details, fmt.Errorf("failed to query device surface formats: %w", err)
	}
	for _, format := range formats {
		format.Deref()
		details.formats = append(details.formats, format)
	}

	presentModes, err := enumerate(func(count *uint32, out []vk.PresentMode) vk.Result {
		return vk.GetPhysicalDeviceSurfacePresentModes(device, r.surface, count, out)
	})
	if err != nil {
		return details, fmt.Errorf("failed to query device surface present modes: %w", err)
	}
	details.presentModes = presentModes

	return details, nil
}

// enumerate runs the two call count-then-fill pattern of Vulkan queries and
// checks the result of both calls.
func enumerate[T any](query func(count *uint32, out []T) vk.Result) ([]T, error) {
	var count uint32
	if err := vk.Error(query(&count, nil)); err != nil {
		return nil, fmt.Errorf("counting: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	out := make([]T, count)
	if err := vk.Error(query(&count, out)); err != nil {
		return nil, fmt.Errorf("listing %d: %w", len(out), err)
	}
	return out[:min(count, uint32(len(out)))], nil
}

func chooseSwapSurfaceFormat(availableFormats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func chooseSwapPresentMode(available []vk.PresentMode) vk.PresentMode {
	for _, mode := range available {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}

	return vk.PresentModeFifo
}

// chooseSwapExtent uses the surface's current extent unless the surface lets
// the swapchain decide, in which case the framebuffer size is used.
func chooseSwapExtent(
	capabilities vk.SurfaceCapabilities,
	framebufferWidth, framebufferHeight int,
) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	actualExtent := vk.Extent2D{
		Width:  uint32(max(framebufferWidth, 0)),
		Height: uint32(max(framebufferHeight, 0)),
	}

	actualExtent.Width = clamp(
		actualExtent.Width,
		capabilities.MinImageExtent.Width,
		capabilities.MaxImageExtent.Width,
	)

	actualExtent.Height = clamp(
		actualExtent.Height,
		capabilities.MinImageExtent.Height,
		capabilities.MaxImageExtent.Height,
	)

	return actualExtent
}

// swapChainImageCount asks for one image more than the minimum. A maximum of
// zero means there is no limit.
func swapChainImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// sharingMode returns how a resource used by all of families is shared. One
// distinct family means exclusive ownership.
func sharingMode(families ...uint32) (vk.SharingMode, []uint32) {
	var distinct []uint32
	for _, family := range families {
		seen := false
		for _, d := range distinct {
			if d == family {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, family)
		}
	}

	if len(distinct) <= 1 {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, distinct
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}

func (r *Renderer) createSwapChain(oldSwapChain vk.Swapchain) error {
	swapChainSupport, err := r.querySwapChainSupport(r.physicalDevice)
	if err != nil {
		return err
	}
	if len(swapChainSupport.formats) == 0 {
		return fmt.Errorf("surface reports no formats")
	}

	surfaceFormat := chooseSwapSurfaceFormat(swapChainSupport.formats)
	presentMode := chooseSwapPresentMode(swapChainSupport.presentModes)

	width, height := r.opts.Window.GetFramebufferSize()
	extent := chooseSwapExtent(swapChainSupport.capabilities, width, height)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          r.surface,
		MinImageCount:    swapChainImageCount(swapChainSupport.capabilities),
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageFormat:      surfaceFormat.Format,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     swapChainSupport.capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapChain,
	}

	mode, familyIndices := sharingMode(r.families.Graphics.Get(), r.families.Present.Get())
	createInfo.ImageSharingMode = mode
	createInfo.QueueFamilyIndexCount = uint32(len(familyIndices))
	createInfo.PQueueFamilyIndices = familyIndices

	var swapChain vk.Swapchain
	res := vk.CreateSwapchain(r.device, &createInfo, nil, &swapChain)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create swap chain: %w", err)
	}
	r.swapChain = swapChain

	images, err := enumerate(func(count *uint32, out []vk.Image) vk.Result {
		return vk.GetSwapchainImages(r.device, r.swapChain, count, out)
	})
	if err != nil {
		return fmt.Errorf("getting swap chain images: %w", err)
	}

	r.swapChainImages = images
	r.swapChainImageFormat = surfaceFormat.Format
	r.swapChainExtent = extent

	log.Printf("Swapchain: %dx%d, %d images\n", extent.Width, extent.Height, len(images))

	return nil
}

// Resize rebuilds the swapchain and everything which depends on its images.
// It returns ErrMinimized, without touching the current swapchain, while
// the framebuffer has no area.
func (r *Renderer) Resize() error {
	width, height := r.opts.Window.GetFramebufferSize()
	if width == 0 || height == 0 {
		return ErrMinimized
	}

	if err := vk.Error(vk.DeviceWaitIdle(r.device)); err != nil {
		return fmt.Errorf("waiting for device idle: %w", err)
	}

	r.cleanupSwapChain()

	oldSwapChain := r.swapChain
	err := r.createSwapChain(oldSwapChain)
	if oldSwapChain != vk.NullSwapchain {
		vk.DestroySwapchain(r.device, oldSwapChain, nil)
	}
	if err != nil {
		r.swapChain = vk.NullSwapchain
		return fmt.Errorf("createSwapChain: %w", err)
	}

	if err := r.createImageViews(); err != nil {
		return fmt.Errorf("createImageViews: %w", err)
	}
	if err := r.createFramebuffers(); err != nil {
		return fmt.Errorf("createFramebuffers: %w", err)
	}

	return nil
}

// cleanupSwapChain destroys the objects made from the swapchain images. The
// swapchain itself is kept so it can be passed as the old one on recreation.
func (r *Renderer) cleanupSwapChain() {
	for _, frameBuffer := range r.swapChainFramebuffers {
		vk.DestroyFramebuffer(r.device, frameBuffer, nil)
	}

	for _, imageView := range r.swapChainImageViews {
		vk.DestroyImageView(r.device, imageView, nil)
	}

	r.swapChainFramebuffers = nil
	r.swapChainImages = nil
	r.swapChainImageViews = nil
}

func (r *Renderer) createImageViews() error {
	for i, swapChainImage := range r.swapChainImages {
		imageView, err := r.createImageView(
			swapChainImage,
			r.swapChainImageFormat,
			vk.ImageAspectFlags(vk.ImageAspectColorBit),
		)
		if err != nil {
			return fmt.Errorf("failed to create image %d: %w", i, err)
		}

		r.swapChainImageViews = append(r.swapChainImageViews, imageView)
	}

	return nil
}

func (r *Renderer) createImageView(
	image vk.Image,
	format vk.Format,
	aspectFlags vk.ImageAspectFlags,
) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	res := vk.CreateImageView(r.device, &createInfo, nil, &imageView)
	if err := vk.Error(res); err != nil {
		return vk.NullImageView, fmt.Errorf("failed to create image view: %w", err)
	}

	return imageView, nil
}

func (r *Renderer) createFramebuffers() error {
	r.swapChainFramebuffers = make([]vk.Framebuffer, 0, len(r.swapChainImageViews))

	for i, swapChainView := range r.swapChainImageViews {
		attachments := []vk.ImageView{
			swapChainView,
		}

		frameBufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      r.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           r.swapChainExtent.Width,
			Height:          r.swapChainExtent.Height,
			Layers:          1,
		}

		var frameBuffer vk.Framebuffer
		res := vk.CreateFramebuffer(r.device, &frameBufferInfo, nil, &frameBuffer)
		if err := vk.Error(res); err != nil {
			return fmt.Errorf("failed to create frame buffer %d: %w", i, err)
		}

		r.swapChainFramebuffers = append(r.swapChainFramebuffers, frameBuffer)
	}

	return nil
}
