// Package renderer draws a textured mesh with Vulkan.
//
// A Renderer owns the instance, the device, the swapchain and everything
// created from them. It keeps two frames in flight. A frame's command buffer,
// semaphores and uniform buffer are only touched after its fence has been
// signalled. Uploads go through a host visible staging buffer on the transfer
// queue.
//
// All methods must be called from the thread which created the window.
package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
	"unsafe"

	"vkquad/arena"
	"vkquad/assets"
	"vkquad/queues"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

const maxFramesInFlight = 2

var (
	// ErrNoSuitableDevice is returned when no physical device can draw to the
	// window surface.
	ErrNoSuitableDevice = errors.New("failed to find a suitable physical device")

	// ErrMinimized is returned when the swapchain cannot be rebuilt because the
	// framebuffer has no area. Wait for window events and try again.
	ErrMinimized = errors.New("framebuffer is minimized")
)

// Surface is the window the renderer presents to. *glfw.Window implements it.
type Surface interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
	GetFramebufferSize() (width, height int)
	GetRequiredInstanceExtensions() []string
}

// Options configure a new renderer.
type Options struct {
	AppName string

	// Debug enables the validation layers and verbose logging.
	Debug bool

	Window Surface
	Bundle *assets.Bundle

	// StagingSize is the size in bytes of the upload staging buffer.
	StagingSize uint64

	// Spin rotates the mesh around the Z axis.
	Spin bool

	ClearColor [4]float32
}

// Renderer holds all Vulkan state for drawing the bundle to the window.
type Renderer struct {
	opts Options

	validationLayers []string
	deviceExtensions []string

	instance vk.Instance
	surface  vk.Surface

	// physicalDevice is the physical device selected for this program.
	physicalDevice vk.PhysicalDevice

	// device is the logical device created for interfacing with the physical device.
	device vk.Device

	families   queues.FamilyIndices
	anisotropy bool

	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	transferQueue vk.Queue

	swapChain            vk.Swapchain
	swapChainImages      []vk.Image
	swapChainImageViews  []vk.ImageView
	swapChainImageFormat vk.Format
	swapChainExtent      vk.Extent2D

	swapChainFramebuffers []vk.Framebuffer

	renderPass          vk.RenderPass
	descriptorSetLayout vk.DescriptorSetLayout
	pipelineLayout      vk.PipelineLayout
	graphicsPipeline    vk.Pipeline

	graphicsCommandPool vk.CommandPool
	transferCommandPool vk.CommandPool
	commandBuffers      []vk.CommandBuffer

	staging             *arena.Arena
	stagingBuffer       vk.Buffer
	stagingBufferMemory vk.DeviceMemory
	stagingBufferMapped unsafe.Pointer

	vertexBuffer       vk.Buffer
	vertexBufferMemory vk.DeviceMemory

	indexBuffer       vk.Buffer
	indexBufferMemory vk.DeviceMemory
	indexCount        uint32

	textureImage       vk.Image
	textureImageMemory vk.DeviceMemory
	textureImageView   vk.ImageView
	textureSampler     vk.Sampler

	uniformBuffers       []vk.Buffer
	uniformBuffersMemory []vk.DeviceMemory
	uniformBuffersMapped []unsafe.Pointer

	descriptorPool vk.DescriptorPool
	descriptorSets []vk.DescriptorSet

	imageAvailableSems []vk.Semaphore
	renderFinishedSems []vk.Semaphore
	inFlightFences     []vk.Fence

	frameBufferResized bool
	currentFrame       uint32

	startTime time.Time
}

var (
	initOnce sync.Once
	initErr  error
)

// initVulkan loads the Vulkan loader through GLFW. It only does work once.
func initVulkan() error {
	initOnce.Do(func() {
		vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
		if err := vk.Init(); err != nil {
			initErr = fmt.Errorf("failed to init Vulkan Go: %w", err)
		}
	})
	return initErr
}

func newRenderer(opts Options) *Renderer {
	r := &Renderer{
		opts: opts,
		validationLayers: []string{
			"VK_LAYER_KHRONOS_validation\x00",
		},
		deviceExtensions: []string{
			vk.KhrSwapchainExtensionName + "\x00",
		},
		physicalDevice: vk.PhysicalDevice(vk.NullHandle),
		device:         vk.Device(vk.NullHandle),
		surface:        vk.NullSurface,
		swapChain:      vk.NullSwapchain,
		startTime:      time.Now(),
	}
	return r
}

// New creates every Vulkan object needed to draw opts.Bundle into
// opts.Window. On failure everything created so far is destroyed.
func New(opts Options) (*Renderer, error) {
	if opts.Window == nil {
		return nil, fmt.Errorf("renderer needs a window")
	}
	if opts.Bundle == nil {
		return nil, fmt.Errorf("renderer needs an asset bundle")
	}

	if err := initVulkan(); err != nil {
		return nil, err
	}

	r := newRenderer(opts)
	if err := r.init(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init() error {
	if err := r.createInstance(); err != nil {
		return fmt.Errorf("createInstance: %w", err)
	}

	if err := r.createSurface(); err != nil {
		return fmt.Errorf("createSurface: %w", err)
	}

	if err := r.pickPhysicalDevice(); err != nil {
		return fmt.Errorf("pickPhysicalDevice: %w", err)
	}

	if err := r.createLogicalDevice(); err != nil {
		return fmt.Errorf("createLogicalDevice: %w", err)
	}

	if err := r.createSwapChain(vk.NullSwapchain); err != nil {
		return fmt.Errorf("createSwapChain: %w", err)
	}

	if err := r.createImageViews(); err != nil {
		return fmt.Errorf("createImageViews: %w", err)
	}

	if err := r.createRenderPass(); err != nil {
		return fmt.Errorf("createRenderPass: %w", err)
	}

	if err := r.createDescriptorSetLayout(); err != nil {
		return fmt.Errorf("createDescriptorSetLayout: %w", err)
	}

	if err := r.createGraphicsPipeline(); err != nil {
		return fmt.Errorf("createGraphicsPipeline: %w", err)
	}

	if err := r.createFramebuffers(); err != nil {
		return fmt.Errorf("createFramebuffers: %w", err)
	}

	if err := r.createCommandPools(); err != nil {
		return fmt.Errorf("createCommandPools: %w", err)
	}

	if err := r.createStagingBuffer(); err != nil {
		return fmt.Errorf("createStagingBuffer: %w", err)
	}

	if err := r.uploadAssets(); err != nil {
		return fmt.Errorf("uploadAssets: %w", err)
	}

	if err := r.createTextureImageView(); err != nil {
		return fmt.Errorf("createTextureImageView: %w", err)
	}

	if err := r.createTextureSampler(); err != nil {
		return fmt.Errorf("createTextureSampler: %w", err)
	}

	if err := r.createUniformBuffers(); err != nil {
		return fmt.Errorf("createUniformBuffers: %w", err)
	}

	if err := r.createDescriptorPool(); err != nil {
		return fmt.Errorf("createDescriptorPool: %w", err)
	}

	if err := r.createDescriptorSets(); err != nil {
		return fmt.Errorf("createDescriptorSets: %w", err)
	}

	if err := r.createCommandBuffers(); err != nil {
		return fmt.Errorf("createCommandBuffers: %w", err)
	}

	if err := r.createSyncObjects(); err != nil {
		return fmt.Errorf("createSyncObjects: %w", err)
	}

	return nil
}

// MarkResized makes the next presented frame rebuild the swapchain.
func (r *Renderer) MarkResized() {
	r.frameBufferResized = true
}

// WaitIdle blocks until the device has finished all submitted work.
func (r *Renderer) WaitIdle() error {
	if r.device == vk.Device(vk.NullHandle) {
		return nil
	}
	return vk.Error(vk.DeviceWaitIdle(r.device))
}

// Close destroys all Vulkan objects in reverse order of creation. It is safe
// to call on a partially created renderer and more than once.
func (r *Renderer) Close() {
	if r.device != vk.Device(vk.NullHandle) {
		vk.DeviceWaitIdle(r.device)

		for i := range r.inFlightFences {
			vk.DestroyFence(r.device, r.inFlightFences[i], nil)
		}
		for i := range r.renderFinishedSems {
			vk.DestroySemaphore(r.device, r.renderFinishedSems[i], nil)
		}
		for i := range r.imageAvailableSems {
			vk.DestroySemaphore(r.device, r.imageAvailableSems[i], nil)
		}
		r.inFlightFences = nil
		r.renderFinishedSems = nil
		r.imageAvailableSems = nil

		if r.descriptorPool != vk.NullDescriptorPool {
			vk.DestroyDescriptorPool(r.device, r.descriptorPool, nil)
			r.descriptorPool = vk.NullDescriptorPool
		}

		for i, buffer := range r.uniformBuffers {
			vk.UnmapMemory(r.device, r.uniformBuffersMemory[i])
			vk.DestroyBuffer(r.device, buffer, nil)
			vk.FreeMemory(r.device, r.uniformBuffersMemory[i], nil)
		}
		r.uniformBuffers = nil
		r.uniformBuffersMemory = nil
		r.uniformBuffersMapped = nil

		if r.textureSampler != vk.NullSampler {
			vk.DestroySampler(r.device, r.textureSampler, nil)
			r.textureSampler = vk.NullSampler
		}
		if r.textureImageView != vk.NullImageView {
			vk.DestroyImageView(r.device, r.textureImageView, nil)
			r.textureImageView = vk.NullImageView
		}
		r.destroyImage(&r.textureImage, &r.textureImageMemory)

		r.destroyBuffer(&r.indexBuffer, &r.indexBufferMemory)
		r.destroyBuffer(&r.vertexBuffer, &r.vertexBufferMemory)

		if r.stagingBufferMapped != nil {
			vk.UnmapMemory(r.device, r.stagingBufferMemory)
			r.stagingBufferMapped = nil
		}
		r.destroyBuffer(&r.stagingBuffer, &r.stagingBufferMemory)

		if r.transferCommandPool != vk.NullCommandPool {
			vk.DestroyCommandPool(r.device, r.transferCommandPool, nil)
			r.transferCommandPool = vk.NullCommandPool
		}
		if r.graphicsCommandPool != vk.NullCommandPool {
			vk.DestroyCommandPool(r.device, r.graphicsCommandPool, nil)
			r.graphicsCommandPool = vk.NullCommandPool
		}
		r.commandBuffers = nil

		r.cleanupSwapChain()
		if r.swapChain != vk.NullSwapchain {
			vk.DestroySwapchain(r.device, r.swapChain, nil)
			r.swapChain = vk.NullSwapchain
		}

		if r.graphicsPipeline != vk.NullPipeline {
			vk.DestroyPipeline(r.device, r.graphicsPipeline, nil)
			r.graphicsPipeline = vk.NullPipeline
		}
		if r.pipelineLayout != vk.NullPipelineLayout {
			vk.DestroyPipelineLayout(r.device, r.pipelineLayout, nil)
			r.pipelineLayout = vk.NullPipelineLayout
		}
		if r.descriptorSetLayout != vk.NullDescriptorSetLayout {
			vk.DestroyDescriptorSetLayout(r.device, r.descriptorSetLayout, nil)
			r.descriptorSetLayout = vk.NullDescriptorSetLayout
		}
		if r.renderPass != vk.NullRenderPass {
			vk.DestroyRenderPass(r.device, r.renderPass, nil)
			r.renderPass = vk.NullRenderPass
		}

		vk.DestroyDevice(r.device, nil)
		r.device = vk.Device(vk.NullHandle)
	}

	if r.surface != vk.NullSurface {
		vk.DestroySurface(r.instance, r.surface, nil)
		r.surface = vk.NullSurface
	}

	if r.instance != vk.Instance(vk.NullHandle) {
		vk.DestroyInstance(r.instance, nil)
		r.instance = vk.Instance(vk.NullHandle)
	}
}

func (r *Renderer) debugf(format string, v ...interface{}) {
	if r.opts.Debug {
		log.Printf(format, v...)
	}
}
