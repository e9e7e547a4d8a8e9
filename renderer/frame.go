package renderer

import (
	"fmt"
	"math"
	"time"

	"vkquad/unsafer"

	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

// UniformBufferObject is the per-frame data read by the vertex shader.
type UniformBufferObject struct {
	model linmath.Mat4x4
	view  linmath.Mat4x4
	proj  linmath.Mat4x4
}

// swapChainStatus is what a swapchain call result asks the frame loop to do.
type swapChainStatus int

const (
	swapChainOK swapChainStatus = iota
	swapChainRebuild
	swapChainFailed
)

func classifySwapChainResult(res vk.Result) swapChainStatus {
	switch res {
	case vk.Success:
		return swapChainOK
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return swapChainRebuild
	default:
		return swapChainFailed
	}
}

func (r *Renderer) createCommandBuffers() error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.graphicsCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: maxFramesInFlight,
	}

	commandBuffers := make([]vk.CommandBuffer, maxFramesInFlight)
	res := vk.AllocateCommandBuffers(r.device, &allocInfo, commandBuffers)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to allocate command buffer: %w", err)
	}
	r.commandBuffers = commandBuffers

	return nil
}

func (r *Renderer) createSyncObjects() error {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := 0; i < maxFramesInFlight; i++ {
		var imageAvailableSem vk.Semaphore
		if err := vk.Error(
			vk.CreateSemaphore(r.device, &semaphoreInfo, nil, &imageAvailableSem),
		); err != nil {
			return fmt.Errorf("failed to create imageAvailableSem: %w", err)
		}
		r.imageAvailableSems = append(r.imageAvailableSems, imageAvailableSem)

		var renderFinishedSem vk.Semaphore
		if err := vk.Error(
			vk.CreateSemaphore(r.device, &semaphoreInfo, nil, &renderFinishedSem),
		); err != nil {
			return fmt.Errorf("failed to create renderFinishedSem: %w", err)
		}
		r.renderFinishedSems = append(r.renderFinishedSems, renderFinishedSem)

		var fence vk.Fence
		if err := vk.Error(
			vk.CreateFence(r.device, &fenceInfo, nil, &fence),
		); err != nil {
			return fmt.Errorf("failed to create inFlightFence: %w", err)
		}
		r.inFlightFences = append(r.inFlightFences, fence)
	}

	return nil
}

func (r *Renderer) recordCommandBuffer(
	commandBuffer vk.CommandBuffer,
	imageIndex uint32,
) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}

	res := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("cannot add begin command to the buffer: %w", err)
	}

	var clearValues [1]vk.ClearValue
	clearValues[0].SetColor(r.opts.ClearColor[:])

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.renderPass,
		Framebuffer: r.swapChainFramebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0,
				Y: 0,
			},
			Extent: r.swapChainExtent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues[:],
	}

	vk.CmdBeginRenderPass(commandBuffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, r.graphicsPipeline)

	viewport := vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(r.swapChainExtent.Width),
		Height:   float32(r.swapChainExtent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: r.swapChainExtent,
	}
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{scissor})

	vertexBuffers := []vk.Buffer{r.vertexBuffer}
	offsets := []vk.DeviceSize{0}
	vk.CmdBindVertexBuffers(commandBuffer, 0, 1, vertexBuffers, offsets)

	vk.CmdBindIndexBuffer(commandBuffer, r.indexBuffer, 0, vk.IndexTypeUint16)

	vk.CmdBindDescriptorSets(
		commandBuffer,
		vk.PipelineBindPointGraphics,
		r.pipelineLayout,
		0,
		1,
		[]vk.DescriptorSet{r.descriptorSets[r.currentFrame]},
		0,
		nil,
	)

	vk.CmdDrawIndexed(commandBuffer, r.indexCount, 1, 0, 0, 0)
	vk.CmdEndRenderPass(commandBuffer)

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("recording commands to buffer failed: %w", err)
	}
	return nil
}

// DrawFrame renders and presents one frame. The swapchain is rebuilt when it
// no longer matches the surface. ErrMinimized is returned when that rebuild
// has to wait for the window to get an area again.
func (r *Renderer) DrawFrame() error {
	fences := []vk.Fence{r.inFlightFences[r.currentFrame]}
	res := vk.WaitForFences(r.device, 1, fences, vk.True, math.MaxUint64)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("waiting for in flight fence: %w", err)
	}

	var imageIndex uint32
	res = vk.AcquireNextImage(
		r.device,
		r.swapChain,
		math.MaxUint64,
		r.imageAvailableSems[r.currentFrame],
		vk.NullFence,
		&imageIndex,
	)
	if res == vk.ErrorOutOfDate {
		return r.Resize()
	} else if res != vk.Success && res != vk.Suboptimal {
		return fmt.Errorf("failed to acquire swap chain image: %w", vk.Error(res))
	}

	// Only reset the fence if we are submitting work.
	if err := vk.Error(vk.ResetFences(r.device, 1, fences)); err != nil {
		return fmt.Errorf("resetting in flight fence: %w", err)
	}

	commandBuffer := r.commandBuffers[r.currentFrame]

	if err := vk.Error(vk.ResetCommandBuffer(commandBuffer, 0)); err != nil {
		return fmt.Errorf("resetting command buffer: %w", err)
	}
	if err := r.recordCommandBuffer(commandBuffer, imageIndex); err != nil {
		return fmt.Errorf("recording command buffer: %w", err)
	}

	r.updateUniformBuffer(r.currentFrame)

	signalSemaphores := []vk.Semaphore{
		r.renderFinishedSems[r.currentFrame],
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.imageAvailableSems[r.currentFrame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer},
		PSignalSemaphores:    signalSemaphores,
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
	}

	res = vk.QueueSubmit(
		r.graphicsQueue,
		1,
		[]vk.SubmitInfo{submitInfo},
		r.inFlightFences[r.currentFrame],
	)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("queue submit error: %w", err)
	}

	swapChains := []vk.Swapchain{
		r.swapChain,
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(signalSemaphores)),
		PWaitSemaphores:    signalSemaphores,
		SwapchainCount:     uint32(len(swapChains)),
		PSwapchains:        swapChains,
		PImageIndices:      []uint32{imageIndex},
	}

	res = vk.QueuePresent(r.presentQueue, &presentInfo)
	r.currentFrame = (r.currentFrame + 1) % maxFramesInFlight

	status := classifySwapChainResult(res)
	if status == swapChainFailed {
		return fmt.Errorf("failed to present swap chain image: %w", vk.Error(res))
	}

	if status == swapChainRebuild || r.frameBufferResized {
		if err := r.Resize(); err != nil {
			return err
		}
		r.frameBufferResized = false
	}

	return nil
}

func (r *Renderer) updateUniformBuffer(currentImage uint32) {
	aspectRatio := float32(r.swapChainExtent.Width) / float32(r.swapChainExtent.Height)
	ubo := newUniformBufferObject(r.opts.Spin, time.Since(r.startTime), aspectRatio)

	vk.Memcopy(r.uniformBuffersMapped[currentImage], unsafer.StructToBytes(&ubo))
}

// newUniformBufferObject places the mesh in clip space. Without spin the
// matrices are identities and the mesh coordinates are used as they are.
func newUniformBufferObject(
	spin bool,
	elapsed time.Duration,
	aspectRatio float32,
) UniformBufferObject {
	ubo := UniformBufferObject{}
	ubo.model.Identity()
	ubo.view.Identity()
	ubo.proj.Identity()

	if !spin {
		return ubo
	}

	var model linmath.Mat4x4
	model.Identity()
	ubo.model.RotateZ(&model, float32(elapsed.Seconds()))

	ubo.view.LookAt(
		&linmath.Vec3{0, 0, 2},
		&linmath.Vec3{0, 0, 0},
		&linmath.Vec3{0, 1, 0},
	)

	ubo.proj.Perspective(math.Pi/4, aspectRatio, 0.1, 10)

	// Vulkan's clip space Y axis points down.
	ubo.proj[1][1] *= -1

	return ubo
}
