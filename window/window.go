// Package window owns the GLFW window the quad is presented to, together with
// its keyboard shortcuts.
//
// All functions must be called from the main thread.
package window

import (
	"fmt"
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Options configure a new window.
type Options struct {
	Title      string
	Resolution int
	ShowFPS    bool
}

// Window is a GLFW window without a client API, ready for a Vulkan surface.
type Window struct {
	handle *glfw.Window
	state  state
}

// New initializes GLFW and opens the window.
func New(opts Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw.Init: %w", err)
	}

	w := &Window{
		state: state{
			baseTitle:  opts.Title,
			resolution: clampResolution(opts.Resolution),
			showFPS:    opts.ShowFPS,
		},
	}

	res := Resolutions[w.state.resolution]

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(res.Width, res.Height, w.state.title(), nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	handle.SetFramebufferSizeCallback(w.frameBufferResizeCallback)
	handle.SetKeyCallback(w.keyCallback)

	w.handle = handle
	return w, nil
}

// Handle is the GLFW window used for creating the Vulkan surface.
func (w *Window) Handle() *glfw.Window {
	return w.handle
}

// Resolution returns the currently selected entry of Resolutions.
func (w *Window) Resolution() Resolution {
	return Resolutions[w.state.resolution]
}

// FramebufferSize is the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.handle.GetFramebufferSize()
}

// Minimized reports whether there is nothing to draw into.
func (w *Window) Minimized() bool {
	width, height := w.FramebufferSize()
	return width == 0 || height == 0
}

// ShouldClose reports whether the user asked for the window to close.
func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

// Close asks for the window to be closed at the end of this frame.
func (w *Window) Close() {
	w.handle.SetShouldClose(true)
}

// ShowFPS reports whether the frame rate is shown in the title.
func (w *Window) ShowFPS() bool {
	return w.state.showFPS
}

// SetFPS updates the title with the latest measurement when the FPS display
// is on.
func (w *Window) SetFPS(fps float64) {
	w.state.fps = fps
	if w.state.showFPS {
		w.handle.SetTitle(w.state.title())
	}
}

// ConsumeResized returns true once for every batch of framebuffer resizes.
func (w *Window) ConsumeResized() bool {
	return w.state.consumeResized()
}

// PollEvents processes pending events without blocking.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until at least one event arrives.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// Destroy closes the window and terminates GLFW.
func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	glfw.Terminate()
}

func (w *Window) frameBufferResizeCallback(
	_ *glfw.Window,
	width int,
	height int,
) {
	w.state.resized = true
}

func (w *Window) keyCallback(
	_ *glfw.Window,
	key glfw.Key,
	_ int,
	action glfw.Action,
	_ glfw.ModifierKey,
) {
	switch keyCommand(key, action) {
	case commandCycleResolution:
		res := w.state.cycleResolution()
		log.Printf("Resolution: %s\n", res)
		w.handle.SetSize(res.Width, res.Height)
	case commandToggleFPS:
		w.state.toggleFPS()
		w.handle.SetTitle(w.state.title())
	case commandClose:
		w.handle.SetShouldClose(true)
	}
}
