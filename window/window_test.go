package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	. "github.com/onsi/gomega"
)

func TestNextResolutionWraps(t *testing.T) {
	g := NewWithT(t)

	g.Expect(NextResolution(0)).To(Equal(1))
	g.Expect(NextResolution(3)).To(Equal(4))
	g.Expect(NextResolution(len(Resolutions) - 1)).To(Equal(0))

	// Out of range indices start over from the default.
	g.Expect(NextResolution(-1)).To(Equal(DefaultResolution + 1))
	g.Expect(NextResolution(99)).To(Equal(DefaultResolution + 1))
}

func TestResolutionTable(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Resolutions).To(HaveLen(5))
	g.Expect(Resolutions[0].String()).To(Equal("320x256"))
	g.Expect(Resolutions[DefaultResolution]).To(Equal(Resolution{Width: 1080, Height: 720}))
}

func TestKeyCommand(t *testing.T) {
	g := NewWithT(t)

	g.Expect(keyCommand(glfw.KeyR, glfw.Press)).To(Equal(commandCycleResolution))
	g.Expect(keyCommand(glfw.KeyF, glfw.Press)).To(Equal(commandToggleFPS))
	g.Expect(keyCommand(glfw.KeyEscape, glfw.Press)).To(Equal(commandClose))
	g.Expect(keyCommand(glfw.KeySpace, glfw.Press)).To(Equal(commandNone))

	g.Expect(keyCommand(glfw.KeyR, glfw.Release)).To(Equal(commandNone))
	g.Expect(keyCommand(glfw.KeyR, glfw.Repeat)).To(Equal(commandNone))
}

func TestStateCyclesResolution(t *testing.T) {
	g := NewWithT(t)

	s := state{resolution: len(Resolutions) - 2}

	g.Expect(s.cycleResolution()).To(Equal(Resolutions[len(Resolutions)-1]))
	g.Expect(s.cycleResolution()).To(Equal(Resolutions[0]))
	g.Expect(s.resolution).To(Equal(0))
}

func TestStateTitle(t *testing.T) {
	g := NewWithT(t)

	s := state{baseTitle: "vkquad", fps: 59.876}
	g.Expect(s.title()).To(Equal("vkquad"))

	s.toggleFPS()
	g.Expect(s.title()).To(Equal("FPS: 59.88"))

	s.toggleFPS()
	g.Expect(s.title()).To(Equal("vkquad"))
}

func TestStateConsumeResized(t *testing.T) {
	g := NewWithT(t)

	s := state{}
	g.Expect(s.consumeResized()).To(BeFalse())

	s.resized = true
	g.Expect(s.consumeResized()).To(BeTrue())
	g.Expect(s.consumeResized()).To(BeFalse())
}
