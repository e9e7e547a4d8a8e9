package window

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type command int

const (
	commandNone command = iota
	commandCycleResolution
	commandToggleFPS
	commandClose
)

// keyCommand maps a key event to what the window does about it. Only key
// presses count, repeats and releases are ignored.
func keyCommand(key glfw.Key, action glfw.Action) command {
	if action != glfw.Press {
		return commandNone
	}

	switch key {
	case glfw.KeyR:
		return commandCycleResolution
	case glfw.KeyF:
		return commandToggleFPS
	case glfw.KeyEscape:
		return commandClose
	default:
		return commandNone
	}
}

// state is everything about the window which does not need GLFW.
type state struct {
	baseTitle  string
	resolution int
	showFPS    bool
	fps        float64
	resized    bool
}

func (s *state) cycleResolution() Resolution {
	s.resolution = NextResolution(s.resolution)
	return Resolutions[s.resolution]
}

func (s *state) toggleFPS() {
	s.showFPS = !s.showFPS
}

func (s *state) title() string {
	if !s.showFPS {
		return s.baseTitle
	}
	return fmt.Sprintf("FPS: %.2f", s.fps)
}

func (s *state) consumeResized() bool {
	resized := s.resized
	s.resized = false
	return resized
}
