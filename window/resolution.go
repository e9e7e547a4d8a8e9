package window

import "fmt"

// Resolution is a window client area size in screen coordinates.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Resolutions is the list the R key cycles through.
var Resolutions = []Resolution{
	{Width: 320, Height: 256},
	{Width: 800, Height: 600},
	{Width: 1080, Height: 720},
	{Width: 1440, Height: 1080},
	{Width: 2560, Height: 1440},
}

// DefaultResolution is the index used when none is configured.
const DefaultResolution = 2

// NextResolution returns the index after i, wrapping to the first entry.
func NextResolution(i int) int {
	return (clampResolution(i) + 1) % len(Resolutions)
}

func clampResolution(i int) int {
	if i < 0 || i >= len(Resolutions) {
		return DefaultResolution
	}
	return i
}
