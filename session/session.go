// Package session keeps the frame and tick counters of a run, measures the
// frames per second and prints a summary once the window is closed.
package session

import (
	"fmt"
	"sync"
	"time"
)

const (
	// FPSInterval is how often the frames per second are measured.
	FPSInterval = 300 * time.Millisecond

	// UpdateStep is the fixed simulation step.
	UpdateStep = 10 * time.Millisecond
)

// Session is safe for concurrent use.
type Session struct {
	now func() time.Time

	mu     sync.Mutex
	start  time.Time
	frames uint64
	ticks  uint64

	fpsStart  time.Time
	fpsFrames uint64
	fps       float64
	fpsTimer  Timer
}

// New starts a session. A nil now means time.Now.
func New(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}

	start := now()
	return &Session{
		now:      now,
		start:    start,
		fpsStart: start,
		fpsTimer: NewTimer(FPSInterval),
	}
}

// Update runs one simulation tick of length dt.
func (s *Session) Update(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks++
	s.fpsTimer.Accumulate(dt)

	if !s.fpsTimer.Ready() {
		return
	}

	now := s.now()
	if elapsed := now.Sub(s.fpsStart).Seconds(); elapsed > 0 {
		s.fps = float64(s.fpsFrames) / elapsed
	}
	s.fpsStart = now
	s.fpsFrames = 0
	s.fpsTimer.Consume()
}

// Render counts one drawn frame.
func (s *Session) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	s.fpsFrames++
}

// FPS returns the last measurement. It is zero until the first
// measurement interval has passed.
func (s *Session) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// Frames is the number of rendered frames.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frames
}

// Ticks is the number of simulation updates.
func (s *Session) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ticks
}

// RunningTime is the time since the session started.
func (s *Session) RunningTime() time.Duration {
	return s.now().Sub(s.start)
}

// Summary describes the whole session for printing at exit.
func (s *Session) Summary() string {
	elapsed := s.RunningTime()
	frames := s.Frames()

	seconds := elapsed.Seconds()
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	rest := seconds - float64(hours*3600) - float64(minutes*60)

	var average float64
	if seconds > 0 {
		average = float64(frames) / seconds
	}

	return fmt.Sprintf(
		"Session Info:\nElapsed Time: %02d:%02d:%05.2f\nTotal Frames: %d\nAverage FPS: %07.2f\n",
		hours, minutes, rest, frames, average,
	)
}
