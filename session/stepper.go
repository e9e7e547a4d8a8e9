package session

import "time"

// Stepper turns variable frame times into a whole number of fixed steps.
// Time that does not fill a step is carried over to the next frame.
type Stepper struct {
	Step        time.Duration
	accumulator time.Duration
}

// NewStepper returns a stepper with UpdateStep when step is not positive.
func NewStepper(step time.Duration) *Stepper {
	if step <= 0 {
		step = UpdateStep
	}
	return &Stepper{Step: step}
}

// Advance adds frameTime and returns how many steps to run now.
func (s *Stepper) Advance(frameTime time.Duration) int {
	if frameTime > 0 {
		s.accumulator += frameTime
	}

	steps := 0
	for s.accumulator >= s.Step {
		s.accumulator -= s.Step
		steps++
	}
	return steps
}

// Carry is the time waiting for the next step.
func (s *Stepper) Carry() time.Duration {
	return s.accumulator
}
