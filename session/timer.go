package session

import "time"

// DefaultTimerInterval is used by timers created without an interval.
const DefaultTimerInterval = time.Second

// Timer accumulates elapsed time and fires once per Interval.
type Timer struct {
	Interval    time.Duration
	Accumulator time.Duration
	Cycles      uint64
}

// NewTimer returns a timer firing every interval. A non-positive interval
// means DefaultTimerInterval.
func NewTimer(interval time.Duration) Timer {
	if interval <= 0 {
		interval = DefaultTimerInterval
	}
	return Timer{Interval: interval}
}

// Ready reports whether a whole interval has been accumulated.
func (t *Timer) Ready() bool {
	return t.Accumulator >= t.Interval
}

// Remaining is the time left until the timer is ready. It is negative when
// the timer is overdue.
func (t *Timer) Remaining() time.Duration {
	return t.Interval - t.Accumulator
}

// Accumulate adds d to the timer.
func (t *Timer) Accumulate(d time.Duration) {
	t.Accumulator += d
}

// Reset drops the accumulated time. Cycles are kept.
func (t *Timer) Reset() {
	t.Accumulator = 0
}

// Consume takes one interval out of the accumulator and counts a cycle. It
// does nothing when the timer is not ready.
func (t *Timer) Consume() {
	if !t.Ready() {
		return
	}

	t.Accumulator -= t.Interval
	t.Cycles++
}
