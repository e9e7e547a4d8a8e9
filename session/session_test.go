package session_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"vkquad/session"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

var _ = Describe("Session", func() {
	var (
		clock *fakeClock
		s     *session.Session
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		s = session.New(clock.Now)
	})

	It("counts frames and ticks", func() {
		s.Render()
		s.Render()
		s.Update(session.UpdateStep)

		Expect(s.Frames()).To(Equal(uint64(2)))
		Expect(s.Ticks()).To(Equal(uint64(1)))
	})

	It("reports no FPS before the first measurement", func() {
		for i := 0; i < 10; i++ {
			s.Render()
			s.Update(session.UpdateStep)
		}

		Expect(s.FPS()).To(BeZero())
	})

	It("measures FPS once per interval", func() {
		for i := 0; i < 30; i++ {
			s.Render()
		}
		clock.Advance(500 * time.Millisecond)

		for i := 0; i < 30; i++ {
			s.Update(session.UpdateStep)
		}

		Expect(s.FPS()).To(BeNumerically("~", 60, 0.001))

		// The next interval starts with a fresh frame count.
		for i := 0; i < 5; i++ {
			s.Render()
		}
		clock.Advance(time.Second)
		for i := 0; i < 30; i++ {
			s.Update(session.UpdateStep)
		}

		Expect(s.FPS()).To(BeNumerically("~", 5, 0.001))
	})

	Describe("Summary", func() {
		It("formats the elapsed time and averages", func() {
			for i := 0; i < 1500; i++ {
				s.Render()
			}
			clock.Advance(time.Hour + 2*time.Minute + 30*time.Second)

			Expect(s.RunningTime()).To(Equal(3750 * time.Second))
			Expect(s.Summary()).To(Equal(
				"Session Info:\n" +
					"Elapsed Time: 01:02:30.00\n" +
					"Total Frames: 1500\n" +
					"Average FPS: 0000.40\n",
			))
		})

		It("does not divide by zero", func() {
			Expect(s.Summary()).To(ContainSubstring("Average FPS: 0000.00"))
		})
	})
})

var _ = Describe("Timer", func() {
	It("is ready once an interval is accumulated", func() {
		t := session.NewTimer(100 * time.Millisecond)

		t.Accumulate(60 * time.Millisecond)
		Expect(t.Ready()).To(BeFalse())
		Expect(t.Remaining()).To(Equal(40 * time.Millisecond))

		t.Accumulate(60 * time.Millisecond)
		Expect(t.Ready()).To(BeTrue())

		t.Consume()
		Expect(t.Accumulator).To(Equal(20 * time.Millisecond))
		Expect(t.Cycles).To(Equal(uint64(1)))
	})

	It("ignores Consume when not ready", func() {
		t := session.NewTimer(100 * time.Millisecond)
		t.Accumulate(10 * time.Millisecond)

		t.Consume()
		Expect(t.Accumulator).To(Equal(10 * time.Millisecond))
		Expect(t.Cycles).To(BeZero())
	})

	It("keeps cycles across Reset", func() {
		t := session.NewTimer(0)
		Expect(t.Interval).To(Equal(session.DefaultTimerInterval))

		t.Accumulate(time.Second)
		t.Consume()
		t.Accumulate(time.Second / 2)
		t.Reset()

		Expect(t.Accumulator).To(BeZero())
		Expect(t.Cycles).To(Equal(uint64(1)))
	})
})

var _ = Describe("Stepper", func() {
	It("runs whole steps and carries the rest", func() {
		st := session.NewStepper(0)
		Expect(st.Step).To(Equal(session.UpdateStep))

		Expect(st.Advance(25 * time.Millisecond)).To(Equal(2))
		Expect(st.Carry()).To(Equal(5 * time.Millisecond))

		Expect(st.Advance(4 * time.Millisecond)).To(Equal(0))
		Expect(st.Advance(time.Millisecond)).To(Equal(1))
		Expect(st.Carry()).To(BeZero())
	})

	It("ignores negative frame times", func() {
		st := session.NewStepper(time.Millisecond)

		Expect(st.Advance(-time.Second)).To(Equal(0))
		Expect(st.Carry()).To(BeZero())
	})
})
