package arena_test

import (
	"errors"
	"testing"

	units "github.com/docker/go-units"
	. "github.com/onsi/gomega"

	"vkquad/arena"
)

func TestAlignUp(t *testing.T) {
	g := NewWithT(t)

	g.Expect(arena.AlignUp(12, 3)).To(Equal(uint64(12)))
	g.Expect(arena.AlignUp(10, 3)).To(Equal(uint64(12)))
	g.Expect(arena.AlignUp(10, 0)).To(Equal(uint64(10)))
	g.Expect(arena.AlignUp(10, 1)).To(Equal(uint64(10)))
	g.Expect(arena.AlignUp(0, 16)).To(Equal(uint64(0)))
}

func TestArenaAllocate(t *testing.T) {
	g := NewWithT(t)

	a := arena.New(1024)

	first, err := a.Allocate(10, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first).To(Equal(arena.Allocation{Offset: 0, Size: 10}))

	second, err := a.Allocate(100, 16)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second.Offset).To(Equal(uint64(16)))
	g.Expect(a.Used()).To(Equal(uint64(116)))
	g.Expect(a.Remaining()).To(Equal(uint64(908)))
}

func TestArenaOutOfSpace(t *testing.T) {
	g := NewWithT(t)

	a := arena.New(64)

	_, err := a.Allocate(65, 1)
	g.Expect(errors.Is(err, arena.ErrOutOfSpace)).To(BeTrue())
	g.Expect(a.Used()).To(BeZero(), "a failed allocation does not consume space")

	_, err = a.Allocate(60, 1)
	g.Expect(err).NotTo(HaveOccurred())

	// Alignment pushes the offset past the end.
	_, err = a.Allocate(1, 128)
	g.Expect(err).To(MatchError(arena.ErrOutOfSpace))

	_, err = a.Allocate(4, 4)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.Remaining()).To(BeZero())
}

func TestArenaEmptyAllocation(t *testing.T) {
	g := NewWithT(t)

	a := arena.New(10)

	_, err := a.Allocate(10, 1)
	g.Expect(err).NotTo(HaveOccurred())

	empty, err := a.Allocate(0, 16)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(empty).To(Equal(arena.Allocation{Offset: 10, Size: 0}))
	g.Expect(a.Used()).To(Equal(uint64(10)))

	a.Reset()
	_, err = a.Allocate(3, 1)
	g.Expect(err).NotTo(HaveOccurred())

	empty, err = a.Allocate(0, 4)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(empty.Offset).To(Equal(uint64(4)))
	g.Expect(a.Used()).To(Equal(uint64(3)), "empty allocations consume nothing")
}

func TestArenaReset(t *testing.T) {
	g := NewWithT(t)

	a := arena.New(2 * units.KiB)
	_, err := a.Allocate(2*units.KiB, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.String()).To(Equal("2KiB of 2KiB used"))

	a.Reset()
	g.Expect(a.Used()).To(BeZero())

	alloc, err := a.Allocate(units.KiB, 256)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(alloc.Offset).To(BeZero())
}
