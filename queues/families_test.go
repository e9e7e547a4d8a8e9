package queues_test

import (
	"testing"

	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"

	"vkquad/queues"
)

var (
	graphics = vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit)
	compute  = vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit)
	transfer = vk.QueueFlags(vk.QueueTransferBit)
)

func TestFindDedicatedTransfer(t *testing.T) {
	g := NewWithT(t)

	indices := queues.Find([]queues.Family{
		{Index: 0, Flags: graphics, QueueCount: 16, Present: true},
		{Index: 1, Flags: transfer, QueueCount: 2},
		{Index: 2, Flags: compute, QueueCount: 8},
	})

	g.Expect(indices.IsComplete()).To(BeTrue())
	g.Expect(indices.Graphics.Get()).To(Equal(uint32(0)))
	g.Expect(indices.Present.Get()).To(Equal(uint32(0)))
	g.Expect(indices.Transfer.Get()).To(Equal(uint32(1)))
	g.Expect(indices.HasDedicatedTransfer()).To(BeTrue())
	g.Expect(indices.TransferIndex()).To(Equal(uint32(1)))
	g.Expect(indices.Unique()).To(Equal([]uint32{0, 1}))
}

func TestFindFallsBackToGraphicsForTransfer(t *testing.T) {
	g := NewWithT(t)

	indices := queues.Find([]queues.Family{
		{Index: 0, Flags: graphics, QueueCount: 1, Present: true},
	})

	g.Expect(indices.IsComplete()).To(BeTrue())
	g.Expect(indices.Transfer.HasValue()).To(BeFalse())
	g.Expect(indices.HasDedicatedTransfer()).To(BeFalse())
	g.Expect(indices.TransferIndex()).To(Equal(uint32(0)))
	g.Expect(indices.Unique()).To(Equal([]uint32{0}))
}

func TestFindSeparatePresentFamily(t *testing.T) {
	g := NewWithT(t)

	indices := queues.Find([]queues.Family{
		{Index: 0, Flags: graphics, QueueCount: 1},
		{Index: 1, Flags: compute, QueueCount: 1, Present: true},
	})

	g.Expect(indices.IsComplete()).To(BeTrue())
	g.Expect(indices.Graphics.Get()).To(Equal(uint32(0)))
	g.Expect(indices.Present.Get()).To(Equal(uint32(1)))
	// A compute family is not a dedicated transfer family.
	g.Expect(indices.Transfer.HasValue()).To(BeFalse())
}

func TestFindPrefersGraphicsFamilyForPresent(t *testing.T) {
	g := NewWithT(t)

	indices := queues.Find([]queues.Family{
		{Index: 0, Flags: compute, QueueCount: 1, Present: true},
		{Index: 1, Flags: graphics, QueueCount: 1, Present: true},
	})

	// A presenting graphics family replaces an earlier present-only pick.
	g.Expect(indices.Present.Get()).To(Equal(uint32(1)))
	g.Expect(indices.Graphics.Get()).To(Equal(uint32(1)))
}

func TestFindIncomplete(t *testing.T) {
	g := NewWithT(t)

	indices := queues.Find([]queues.Family{
		{Index: 0, Flags: graphics, QueueCount: 0, Present: true},
		{Index: 1, Flags: transfer, QueueCount: 1},
	})

	g.Expect(indices.IsComplete()).To(BeFalse())
	g.Expect(indices.Transfer.Get()).To(Equal(uint32(1)))
}
