package queues

import (
	"sort"

	"vkquad/optional"

	vk "github.com/vulkan-go/vulkan"
)

// FamilyIndices holds the indexes of Vulkan queue families needed by the program.
type FamilyIndices struct {

	// Graphics is the index of the graphics queue family.
	Graphics optional.Optional[uint32]

	// Present is the index of the queue family used for presenting to the drawing
	// surface.
	Present optional.Optional[uint32]

	// Transfer is the index of a family which supports transfers but not
	// graphics. It stays empty on devices without such a family.
	Transfer optional.Optional[uint32]
}

// IsComplete returns true if all families required for drawing have been set.
// A missing transfer family is not required since uploads fall back to the
// graphics queue.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// HasDedicatedTransfer reports whether uploads go to a family of their own.
func (f *FamilyIndices) HasDedicatedTransfer() bool {
	return f.Transfer.HasValue() && f.Transfer.Get() != f.Graphics.Get()
}

// TransferIndex returns the family used for staging uploads.
func (f *FamilyIndices) TransferIndex() uint32 {
	if f.Transfer.HasValue() {
		return f.Transfer.Get()
	}
	return f.Graphics.Get()
}

// Unique returns the distinct family indices, sorted, for which queues have
// to be created.
func (f *FamilyIndices) Unique() []uint32 {
	seen := make(map[uint32]struct{})
	for _, o := range []optional.Optional[uint32]{f.Graphics, f.Present, f.Transfer} {
		if o.HasValue() {
			seen[o.Get()] = struct{}{}
		}
	}

	unique := make([]uint32, 0, len(seen))
	for index := range seen {
		unique = append(unique, index)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	return unique
}

// Family describes a single queue family as reported by a physical device.
type Family struct {
	Index      uint32
	Flags      vk.QueueFlags
	QueueCount uint32

	// Present is true when queues of this family can present to the surface.
	Present bool
}

// Find picks the graphics, present and transfer families out of families.
//
// The graphics family is the first one with the graphics bit. Presentation
// prefers the graphics family so that a single queue can be used for both.
// The transfer family is the first one with the transfer bit and without the
// graphics bit.
func Find(families []Family) FamilyIndices {
	indices := FamilyIndices{}

	for _, family := range families {
		if family.QueueCount == 0 {
			continue
		}

		hasGraphics := family.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		hasTransfer := family.Flags&vk.QueueFlags(vk.QueueTransferBit) != 0

		if hasGraphics && !indices.Graphics.HasValue() {
			indices.Graphics.Set(family.Index)
			if family.Present {
				indices.Present.Set(family.Index)
			}
		}

		if family.Present && !indices.Present.HasValue() {
			indices.Present.Set(family.Index)
		}

		if hasTransfer && !hasGraphics && !indices.Transfer.HasValue() {
			indices.Transfer.Set(family.Index)
		}
	}

	return indices
}
