// Package arena implements a bump allocator over a fixed byte budget. The
// renderer uses it to lay out uploads inside a single host visible staging
// buffer.
package arena

import (
	"errors"
	"fmt"

	units "github.com/docker/go-units"
)

// ErrOutOfSpace is returned when an allocation does not fit in the arena.
var ErrOutOfSpace = errors.New("arena: not enough space")

// Allocation is a region of the arena.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// Arena hands out consecutive regions of a fixed size budget. Regions are
// never freed individually, the whole arena is emptied with Reset.
type Arena struct {
	size uint64
	used uint64
}

// New returns an empty arena which can hold size bytes.
func New(size uint64) *Arena {
	return &Arena{size: size}
}

// AlignUp rounds v up to the next multiple of align. Alignments of 0 and 1
// leave v unchanged.
func AlignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	if m := v % align; m != 0 {
		return v - m + align
	}
	return v
}

// Allocate reserves size bytes starting at an offset aligned to align. Empty
// allocations always succeed and consume nothing. They are placed at the end
// of an arena with no room left for the alignment.
func (a *Arena) Allocate(size, align uint64) (Allocation, error) {
	offset := AlignUp(a.used, align)
	if size == 0 {
		return Allocation{Offset: min(offset, a.size)}, nil
	}

	if offset > a.size || a.size-offset < size {
		return Allocation{}, fmt.Errorf(
			"allocating %s with %s remaining: %w",
			units.BytesSize(float64(size)),
			units.BytesSize(float64(a.Remaining())),
			ErrOutOfSpace,
		)
	}

	a.used = offset + size
	return Allocation{Offset: offset, Size: size}, nil
}

// Size returns the total capacity of the arena.
func (a *Arena) Size() uint64 {
	return a.size
}

// Used returns the number of bytes consumed, alignment padding included.
func (a *Arena) Used() uint64 {
	return a.used
}

// Remaining returns how many bytes are left after the last allocation.
func (a *Arena) Remaining() uint64 {
	return a.size - a.used
}

// Reset makes the whole arena available again.
func (a *Arena) Reset() {
	a.used = 0
}

func (a *Arena) String() string {
	return fmt.Sprintf(
		"%s of %s used",
		units.BytesSize(float64(a.used)),
		units.BytesSize(float64(a.size)),
	)
}
