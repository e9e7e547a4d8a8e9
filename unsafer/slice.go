// Package unsafer reinterprets Go memory as raw bytes for copying into mapped
// Vulkan memory.
package unsafer

import (
	"encoding/binary"
	"unsafe"
)

// SliceToBytes interprets an arbitrary input slice as a byte slice.
//
// Note that the returned slice points to the same underlying data in memory. It
// does not make a copy.
func SliceToBytes[T any](input []T) []byte {
	if len(input) == 0 {
		return []byte{}
	}

	size := int(unsafe.Sizeof(input[0])) * len(input)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(input))), size)
}

// StructToBytes interprets the value pointed to by p as a byte slice. Like
// SliceToBytes it does not copy.
func StructToBytes[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
}

// BytesToUint32 packs data into little endian words, which is the layout
// SPIR-V modules are stored in. Trailing bytes which do not form a whole word
// are dropped.
func BytesToUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}
