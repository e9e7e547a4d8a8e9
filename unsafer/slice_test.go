package unsafer_test

import (
	"encoding/binary"
	"testing"

	. "github.com/onsi/gomega"

	"vkquad/unsafer"
)

func TestSliceToBytes(t *testing.T) {
	g := NewWithT(t)

	words := []uint32{0x04030201, 0x08070605}
	b := unsafer.SliceToBytes(words)
	g.Expect(b).To(HaveLen(8))
	g.Expect(binary.LittleEndian.Uint32(b[4:])).To(Equal(uint32(0x08070605)))

	// The byte view aliases the original memory.
	words[0] = 0
	g.Expect(b[:4]).To(Equal([]byte{0, 0, 0, 0}))
}

func TestSliceToBytesEmpty(t *testing.T) {
	g := NewWithT(t)

	g.Expect(unsafer.SliceToBytes([]float32(nil))).To(BeEmpty())
}

func TestStructToBytes(t *testing.T) {
	g := NewWithT(t)

	type pair struct {
		A, B uint16
	}
	p := pair{A: 0x0201, B: 0x0403}
	g.Expect(unsafer.StructToBytes(&p)).To(HaveLen(4))
	g.Expect(binary.LittleEndian.Uint16(unsafer.StructToBytes(&p)[2:])).To(Equal(uint16(0x0403)))
}

func TestBytesToUint32(t *testing.T) {
	g := NewWithT(t)

	words := unsafer.BytesToUint32([]byte{0x03, 0x02, 0x23, 0x07, 0xff, 0x01})
	g.Expect(words).To(Equal([]uint32{0x07230203}))
}
