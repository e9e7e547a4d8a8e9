package optional_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"vkquad/optional"
)

func TestOptionalLifecycle(t *testing.T) {
	g := NewWithT(t)

	var o optional.Optional[uint32]
	g.Expect(o.HasValue()).To(BeFalse())
	g.Expect(o.Get()).To(BeZero())

	o.Set(0)
	g.Expect(o.HasValue()).To(BeTrue(), "zero is a valid value once set")
	g.Expect(o.Get()).To(Equal(uint32(0)))

	o.Set(7)
	g.Expect(o.Get()).To(Equal(uint32(7)))

	o.Reset()
	g.Expect(o.HasValue()).To(BeFalse())
	g.Expect(o.Get()).To(BeZero())
}
