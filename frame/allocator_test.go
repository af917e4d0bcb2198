package frame

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Allocator", func() {
	var a *Allocator

	BeforeEach(func() {
		a = NewAllocator(70)
	})

	It("should hand out the lowest free frame", func() {
		k, ok := a.FindFree()

		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(0))
	})

	It("should skip occupied frames", func() {
		a.MarkOccupied(0)
		a.MarkOccupied(1)
		a.MarkOccupied(3)

		k, ok := a.FindFree()

		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(2))
		Expect(a.NumOccupied()).To(Equal(3))
	})

	It("should find frames past the first word", func() {
		for i := 0; i < 66; i++ {
			a.MarkOccupied(i)
		}

		k, ok := a.FindFree()

		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(66))
	})

	It("should report none when all frames are occupied", func() {
		for i := 0; i < 70; i++ {
			a.MarkOccupied(i)
		}

		_, ok := a.FindFree()

		Expect(ok).To(BeFalse())
	})

	It("should not report the padding bits of the last word", func() {
		a = NewAllocator(2)
		a.MarkOccupied(0)
		a.MarkOccupied(1)

		_, ok := a.FindFree()

		Expect(ok).To(BeFalse())
	})

	It("should free a frame", func() {
		a.MarkOccupied(0)
		a.MarkOccupied(1)

		a.MarkFree(0)

		Expect(a.IsOccupied(0)).To(BeFalse())
		Expect(a.IsOccupied(1)).To(BeTrue())
		k, _ := a.FindFree()
		Expect(k).To(Equal(0))
	})

	It("should panic on double occupation", func() {
		a.MarkOccupied(5)

		Expect(func() { a.MarkOccupied(5) }).To(Panic())
	})

	It("should panic on out of range frames", func() {
		Expect(func() { a.IsOccupied(70) }).To(Panic())
	})

	It("should reset", func() {
		a.MarkOccupied(5)
		a.MarkOccupied(68)

		a.Reset()

		Expect(a.NumOccupied()).To(Equal(0))
		Expect(a.IsOccupied(68)).To(BeFalse())
	})
})
