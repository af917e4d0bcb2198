package pagetable

import (
	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = g.Describe("Timestamp", func() {
	g.It("should compare seconds before nanoseconds", func() {
		a := Timestamp{Sec: 1, Nsec: 900}
		b := Timestamp{Sec: 2, Nsec: 100}

		Expect(a.Before(b)).To(BeTrue())
		Expect(b.Before(a)).To(BeFalse())
		Expect(a.Before(a)).To(BeFalse())
		Expect(Timestamp{Sec: 1, Nsec: 5}.Before(a)).To(BeTrue())
	})

	g.It("should step the logical clock", func() {
		c := NewStepClock()

		first := c.Now()
		second := c.Now()

		Expect(first.IsZero()).To(BeFalse())
		Expect(first.Before(second)).To(BeTrue())
	})

	g.It("should never go back on the monotonic clock", func() {
		c := NewMonotonicClock()

		first := c.Now()
		second := c.Now()

		Expect(first.IsZero()).To(BeFalse())
		Expect(second.Before(first)).To(BeFalse())
	})
})
