package replacement

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gitlab.com/akita/mem/v3/vm"
	"gitlab.com/akita/vmsim/pagetable"
)

// loadPages faults in pages in the given order, frame i for the i-th page.
func loadPages(t *pagetable.Table, pages ...int) {
	frameSize := t.Translator().FrameSize()
	for i, page := range pages {
		t.Load(page, uint64(i)*frameSize, false)
	}
}

func evictAll(p Policy, t *pagetable.Table, owner vm.PID) []int {
	order := []int{}
	for {
		page, found := p.Victim(t, owner)
		if !found {
			return order
		}
		order = append(order, page)
		t.Evict(page)
	}
}

var _ = Describe("ByName", func() {
	It("should create every policy", func() {
		for _, name := range Names() {
			p, err := ByName(name)

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name()).To(Equal(name))
		}
	})

	It("should accept WSClock as LRU", func() {
		p, err := ByName("WSClock")

		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&LRU{}))
	})

	It("should ignore case", func() {
		p, err := ByName("fifo")

		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name()).To(Equal("FIFO"))
	})

	It("should reject unknown names", func() {
		_, err := ByName("OPT")

		Expect(errors.Is(err, ErrUnknownPolicy)).To(BeTrue())
	})

	It("should tell which policies need the reference ticker", func() {
		Expect(NeedsReferenceClearing(NewNRU())).To(BeTrue())
		Expect(NeedsReferenceClearing(NewFIFO())).To(BeFalse())
		Expect(NeedsReferenceClearing(NewSecondChance())).To(BeFalse())
		Expect(NeedsReferenceClearing(NewLRU())).To(BeFalse())
	})
})

var _ = Describe("Policies on an empty scope", func() {
	It("should find no victim", func() {
		t := pagetable.New(8, 6, pagetable.NewStepClock())
		loadPages(t, 0, 1)
		t.SetOwner(0, 1)
		t.SetOwner(1, 1)

		for _, name := range Names() {
			p, _ := ByName(name)

			_, found := p.Victim(t, 2)
			Expect(found).To(BeFalse(), name)
		}
	})
})
