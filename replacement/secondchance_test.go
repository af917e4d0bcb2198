package replacement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gitlab.com/akita/vmsim/pagetable"
)

var _ = Describe("SecondChance", func() {
	var (
		t *pagetable.Table
		p *SecondChance
	)

	loadOrder := func() []int {
		pages := []int{}
		t.AscendByLoadTime(0, func(page int, e pagetable.Entry) bool {
			pages = append(pages, page)
			return true
		})
		return pages
	}

	BeforeEach(func() {
		t = pagetable.New(16, 6, pagetable.NewStepClock())
		p = NewSecondChance()
		loadPages(t, 0, 1, 2)
		t.ClearReferenced()
	})

	It("should evict the oldest unreferenced page", func() {
		victim, found := p.Victim(t, 0)

		Expect(found).To(BeTrue())
		Expect(victim).To(Equal(0))
		Expect(loadOrder()).To(Equal([]int{0, 1, 2}))
	})

	It("should demote referenced pages it walks over", func() {
		t.Reference(0, false)
		t.Reference(1, false)

		victim, _ := p.Victim(t, 0)

		Expect(victim).To(Equal(2))
		Expect(t.Entry(0).Referenced).To(BeFalse())
		Expect(t.Entry(1).Referenced).To(BeFalse())
		Expect(loadOrder()).To(Equal([]int{2, 0, 1}))
	})

	It("should stop walking at the victim", func() {
		t.Reference(0, false)
		t.Reference(2, false)

		victim, _ := p.Victim(t, 0)

		Expect(victim).To(Equal(1))
		Expect(t.Entry(2).Referenced).To(BeTrue())
		Expect(loadOrder()).To(Equal([]int{1, 2, 0}))
	})

	It("should fall back to the last demoted page if all are referenced", func() {
		t.Reference(0, false)
		t.Reference(1, false)
		t.Reference(2, false)

		victim, found := p.Victim(t, 0)

		Expect(found).To(BeTrue())
		Expect(victim).To(Equal(2))
		for _, page := range []int{0, 1, 2} {
			Expect(t.Entry(page).Referenced).To(BeFalse())
		}
	})

	It("should only walk the owner's pages", func() {
		t.SetOwner(0, 1)
		t.SetOwner(1, 2)
		t.SetOwner(2, 2)
		t.Reference(1, false)

		victim, _ := p.Victim(t, 2)

		Expect(victim).To(Equal(2))
		Expect(t.Entry(1).Referenced).To(BeFalse())
		Expect(t.Entry(0).Referenced).To(BeFalse())
	})
})
