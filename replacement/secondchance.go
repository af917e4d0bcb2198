package replacement

import (
	"gitlab.com/akita/mem/v3/vm"
	"gitlab.com/akita/vmsim/pagetable"
)

// SecondChance walks the pages in load order. A referenced page loses its
// referenced bit and goes to the back of the queue. The first page found
// unreferenced is the victim.
type SecondChance struct{}

// NewSecondChance creates a Second-Chance policy.
func NewSecondChance() *SecondChance {
	return &SecondChance{}
}

// Name returns "SC".
func (p *SecondChance) Name() string {
	return "SC"
}

// Victim returns the earliest loaded unreferenced page. If every page in
// scope is referenced, all of them get their second chance and the last one
// demoted is returned.
func (p *SecondChance) Victim(t *pagetable.Table, owner vm.PID) (int, bool) {
	victim := -1
	demoted := []int{}

	t.AscendByLoadTime(owner, func(page int, e pagetable.Entry) bool {
		if e.Referenced {
			demoted = append(demoted, page)
			return true
		}
		victim = page
		return false
	})

	for _, page := range demoted {
		t.GiveSecondChance(page)
	}

	if victim >= 0 {
		return victim, true
	}
	if len(demoted) > 0 {
		return demoted[len(demoted)-1], true
	}
	return -1, false
}
