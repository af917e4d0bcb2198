package replacement

import (
	"gitlab.com/akita/mem/v3/vm"
	"gitlab.com/akita/vmsim/pagetable"
)

// NRU (not recently used) evicts a page from the lowest non-empty class of
// (referenced, modified): (F,F), (F,T), (T,F), (T,T). Within a class the
// lowest page number wins.
type NRU struct{}

// NewNRU creates an NRU policy.
func NewNRU() *NRU {
	return &NRU{}
}

// Name returns "NRU".
func (p *NRU) Name() string {
	return "NRU"
}

// NeedsReferenceClearing returns true. Without periodic clearing every page
// ends up in the referenced classes.
func (p *NRU) NeedsReferenceClearing() bool {
	return true
}

// Victim returns the first page of the lowest class.
func (p *NRU) Victim(t *pagetable.Table, owner vm.PID) (int, bool) {
	best := -1
	bestClass := 4

	t.Scan(owner, func(page int, e pagetable.Entry) bool {
		c := nruClass(e)
		if c < bestClass {
			best = page
			bestClass = c
		}
		return bestClass > 0
	})

	return best, best >= 0
}

func nruClass(e pagetable.Entry) int {
	c := 0
	if e.Referenced {
		c += 2
	}
	if e.Modified {
		c++
	}
	return c
}
