package replacement

import (
	"gitlab.com/akita/mem/v3/vm"
	"gitlab.com/akita/vmsim/pagetable"
)

// FIFO evicts the page that was loaded the earliest.
type FIFO struct{}

// NewFIFO creates a FIFO policy.
func NewFIFO() *FIFO {
	return &FIFO{}
}

// Name returns "FIFO".
func (p *FIFO) Name() string {
	return "FIFO"
}

// Victim returns the page with the smallest load time.
func (p *FIFO) Victim(t *pagetable.Table, owner vm.PID) (int, bool) {
	return first(t.AscendByLoadTime, owner)
}

func first(
	ascend func(vm.PID, func(int, pagetable.Entry) bool),
	owner vm.PID,
) (int, bool) {
	victim := -1
	ascend(owner, func(page int, e pagetable.Entry) bool {
		victim = page
		return false
	})
	return victim, victim >= 0
}
