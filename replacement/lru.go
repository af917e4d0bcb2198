package replacement

import (
	"gitlab.com/akita/mem/v3/vm"
	"gitlab.com/akita/vmsim/pagetable"
)

// LRU evicts the least recently referenced page.
type LRU struct{}

// NewLRU creates an LRU policy.
func NewLRU() *LRU {
	return &LRU{}
}

// Name returns "LRU".
func (p *LRU) Name() string {
	return "LRU"
}

// Victim returns the page with the smallest reference time.
func (p *LRU) Victim(t *pagetable.Table, owner vm.PID) (int, bool) {
	return first(t.AscendByReferenceTime, owner)
}
