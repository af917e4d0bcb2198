// Package replacement provides the algorithms that choose which present page
// to evict when no physical frame is free.
package replacement

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/akita/mem/v3/vm"
	"gitlab.com/akita/vmsim/pagetable"
)

// ErrUnknownPolicy is returned by ByName for names that do not match any
// algorithm.
var ErrUnknownPolicy = errors.New("unknown page replacement policy")

// A Policy selects a victim among the present pages of a table.
//
// The owner sets the scope of the search. Owner 0 considers every present
// page (global allocation). Any other owner only considers the present pages
// last accessed by that owner (local allocation). found is false when the
// scope holds no present page.
type Policy interface {
	Name() string
	Victim(t *pagetable.Table, owner vm.PID) (page int, found bool)
}

// ReferenceClearing is implemented by policies that only work if the
// referenced bits are cleared periodically.
type ReferenceClearing interface {
	NeedsReferenceClearing() bool
}

// NeedsReferenceClearing tells if the referenced bits must be cleared
// periodically while p is in use.
func NeedsReferenceClearing(p Policy) bool {
	rc, ok := p.(ReferenceClearing)
	return ok && rc.NeedsReferenceClearing()
}

// Names lists the canonical policy names accepted by ByName.
func Names() []string {
	return []string{"NRU", "FIFO", "SC", "LRU"}
}

// ByName creates a policy from its name. Names are case-insensitive. WSClock
// is accepted as an alias of LRU.
func ByName(name string) (Policy, error) {
	switch strings.ToUpper(name) {
	case "NRU":
		return NewNRU(), nil
	case "FIFO":
		return NewFIFO(), nil
	case "SC":
		return NewSecondChance(), nil
	case "LRU", "WSCLOCK":
		return NewLRU(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}
