// Package pagetable holds the per-virtual-page state of the simulated address
// space and the translation from word indexes to pages.
package pagetable

import (
	"log"
	"math"

	"github.com/google/btree"
	"gitlab.com/akita/mem/v3/vm"
)

// Unbound is the physical address of a page that has no frame.
const Unbound uint64 = math.MaxUint64

// An Entry is the state of one virtual page.
type Entry struct {
	VirtualAddr   uint64
	PhysicalAddr  uint64
	Present       bool
	Modified      bool
	Referenced    bool
	Owner         vm.PID
	Age           uint32
	ReferenceTime Timestamp
	LoadTime      Timestamp
}

// InScope returns true if the entry can be considered by a replacement
// search for the given owner. Owner 0 means every page.
func (e Entry) InScope(owner vm.PID) bool {
	return owner == 0 || e.Owner == owner
}

type timeKey struct {
	ts   Timestamp
	page int
}

func (k timeKey) Less(than btree.Item) bool {
	o := than.(timeKey)
	if k.ts != o.ts {
		return k.ts.Before(o.ts)
	}
	return k.page < o.page
}

// A Table holds one entry per virtual page. Besides the entries it keeps the
// present pages ordered by load time and by reference time, so that ordered
// traversals resolve ties by page number.
//
// A Table is not safe for concurrent use. The owner serializes access.
type Table struct {
	translator  Translator
	clock       Clock
	entries     []Entry
	byLoad      *btree.BTree
	byReference *btree.BTree
}

// New creates a table of numPages entries for frames of 2^log2FrameSize
// words. All entries start absent.
func New(numPages int, log2FrameSize uint64, clock Clock) *Table {
	t := &Table{
		translator: NewTranslator(log2FrameSize),
		clock:      clock,
		entries:    make([]Entry, numPages),
	}
	t.Reset()
	return t
}

// Reset marks every page absent and unowned.
func (t *Table) Reset() {
	frameSize := t.translator.FrameSize()
	for i := range t.entries {
		t.entries[i] = Entry{
			VirtualAddr:  uint64(i) * frameSize,
			PhysicalAddr: Unbound,
		}
	}
	t.byLoad = btree.New(8)
	t.byReference = btree.New(8)
}

// Len returns the number of virtual pages.
func (t *Table) Len() int {
	return len(t.entries)
}

// Translator returns the translator matching the table's frame size.
func (t *Table) Translator() Translator {
	return t.translator
}

// Now reads the table's clock.
func (t *Table) Now() Timestamp {
	return t.clock.Now()
}

// Entry returns a copy of the entry of a page.
func (t *Table) Entry(page int) Entry {
	return t.entries[page]
}

// NumPresent returns the number of pages bound to a frame.
func (t *Table) NumPresent() int {
	return t.byLoad.Len()
}

// Entries returns a copy of all the entries.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Scan visits the present pages in scope in page-number order until fn
// returns false.
func (t *Table) Scan(owner vm.PID, fn func(page int, e Entry) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Present || !e.InScope(owner) {
			continue
		}
		if !fn(i, *e) {
			return
		}
	}
}

// AscendByLoadTime visits the present pages in scope from the earliest
// loaded to the latest until fn returns false.
func (t *Table) AscendByLoadTime(owner vm.PID, fn func(page int, e Entry) bool) {
	t.ascend(t.byLoad, owner, fn)
}

// AscendByReferenceTime visits the present pages in scope from the least
// recently referenced to the most recently referenced until fn returns false.
func (t *Table) AscendByReferenceTime(
	owner vm.PID,
	fn func(page int, e Entry) bool,
) {
	t.ascend(t.byReference, owner, fn)
}

func (t *Table) ascend(
	tree *btree.BTree,
	owner vm.PID,
	fn func(page int, e Entry) bool,
) {
	tree.Ascend(func(item btree.Item) bool {
		page := item.(timeKey).page
		e := t.entries[page]
		if !e.InScope(owner) {
			return true
		}
		return fn(page, e)
	})
}

// SetOwner records the workload that last accessed a page.
func (t *Table) SetOwner(page int, owner vm.PID) {
	t.entries[page].Owner = owner
}

// Load binds an absent page to the frame at physicalAddr. The page becomes
// present and referenced, and modified if the access that faulted it in is a
// write.
func (t *Table) Load(page int, physicalAddr uint64, write bool) {
	e := &t.entries[page]
	if e.Present {
		log.Panicf("page %d is already present at %d", page, e.PhysicalAddr)
	}

	now := t.clock.Now()
	e.PhysicalAddr = physicalAddr
	e.Present = true
	e.Referenced = true
	e.Modified = write
	e.Age = 0
	e.LoadTime = now
	e.ReferenceTime = now

	t.byLoad.ReplaceOrInsert(timeKey{ts: now, page: page})
	t.byReference.ReplaceOrInsert(timeKey{ts: now, page: page})
}

// Reference records a hit on a present page.
func (t *Table) Reference(page int, write bool) {
	e := &t.entries[page]
	if !e.Present {
		log.Panicf("referencing absent page %d", page)
	}

	t.byReference.Delete(timeKey{ts: e.ReferenceTime, page: page})
	e.Referenced = true
	if write {
		e.Modified = true
	}
	e.Age = 0
	e.ReferenceTime = t.clock.Now()
	t.byReference.ReplaceOrInsert(timeKey{ts: e.ReferenceTime, page: page})
}

// Evict unbinds a present page and returns its state before the eviction.
func (t *Table) Evict(page int) Entry {
	e := &t.entries[page]
	if !e.Present {
		log.Panicf("evicting absent page %d", page)
	}

	old := *e
	t.byLoad.Delete(timeKey{ts: e.LoadTime, page: page})
	t.byReference.Delete(timeKey{ts: e.ReferenceTime, page: page})

	e.PhysicalAddr = Unbound
	e.Present = false
	e.Modified = false
	e.Referenced = false
	e.Age = 0
	e.LoadTime = Timestamp{}
	e.ReferenceTime = Timestamp{}

	return old
}

// GiveSecondChance clears the referenced bit of a present page and moves it
// to the tail of the load order, as if it had just been loaded.
func (t *Table) GiveSecondChance(page int) {
	e := &t.entries[page]
	if !e.Present {
		log.Panicf("second chance for absent page %d", page)
	}

	t.byLoad.Delete(timeKey{ts: e.LoadTime, page: page})
	e.Referenced = false
	e.LoadTime = t.clock.Now()
	t.byLoad.ReplaceOrInsert(timeKey{ts: e.LoadTime, page: page})
}

// ClearModified marks a present page clean, after its frame was written
// back.
func (t *Table) ClearModified(page int) {
	t.entries[page].Modified = false
}

// ClearReferenced clears the referenced bit of every page. Present pages that
// were not referenced since the previous clear grow one step older.
func (t *Table) ClearReferenced() {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Present {
			continue
		}

		if e.Referenced {
			e.Age = 0
		} else {
			e.Age++
		}
		e.Referenced = false
	}
}
