// Package paging implements a demand-paged virtual memory manager. Words of
// a large virtual address space live on a backing store; a smaller physical
// memory holds the pages in use. Accesses to absent pages fault them in,
// evicting a victim chosen by a replacement policy when memory is full.
package paging

import (
	"fmt"
	"sync"

	"gitlab.com/akita/akita/v3/sim"
	"gitlab.com/akita/mem/v3/mem"
	"gitlab.com/akita/mem/v3/vm"

	"gitlab.com/akita/vmsim/backingstore"
	"gitlab.com/akita/vmsim/frame"
	"gitlab.com/akita/vmsim/pagetable"
	"gitlab.com/akita/vmsim/replacement"
)

// A Manager owns the page table, the frame bitmap, the physical memory, and
// the per-workload statistics of one simulated address space. Get and Set are
// safe for concurrent use; each call runs as a single critical section.
//
// Hooks attached to the Manager are invoked after the critical section, so
// they may call back into the Manager. Hooks must be attached before the
// Manager is shared between goroutines.
type Manager struct {
	sim.HookableBase

	name       string
	geometry   Geometry
	translator pagetable.Translator
	policy     replacement.Policy
	allocation Allocation
	store      backingstore.Store

	mu          sync.Mutex
	table       *pagetable.Table
	frames      *frame.Allocator
	memory      *mem.Storage
	stats       map[string]*Stats
	tags        []string
	ids         map[string]vm.PID
	numAccesses uint64
}

// Name returns the name given to the Manager when it was built.
func (m *Manager) Name() string {
	return m.name
}

// Geometry returns the sizes of the simulated memory.
func (m *Manager) Geometry() Geometry {
	return m.geometry
}

// NumWords returns the size of the virtual address space in words.
func (m *Manager) NumWords() uint64 {
	return m.geometry.NumWords()
}

// Policy returns the replacement policy in use.
func (m *Manager) Policy() replacement.Policy {
	return m.policy
}

// Allocation returns the allocation policy in use.
func (m *Manager) Allocation() Allocation {
	return m.allocation
}

// RegisterWorkload gives a tag its own owner id. Ids are handed out as 1, 2,
// ... in registration order. Under local allocation, the pages a workload
// touches are tagged with its id and its faults evict its own pages first.
// Registering a tag twice returns the same id.
func (m *Manager) RegisterWorkload(tag string) vm.PID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, found := m.ids[tag]; found {
		return id
	}

	id := vm.PID(len(m.ids) + 1)
	m.ids[tag] = id

	// A tag may have accessed memory before it was registered.
	s := m.bucket(tag)
	if m.allocation == LocalAllocation {
		s.Owner = id
	}
	return id
}

// Get returns the word at index. tag names the workload making the access.
func (m *Manager) Get(index uint64, tag string) (int32, error) {
	return m.access(index, tag, false, 0)
}

// Set stores value at index. tag names the workload making the access.
func (m *Manager) Set(index uint64, value int32, tag string) error {
	_, err := m.access(index, tag, true, value)
	return err
}

type pendingEvent struct {
	pos   *sim.HookPos
	event Event
}

type accessOp struct {
	index  uint64
	tag    string
	write  bool
	value  int32
	owner  vm.PID
	events [3]pendingEvent
	n      int
}

func (op *accessOp) record(pos *sim.HookPos, e Event) {
	e.Tag = op.tag
	e.Owner = op.owner
	e.Index = op.index
	e.Write = op.write
	op.events[op.n] = pendingEvent{pos: pos, event: e}
	op.n++
}

func (m *Manager) access(
	index uint64,
	tag string,
	write bool,
	value int32,
) (int32, error) {
	op := accessOp{index: index, tag: tag, write: write, value: value}

	m.mu.Lock()
	err := m.doAccess(&op)
	m.mu.Unlock()

	for i := 0; i < op.n; i++ {
		m.InvokeHook(sim.HookCtx{
			Domain: m,
			Pos:    op.events[i].pos,
			Item:   op.events[i].event,
		})
	}

	return op.value, err
}

func (m *Manager) doAccess(op *accessOp) error {
	if op.index >= m.geometry.NumWords() {
		return fmt.Errorf("%w: index %d, address space holds %d words",
			ErrOutOfRange, op.index, m.geometry.NumWords())
	}

	s := m.bucket(op.tag)
	op.owner = s.Owner
	if op.write {
		s.Writes++
	} else {
		s.Reads++
	}
	m.numAccesses++

	page := m.translator.PageNumber(op.index)

	if m.table.Entry(page).Present {
		m.table.SetOwner(page, s.Owner)
		m.table.Reference(page, op.write)
		e := m.table.Entry(page)
		op.record(HookPosPageHit, Event{
			Page:   page,
			Frame:  m.frameOf(e.PhysicalAddr),
			Victim: -1,
		})
	} else if err := m.handleFault(op, s, page); err != nil {
		return err
	}

	e := m.table.Entry(page)
	return m.accessWord(op, e.PhysicalAddr+m.translator.Offset(op.index))
}

// handleFault brings page into memory. The backing store is read, and
// written if the victim is dirty, before any state changes, so a failing
// store leaves the table and the frames untouched.
func (m *Manager) handleFault(op *accessOp, s *Stats, page int) error {
	s.Misses++
	if op.write {
		s.DemandPageWrites++
	} else {
		s.DemandPageReads++
	}

	e := m.table.Entry(page)
	data := make([]byte, m.frameBytes())
	if err := m.store.PageIn(e.VirtualAddr, data); err != nil {
		return fmt.Errorf("%w: page in of page %d: %v", ErrIO, page, err)
	}

	victim := -1
	if m.frames.NumOccupied() == m.frames.NumFrames() {
		var err error
		victim, err = m.findVictim(s.Owner)
		if err != nil {
			return err
		}
		s.Replacements++

		if err := m.evict(op, s, victim); err != nil {
			return err
		}
	}

	k, found := m.frames.FindFree()
	if !found {
		return fmt.Errorf("%w: no free frame for page %d", ErrInvariant, page)
	}
	m.frames.MarkOccupied(k)

	physicalAddr := uint64(k) * m.geometry.FrameSize()
	if err := m.memory.Write(physicalAddr*backingstore.WordSize, data); err != nil {
		return fmt.Errorf("%w: frame %d: %v", ErrInvariant, k, err)
	}
	m.table.Load(page, physicalAddr, op.write)
	m.table.SetOwner(page, s.Owner)

	op.record(HookPosPageFault, Event{Page: page, Frame: k, Victim: victim})
	return nil
}

// findVictim asks the policy for a page to evict in the owner's scope, then
// in the global scope if the owner has no present page.
func (m *Manager) findVictim(owner vm.PID) (int, error) {
	victim, found := m.policy.Victim(m.table, owner)
	if !found && owner != 0 {
		victim, found = m.policy.Victim(m.table, 0)
	}

	if !found {
		return -1, fmt.Errorf("%w: %s found no victim among %d present pages",
			ErrInvariant, m.policy.Name(), m.table.NumPresent())
	}
	if victim < 0 || victim >= m.table.Len() || !m.table.Entry(victim).Present {
		return -1, fmt.Errorf("%w: %s chose page %d, which is not present",
			ErrInvariant, m.policy.Name(), victim)
	}
	return victim, nil
}

// evict writes the victim back if it is dirty, unbinds it, and frees its
// frame. The frame is the only free one, so the faulting page takes it.
func (m *Manager) evict(op *accessOp, s *Stats, victim int) error {
	e := m.table.Entry(victim)
	k := m.frameOf(e.PhysicalAddr)

	if e.Modified {
		if err := m.writeBack(victim, e); err != nil {
			return err
		}
		s.WriteBacks++
		op.record(HookPosWriteBack, Event{Page: victim, Frame: k, Victim: victim})
	}

	m.table.Evict(victim)
	m.frames.MarkFree(k)
	op.record(HookPosPageEvict, Event{Page: victim, Frame: k, Victim: victim})

	return nil
}

func (m *Manager) writeBack(page int, e pagetable.Entry) error {
	data, err := m.memory.Read(
		e.PhysicalAddr*backingstore.WordSize, m.frameBytes())
	if err != nil {
		return fmt.Errorf("%w: frame at %d: %v", ErrInvariant, e.PhysicalAddr, err)
	}

	if err := m.store.PageOut(e.VirtualAddr, data); err != nil {
		return fmt.Errorf("%w: page out of page %d: %v", ErrIO, page, err)
	}
	return nil
}

func (m *Manager) accessWord(op *accessOp, physicalAddr uint64) error {
	byteAddr := physicalAddr * backingstore.WordSize

	if op.write {
		buf := make([]byte, backingstore.WordSize)
		backingstore.EncodeWord(buf, op.value)
		if err := m.memory.Write(byteAddr, buf); err != nil {
			return fmt.Errorf("%w: word at %d: %v", ErrInvariant, physicalAddr, err)
		}
		return nil
	}

	buf, err := m.memory.Read(byteAddr, backingstore.WordSize)
	if err != nil {
		return fmt.Errorf("%w: word at %d: %v", ErrInvariant, physicalAddr, err)
	}
	op.value = backingstore.DecodeWord(buf)
	return nil
}

// bucket returns the statistics of a tag, creating them if needed. Tags that
// were never registered count as unowned.
func (m *Manager) bucket(tag string) *Stats {
	s, found := m.stats[tag]
	if found {
		return s
	}

	s = &Stats{Tag: tag}
	if m.allocation == LocalAllocation {
		s.Owner = m.ids[tag]
	}
	m.stats[tag] = s
	m.tags = append(m.tags, tag)
	return s
}

func (m *Manager) frameOf(physicalAddr uint64) int {
	return int(physicalAddr >> m.geometry.Log2FrameSize)
}

func (m *Manager) frameBytes() uint64 {
	return m.geometry.FrameSize() * backingstore.WordSize
}

// ClearReferencedBits clears the referenced bit of every page. It is what the
// reference ticker does on every tick.
func (m *Manager) ClearReferencedBits() {
	m.mu.Lock()
	m.table.ClearReferenced()
	m.mu.Unlock()

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Pos:    HookPosReferenceClear,
		Item:   Event{Page: -1, Frame: -1, Victim: -1},
	})
}

// Flush writes every dirty page back to the backing store and marks it
// clean. Pages stay in memory.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dirty := []int{}
	m.table.Scan(0, func(page int, e pagetable.Entry) bool {
		if e.Modified {
			dirty = append(dirty, page)
		}
		return true
	})

	for _, page := range dirty {
		if err := m.writeBack(page, m.table.Entry(page)); err != nil {
			return err
		}
		m.table.ClearModified(page)
	}
	return nil
}

// Reset starts a new round: every page becomes absent, every frame free, and
// every counter zero. Registered workloads keep their ids; other tags are
// forgotten. The backing store is not touched.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.table.Reset()
	m.frames.Reset()
	m.numAccesses = 0

	tags := m.tags[:0]
	for _, tag := range m.tags {
		if _, registered := m.ids[tag]; registered {
			m.stats[tag].reset()
			tags = append(tags, tag)
			continue
		}
		delete(m.stats, tag)
	}
	m.tags = tags
}

// Stats returns a copy of the statistics of every tag seen, in the order the
// tags were first seen.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Stats, 0, len(m.tags))
	for _, tag := range m.tags {
		out = append(out, *m.stats[tag])
	}
	return out
}

// StatsOf returns a copy of the statistics of one tag.
func (m *Manager) StatsOf(tag string) (Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, found := m.stats[tag]
	if !found {
		return Stats{}, false
	}
	return *s, true
}

// NumAccesses returns the number of Get and Set calls since the last reset.
func (m *Manager) NumAccesses() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numAccesses
}

// Snapshot returns a copy of the page table.
func (m *Manager) Snapshot() []pagetable.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Entries()
}

// PresentCount returns the number of pages in physical memory.
func (m *Manager) PresentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.NumPresent()
}

// CheckInvariants verifies that the page table and the frame bitmap agree:
// no more present pages than frames, no frame bound twice, every bound frame
// occupied, and only present pages marked modified or referenced.
func (m *Manager) CheckInvariants() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	numPresent := 0
	owners := make(map[int]int)
	for page, e := range m.table.Entries() {
		if !e.Present {
			if e.PhysicalAddr != pagetable.Unbound {
				return fmt.Errorf("%w: absent page %d bound to %d",
					ErrInvariant, page, e.PhysicalAddr)
			}
			if e.Modified || e.Referenced {
				return fmt.Errorf("%w: absent page %d has state bits set",
					ErrInvariant, page)
			}
			continue
		}

		numPresent++
		k := m.frameOf(e.PhysicalAddr)
		if other, taken := owners[k]; taken {
			return fmt.Errorf("%w: pages %d and %d share frame %d",
				ErrInvariant, other, page, k)
		}
		owners[k] = page
		if k >= m.frames.NumFrames() || !m.frames.IsOccupied(k) {
			return fmt.Errorf("%w: page %d bound to free frame %d",
				ErrInvariant, page, k)
		}
	}

	if numPresent > m.frames.NumFrames() {
		return fmt.Errorf("%w: %d present pages for %d frames",
			ErrInvariant, numPresent, m.frames.NumFrames())
	}
	if numPresent != m.frames.NumOccupied() {
		return fmt.Errorf("%w: %d present pages but %d occupied frames",
			ErrInvariant, numPresent, m.frames.NumOccupied())
	}
	return nil
}
