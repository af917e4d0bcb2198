package paging

import (
	"log"

	"gitlab.com/akita/mem/v3/mem"
	"gitlab.com/akita/mem/v3/vm"

	"gitlab.com/akita/vmsim/backingstore"
	"gitlab.com/akita/vmsim/frame"
	"gitlab.com/akita/vmsim/pagetable"
	"gitlab.com/akita/vmsim/replacement"
)

// A Builder can build Managers.
type Builder struct {
	geometry   Geometry
	policy     replacement.Policy
	allocation Allocation
	store      backingstore.Store
	clock      pagetable.Clock
}

// MakeBuilder returns a Builder with the default geometry, FIFO replacement,
// and global allocation.
func MakeBuilder() Builder {
	return Builder{
		geometry:   DefaultGeometry,
		policy:     replacement.NewFIFO(),
		allocation: GlobalAllocation,
	}
}

// WithGeometry sets the sizes of the simulated memory.
func (b Builder) WithGeometry(g Geometry) Builder {
	b.geometry = g
	return b
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(p replacement.Policy) Builder {
	b.policy = p
	return b
}

// WithAllocation sets the allocation policy.
func (b Builder) WithAllocation(a Allocation) Builder {
	b.allocation = a
	return b
}

// WithBackingStore sets the disk holding the virtual address space. It must
// hold at least as many words as the geometry's virtual address space.
func (b Builder) WithBackingStore(s backingstore.Store) Builder {
	b.store = s
	return b
}

// WithClock sets the clock that timestamps page loads and references. The
// default is a monotonic clock.
func (b Builder) WithClock(c pagetable.Clock) Builder {
	b.clock = c
	return b
}

// Build creates a Manager with every page absent and every frame free.
func (b Builder) Build(name string) *Manager {
	if err := b.geometry.Validate(); err != nil {
		log.Panic(err)
	}
	if b.store == nil {
		log.Panicf("manager %s has no backing store", name)
	}
	if b.store.NumWords() < b.geometry.NumWords() {
		log.Panicf("backing store of %d words cannot hold %d words",
			b.store.NumWords(), b.geometry.NumWords())
	}
	if b.policy == nil {
		log.Panicf("manager %s has no replacement policy", name)
	}

	clock := b.clock
	if clock == nil {
		clock = pagetable.NewMonotonicClock()
	}

	m := &Manager{
		name:       name,
		geometry:   b.geometry,
		translator: pagetable.NewTranslator(b.geometry.Log2FrameSize),
		policy:     b.policy,
		allocation: b.allocation,
		store:      b.store,
		table: pagetable.New(
			b.geometry.NumVirtualFrames(), b.geometry.Log2FrameSize, clock),
		frames: frame.NewAllocator(b.geometry.NumPhysicalFrames()),
		memory: mem.NewStorage(
			b.geometry.NumPhysicalWords() * backingstore.WordSize),
		stats: make(map[string]*Stats),
		ids:   make(map[string]vm.PID),
	}

	return m
}
