// Package workload generates memory traffic for a paging.Manager. Each
// workload sorts a range of the virtual address space through Get and Set,
// so the access pattern of the sort drives the page faults.
package workload

// Memory is a word-addressed memory shared by tagged workloads.
// *paging.Manager implements it.
type Memory interface {
	Get(index uint64, tag string) (int32, error)
	Set(index uint64, value int32, tag string) error
}

// A Range is the half-open interval [Start, End) of word indexes.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of words in the range.
func (r Range) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Overlaps returns true if the two ranges share a word.
func (r Range) Overlaps(o Range) bool {
	return r.Len() > 0 && o.Len() > 0 && r.Start < o.End && o.Start < r.End
}

// A Workload sorts its range of a Memory.
type Workload interface {
	// Tag identifies the workload's accesses.
	Tag() string

	// Name is a human readable name.
	Name() string

	// Range is the part of the memory the workload sorts.
	Range() Range

	// Run sorts the range in ascending order. It stops at the first failed
	// access and returns its error.
	Run(m Memory) error
}

// accessor turns a Memory into plain reads and writes, keeping the first
// error. After an error every read returns 0 and every write is dropped, so
// sorting loops only need to check failed() to stop early.
type accessor struct {
	m   Memory
	tag string
	err error
}

func (a *accessor) get(i int) int32 {
	if a.err != nil {
		return 0
	}

	v, err := a.m.Get(uint64(i), a.tag)
	if err != nil {
		a.err = err
	}
	return v
}

func (a *accessor) set(i int, v int32) {
	if a.err != nil {
		return
	}

	a.err = a.m.Set(uint64(i), v, a.tag)
}

func (a *accessor) swap(i, j int) {
	t := a.get(i)
	a.set(i, a.get(j))
	a.set(j, t)
}

func (a *accessor) failed() bool {
	return a.err != nil
}

type base struct {
	tag  string
	name string
	rng  Range
}

func (b base) Tag() string {
	return b.tag
}

func (b base) Name() string {
	return b.name
}

func (b base) Range() Range {
	return b.rng
}

func (b base) bounds() (int, int) {
	return int(b.rng.Start), int(b.rng.End)
}

// IsSorted reads the range back and returns true if it is in ascending
// order.
func IsSorted(m Memory, r Range, tag string) (bool, error) {
	if r.Len() < 2 {
		return true, nil
	}

	a := &accessor{m: m, tag: tag}
	prev := a.get(int(r.Start))
	for i := int(r.Start) + 1; i < int(r.End); i++ {
		v := a.get(i)
		if a.failed() {
			return false, a.err
		}
		if v < prev {
			return false, nil
		}
		prev = v
	}
	return true, a.err
}
