package paging

import (
	"fmt"
	"io"
	"log"
	"sync"

	"gitlab.com/akita/akita/v3/sim"
	"gitlab.com/akita/mem/v3/vm"

	"gitlab.com/akita/vmsim/pagetable"
)

var (
	// HookPosPageHit marks an access to a present page.
	HookPosPageHit = &sim.HookPos{Name: "Page Hit"}

	// HookPosPageFault marks an access that brought a page into memory.
	HookPosPageFault = &sim.HookPos{Name: "Page Fault"}

	// HookPosPageEvict marks a page leaving memory to make room.
	HookPosPageEvict = &sim.HookPos{Name: "Page Evict"}

	// HookPosWriteBack marks a dirty page being written to the backing store.
	HookPosWriteBack = &sim.HookPos{Name: "Write Back"}

	// HookPosReferenceClear marks a clear of all the referenced bits.
	HookPosReferenceClear = &sim.HookPos{Name: "Reference Clear"}
)

// An Event is the item carried by the hook contexts of a Manager.
type Event struct {
	Tag    string
	Owner  vm.PID
	Index  uint64
	Page   int
	Frame  int
	Write  bool
	Victim int
}

// EventCounter is a hook that counts events per position.
type EventCounter struct {
	mu     sync.Mutex
	counts map[*sim.HookPos]uint64
}

// NewEventCounter creates an EventCounter.
func NewEventCounter() *EventCounter {
	return &EventCounter{counts: make(map[*sim.HookPos]uint64)}
}

// Func counts the event.
func (c *EventCounter) Func(ctx sim.HookCtx) {
	c.mu.Lock()
	c.counts[ctx.Pos]++
	c.mu.Unlock()
}

// Count returns the number of events seen at a position.
func (c *EventCounter) Count(pos *sim.HookPos) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[pos]
}

// EventLogger is a hook that logs every fault, eviction, and write-back.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger creates an EventLogger writing to logger. A nil logger means
// the standard logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &EventLogger{logger: logger}
}

// Func logs the event.
func (l *EventLogger) Func(ctx sim.HookCtx) {
	e, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosPageFault:
		l.logger.Printf("%s: fault on page %d at %d (write=%t), frame %d",
			e.Tag, e.Page, e.Index, e.Write, e.Frame)
	case HookPosPageEvict:
		l.logger.Printf("%s: evict page %d from frame %d", e.Tag, e.Page, e.Frame)
	case HookPosWriteBack:
		l.logger.Printf("%s: write back page %d", e.Tag, e.Page)
	case HookPosReferenceClear:
		l.logger.Printf("referenced bits cleared")
	}
}

// TableDumper is a hook that prints the present entries of the page table
// every Interval accesses.
type TableDumper struct {
	Interval uint64

	mu       sync.Mutex
	w        io.Writer
	accesses uint64
}

// NewTableDumper creates a TableDumper writing to w.
func NewTableDumper(w io.Writer, interval uint64) *TableDumper {
	return &TableDumper{w: w, Interval: interval}
}

// Func counts hits and faults and dumps the table of the Manager that raised
// the event when the interval is reached.
func (d *TableDumper) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosPageHit && ctx.Pos != HookPosPageFault {
		return
	}

	m, ok := ctx.Domain.(*Manager)
	if !ok || d.Interval == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++
	if d.accesses%d.Interval != 0 {
		return
	}

	fmt.Fprintf(d.w, "page table of %s after %d accesses\n", m.Name(), d.accesses)
	WriteTable(d.w, m.Snapshot())
}

// WriteTable prints the present entries in a fixed-width table.
func WriteTable(w io.Writer, entries []pagetable.Entry) {
	fmt.Fprintf(w, "%8s %12s %12s %2s %2s %5s %4s %22s %22s\n",
		"page", "virtual", "physical", "M", "R", "owner", "age",
		"loaded", "referenced")

	for page, e := range entries {
		if !e.Present {
			continue
		}

		fmt.Fprintf(w, "%8d %12d %12d %2d %2d %5d %4d %11d.%010d %11d.%010d\n",
			page, e.VirtualAddr, e.PhysicalAddr,
			bit(e.Modified), bit(e.Referenced), e.Owner, e.Age,
			e.LoadTime.Sec, e.LoadTime.Nsec,
			e.ReferenceTime.Sec, e.ReferenceTime.Nsec)
	}
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
