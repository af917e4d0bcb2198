package workload

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/xid"
	"gitlab.com/akita/akita/v3/sim"

	"gitlab.com/akita/vmsim/paging"
	"gitlab.com/akita/vmsim/profiler"
)

// A Round runs a set of workloads concurrently against one Manager, with the
// reference ticker running alongside them, and verifies their results.
type Round struct {
	Manager    *paging.Manager
	Workloads  []Workload
	TickerFreq sim.Freq
	Step       int

	// OnStart, if set, is called with the round's record before any
	// workload starts.
	OnStart func(r profiler.RoundRecord)
}

// NewRound creates a round with the default ticker frequency.
func NewRound(m *paging.Manager, workloads []Workload) *Round {
	return &Round{
		Manager:    m,
		Workloads:  workloads,
		TickerFreq: paging.DefaultTickerFreq,
	}
}

// Run resets the Manager, registers the workloads, runs them to completion,
// stops the ticker, snapshots the statistics, and only then reads every
// range back to check it is sorted. The verification reads go to CheckTag
// and are not part of the workloads' statistics.
func (r *Round) Run() (profiler.RoundRecord, error) {
	if err := r.checkRanges(); err != nil {
		return profiler.RoundRecord{}, err
	}

	m := r.Manager
	m.Reset()

	record := profiler.RoundRecord{
		RunID:      xid.New().String(),
		Step:       r.Step,
		Policy:     m.Policy().Name(),
		Allocation: m.Allocation().String(),
		Sorts:      make([]profiler.SortRecord, len(r.Workloads)),
	}
	record.SetGeometry(m.Geometry())

	for i, w := range r.Workloads {
		m.RegisterWorkload(w.Tag())
		record.Sorts[i] = profiler.SortRecord{
			Tag:   w.Tag(),
			Name:  w.Name(),
			Start: w.Range().Start,
			End:   w.Range().End,
		}
	}

	if r.OnStart != nil {
		r.OnStart(record)
	}

	walltime := profiler.NewWallTime()
	walltime.StartInterval(record.RunID)

	ticker := paging.NewReferenceTicker(m, r.TickerFreq)
	ticker.Start()

	errs := make([]error, len(r.Workloads))
	var wg sync.WaitGroup
	for i, w := range r.Workloads {
		wg.Add(1)
		walltime.StartInterval(w.Tag())
		go func(i int, w Workload) {
			defer wg.Done()
			errs[i] = w.Run(m)
			record.Sorts[i].WallTime = walltime.EndInterval(w.Tag())
		}(i, w)
	}
	wg.Wait()

	ticker.Stop()
	record.Ticks = ticker.Ticks()
	record.WallTime = walltime.EndInterval(record.RunID)
	record.Stats = m.Stats()

	for i, err := range errs {
		if err != nil {
			return record, fmt.Errorf("%s: %w", r.Workloads[i].Name(), err)
		}
	}

	for i, w := range r.Workloads {
		sorted, err := IsSorted(m, w.Range(), CheckTag)
		if err != nil {
			return record, fmt.Errorf("checking %s: %w", w.Name(), err)
		}
		record.Sorts[i].Sorted = sorted
	}

	if stats, found := m.StatsOf(CheckTag); found {
		record.Stats = append(record.Stats, stats)
	}

	log.Printf("round %s: %s/%s, %d ticks, %.3fs",
		record.RunID, record.Policy, record.Allocation,
		record.Ticks, record.WallTime)

	return record, nil
}

func (r *Round) checkRanges() error {
	numWords := r.Manager.NumWords()
	for i, w := range r.Workloads {
		if w.Range().End > numWords {
			return fmt.Errorf("%w: %s ends at %d, past %d words",
				paging.ErrOutOfRange, w.Name(), w.Range().End, numWords)
		}

		for _, o := range r.Workloads[:i] {
			if w.Range().Overlaps(o.Range()) {
				return fmt.Errorf("%w: ranges of %s and %s overlap",
					paging.ErrConfiguration, w.Name(), o.Name())
			}
			if w.Tag() == o.Tag() {
				return fmt.Errorf("%w: %s and %s share tag %q",
					paging.ErrConfiguration, w.Name(), o.Name(), w.Tag())
			}
		}
	}
	return nil
}
