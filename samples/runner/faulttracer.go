package runner

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"gitlab.com/akita/akita/v3/sim"

	"gitlab.com/akita/vmsim/paging"
)

// hottestPages is the number of pages kept per workload in a fault profile.
const hottestPages = 16

// PageFaults is the number of times a page faulted.
type PageFaults struct {
	Page   int    `json:"page"`
	Faults uint64 `json:"faults"`
}

// WorkloadFaults is the fault profile of one workload in one round.
type WorkloadFaults struct {
	Tag       string       `json:"tag"`
	Faults    uint64       `json:"faults"`
	Evictions uint64       `json:"evictions"`
	Hottest   []PageFaults `json:"hottest"`
}

type workloadFaults struct {
	faults    uint64
	evictions uint64
	pages     map[int]uint64
}

// FaultTracer is a hook that counts the faults of every page, per workload
// and per round.
type FaultTracer struct {
	mu      sync.Mutex
	rounds  []string
	current string
	data    map[string]map[string]*workloadFaults
}

// NewFaultTracer creates a FaultTracer.
func NewFaultTracer() *FaultTracer {
	return &FaultTracer{
		data: make(map[string]map[string]*workloadFaults),
	}
}

// StartRound makes the following events count toward the round runID.
func (t *FaultTracer) StartRound(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = runID
	if _, found := t.data[runID]; !found {
		t.rounds = append(t.rounds, runID)
		t.data[runID] = make(map[string]*workloadFaults)
	}
}

// Func counts faults and evictions.
func (t *FaultTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != paging.HookPosPageFault && ctx.Pos != paging.HookPosPageEvict {
		return
	}

	e, ok := ctx.Item.(paging.Event)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	round, found := t.data[t.current]
	if !found {
		return
	}

	w, found := round[e.Tag]
	if !found {
		w = &workloadFaults{pages: make(map[int]uint64)}
		round[e.Tag] = w
	}

	if ctx.Pos == paging.HookPosPageEvict {
		w.evictions++
		return
	}
	w.faults++
	w.pages[e.Page]++
}

// Profile returns the fault profile of a round, one entry per workload
// sorted by tag.
func (t *FaultTracer) Profile(runID string) []WorkloadFaults {
	t.mu.Lock()
	defer t.mu.Unlock()

	round := t.data[runID]
	profile := make([]WorkloadFaults, 0, len(round))
	for tag, w := range round {
		profile = append(profile, WorkloadFaults{
			Tag:       tag,
			Faults:    w.faults,
			Evictions: w.evictions,
			Hottest:   hottest(w.pages, hottestPages),
		})
	}

	sort.Slice(profile, func(i, j int) bool {
		return profile[i].Tag < profile[j].Tag
	})
	return profile
}

func hottest(pages map[int]uint64, n int) []PageFaults {
	list := make([]PageFaults, 0, len(pages))
	for page, faults := range pages {
		list = append(list, PageFaults{Page: page, Faults: faults})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Faults != list[j].Faults {
			return list[i].Faults > list[j].Faults
		}
		return list[i].Page < list[j].Page
	})

	if len(list) > n {
		list = list[:n]
	}
	return list
}

// WriteFile dumps the profiles of every round as indented JSON.
func (t *FaultTracer) WriteFile(path string) error {
	t.mu.Lock()
	rounds := append([]string{}, t.rounds...)
	t.mu.Unlock()

	type roundFaults struct {
		RunID     string           `json:"run_id"`
		Workloads []WorkloadFaults `json:"workloads"`
	}

	out := make([]roundFaults, 0, len(rounds))
	for _, runID := range rounds {
		out = append(out, roundFaults{RunID: runID, Workloads: t.Profile(runID)})
	}

	jsonStr, err := json.MarshalIndent(out, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, jsonStr, 0644)
}
