// Package profiler records what happened during the rounds of a simulation
// and reports it as JSON and on the console.
package profiler

import (
	"encoding/json"
	"os"
	"sync"

	"gitlab.com/akita/vmsim/paging"
)

// A SortRecord is the outcome of one workload of a round.
type SortRecord struct {
	Tag      string  `json:"tag"`
	Name     string  `json:"name"`
	Start    uint64  `json:"start"`
	End      uint64  `json:"end"`
	WallTime float64 `json:"walltime"`
	Sorted   bool    `json:"sorted"`
}

// A RoundRecord is the outcome of one round: one geometry, one replacement
// policy, one allocation policy.
type RoundRecord struct {
	RunID          string         `json:"run_id"`
	Step           int            `json:"step"`
	Policy         string         `json:"policy"`
	Allocation     string         `json:"allocation"`
	FrameSize      uint64         `json:"frame_size"`
	PhysicalFrames int            `json:"physical_frames"`
	VirtualFrames  int            `json:"virtual_frames"`
	WallTime       float64        `json:"walltime"`
	Ticks          uint64         `json:"ticks"`
	Sorts          []SortRecord   `json:"sorts"`
	Stats          []paging.Stats `json:"stats"`
}

// SetGeometry copies the sizes of g into the record.
func (r *RoundRecord) SetGeometry(g paging.Geometry) {
	r.FrameSize = g.FrameSize()
	r.PhysicalFrames = g.NumPhysicalFrames()
	r.VirtualFrames = g.NumVirtualFrames()
}

// AllSorted returns true if every workload left its range sorted.
func (r RoundRecord) AllSorted() bool {
	for _, s := range r.Sorts {
		if !s.Sorted {
			return false
		}
	}
	return true
}

// Total sums the statistics of every tag.
func (r RoundRecord) Total() paging.Stats {
	total := paging.Stats{Tag: "total"}
	for _, s := range r.Stats {
		total.Reads += s.Reads
		total.Writes += s.Writes
		total.Misses += s.Misses
		total.Replacements += s.Replacements
		total.DemandPageReads += s.DemandPageReads
		total.DemandPageWrites += s.DemandPageWrites
		total.WriteBacks += s.WriteBacks
	}
	return total
}

// A Report collects the rounds of a run. It is safe for concurrent use.
type Report struct {
	mu     sync.Mutex
	RunID  string        `json:"run_id"`
	Rounds []RoundRecord `json:"rounds"`
}

// NewReport creates an empty report.
func NewReport(runID string) *Report {
	return &Report{
		RunID:  runID,
		Rounds: []RoundRecord{},
	}
}

// Add appends a round.
func (r *Report) Add(round RoundRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rounds = append(r.Rounds, round)
}

// Last returns the latest round added.
func (r *Report) Last() (RoundRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Rounds) == 0 {
		return RoundRecord{}, false
	}
	return r.Rounds[len(r.Rounds)-1], true
}

// Len returns the number of rounds.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Rounds)
}

// MarshalJSON encodes the report with its rounds.
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return json.MarshalIndent(struct {
		RunID  string        `json:"run_id"`
		Rounds []RoundRecord `json:"rounds"`
	}{r.RunID, r.Rounds}, "", " ")
}

// WriteFile dumps the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	jsonStr, err := json.MarshalIndent(r, "", " ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, jsonStr, 0644)
}
