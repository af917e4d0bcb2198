package paging

import "gitlab.com/akita/mem/v3/vm"

// Stats counts the memory activity of one workload.
type Stats struct {
	Tag              string `json:"tag"`
	Owner            vm.PID `json:"owner"`
	Reads            uint64 `json:"reads"`
	Writes           uint64 `json:"writes"`
	Misses           uint64 `json:"misses"`
	Replacements     uint64 `json:"replacements"`
	DemandPageReads  uint64 `json:"demand_page_reads"`
	DemandPageWrites uint64 `json:"demand_page_writes"`
	WriteBacks       uint64 `json:"write_backs"`
}

// Accesses returns the number of reads and writes.
func (s Stats) Accesses() uint64 {
	return s.Reads + s.Writes
}

// MissRate returns the fraction of accesses that faulted.
func (s Stats) MissRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses())
}

func (s *Stats) reset() {
	*s = Stats{Tag: s.Tag, Owner: s.Owner}
}
