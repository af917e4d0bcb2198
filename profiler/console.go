package profiler

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"gitlab.com/akita/vmsim/paging"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	passColor    = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed, color.Bold)
)

// PrintRoundHeader prints the sizes of a round and the ranges of its
// workloads before the round starts.
func PrintRoundHeader(w io.Writer, r RoundRecord) {
	headingColor.Fprintf(w, "TEST %d: %s replacement, %s allocation\n",
		r.Step, r.Policy, r.Allocation)
	fmt.Fprintf(w, "Frame size: %d words\n", r.FrameSize)
	fmt.Fprintf(w, "Physical frames: %d\n", r.PhysicalFrames)
	fmt.Fprintf(w, "Virtual pages: %d\n", r.VirtualFrames)
	fmt.Fprintf(w, "Words: %d\n", r.FrameSize*uint64(r.VirtualFrames))
	for _, s := range r.Sorts {
		fmt.Fprintf(w, "%s [%d, %d)\n", s.Name, s.Start, s.End)
	}
}

// PrintRound prints the statistics and verdict of every workload of a
// finished round.
func PrintRound(w io.Writer, r RoundRecord) {
	for _, s := range r.Sorts {
		fmt.Fprintln(w, "===============================")
		fmt.Fprintln(w, s.Name)
		if stats, found := r.statsOf(s.Tag); found {
			PrintStats(w, stats)
		}

		fmt.Fprint(w, "Sort success: ")
		if s.Sorted {
			passColor.Fprintln(w, "yes")
		} else {
			failColor.Fprintln(w, "no")
		}
		fmt.Fprintf(w, "Took %f seconds to execute\n", s.WallTime)
	}

	fmt.Fprintln(w, "===============================")
	for _, s := range r.Stats {
		if r.isSort(s.Tag) {
			continue
		}
		fmt.Fprintf(w, "Tag %q\n", s.Tag)
		PrintStats(w, s)
	}

	fmt.Fprintf(w, "Referenced bits cleared %d times\n", r.Ticks)
	headingColor.Fprintf(w, "Round %s took %f seconds\n", r.RunID, r.WallTime)
}

// PrintStats prints the counters of one tag.
func PrintStats(w io.Writer, s paging.Stats) {
	fmt.Fprintf(w, "Owner: %d\n", s.Owner)
	fmt.Fprintf(w, "Reads: %d\n", s.Reads)
	fmt.Fprintf(w, "Writes: %d\n", s.Writes)
	fmt.Fprintf(w, "Page faults: %d (%.2f%%)\n", s.Misses, 100*s.MissRate())
	fmt.Fprintf(w, "Replacements: %d\n", s.Replacements)
	fmt.Fprintf(w, "Demand page reads: %d\n", s.DemandPageReads)
	fmt.Fprintf(w, "Demand page writes: %d\n", s.DemandPageWrites)
	fmt.Fprintf(w, "Write backs: %d\n", s.WriteBacks)
}

func (r RoundRecord) statsOf(tag string) (paging.Stats, bool) {
	for _, s := range r.Stats {
		if s.Tag == tag {
			return s, true
		}
	}
	return paging.Stats{}, false
}

func (r RoundRecord) isSort(tag string) bool {
	for _, s := range r.Sorts {
		if s.Tag == tag {
			return true
		}
	}
	return false
}
