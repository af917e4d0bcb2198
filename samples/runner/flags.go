package runner

import (
	"flag"

	"gitlab.com/akita/vmsim/backingstore"
	"gitlab.com/akita/vmsim/paging"
)

var frameSizeFlag = flag.Uint64("frame-size",
	paging.DefaultGeometry.Log2FrameSize,
	"Log2 of the number of words in a frame.")
var physicalFlag = flag.Uint64("physical",
	paging.DefaultGeometry.Log2PhysicalFrames,
	"Log2 of the number of physical frames.")
var virtualFlag = flag.Uint64("virtual",
	paging.DefaultGeometry.Log2VirtualFrames,
	"Log2 of the number of virtual pages.")
var policyFlag = flag.String("policy", "all",
	"Replacement policy: NRU, FIFO, SC, LRU, or all.")
var allocationFlag = flag.String("allocation", "all",
	"Allocation policy: global, local, or all.")
var diskFlag = flag.String("disk", "vmsim_disk.dat",
	"The file that backs the virtual address space.")
var roundsFlag = flag.Int("rounds", 9,
	"Number of sweep steps. Each step doubles the frame size and halves "+
		"the number of physical frames and virtual pages.")
var seedFlag = flag.Int64("seed", backingstore.DefaultSeed,
	"Seed of the random content of the backing store.")
var tickerFreqFlag = flag.Float64("ticker-freq",
	float64(paging.DefaultTickerFreq),
	"How many times per second the referenced bits are cleared under NRU.")
var dumpIntervalFlag = flag.Uint64("dump-interval", 0,
	"Print the page table every N accesses. 0 disables the dump.")
var logicalClockFlag = flag.Bool("logical-clock", false,
	"Timestamp loads and references with a logical clock instead of the "+
		"monotonic clock.")
var reportJSONFlag = flag.String("report-json", "",
	"Write the report of every round to this JSON file.")
var httpFlag = flag.String("http", "",
	"Serve the simulation status on this address, for example :8080.")
var traceFlag = flag.Bool("trace", false,
	"Log every page fault, eviction, and write-back.")
var faultProfileFlag = flag.String("fault-profile", "",
	"Write the pages that fault the most to this JSON file.")
