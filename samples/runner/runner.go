// Package runner drives simulations from the command line. A Runner sweeps
// every combination of replacement and allocation policy over a sequence of
// memory geometries, runs the sorting suite once per geometry, and reports
// the results.
package runner

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"gitlab.com/akita/akita/v3/sim"

	"gitlab.com/akita/vmsim/backingstore"
	"gitlab.com/akita/vmsim/paging"
	"gitlab.com/akita/vmsim/pagetable"
	"gitlab.com/akita/vmsim/profiler"
	"gitlab.com/akita/vmsim/replacement"
	"gitlab.com/akita/vmsim/workload"
)

// Runner runs the sweep.
type Runner struct {
	geometry         paging.Geometry
	storePath        string
	policies         []string
	allocations      []string
	rounds           int
	seed             int64
	tickerFreq       sim.Freq
	dumpInterval     uint64
	logicalClock     bool
	reportPath       string
	httpAddr         string
	trace            bool
	faultProfilePath string

	out    io.Writer
	report *profiler.Report
	tracer *FaultTracer

	mu      sync.Mutex
	manager *paging.Manager
	current profiler.RoundRecord
	store   *backingstore.FileStore
}

// ParseFlag applies the command line flags. Invalid flags print the usage
// and exit.
func (r *Runner) ParseFlag() *Runner {
	r.geometry = paging.Geometry{
		Log2FrameSize:      *frameSizeFlag,
		Log2PhysicalFrames: *physicalFlag,
		Log2VirtualFrames:  *virtualFlag,
	}
	r.storePath = *diskFlag
	r.policies = expand(*policyFlag, replacement.Names())
	r.allocations = expand(*allocationFlag, paging.AllocationNames())
	r.rounds = *roundsFlag
	r.seed = *seedFlag
	r.tickerFreq = sim.Freq(*tickerFreqFlag)
	r.dumpInterval = *dumpIntervalFlag
	r.logicalClock = *logicalClockFlag
	r.reportPath = *reportJSONFlag
	r.httpAddr = *httpFlag
	r.trace = *traceFlag
	r.faultProfilePath = *faultProfileFlag

	if err := r.validate(); err != nil {
		flag.Usage()
		atexit.Fatalf("%v", err)
	}

	return r
}

func expand(value string, all []string) []string {
	if strings.EqualFold(value, "all") {
		return all
	}
	return strings.Split(value, ",")
}

func (r *Runner) validate() error {
	for _, policy := range r.policies {
		for _, allocation := range r.allocations {
			c := paging.Config{
				Geometry:   r.geometry,
				Policy:     policy,
				Allocation: allocation,
				StorePath:  r.storePath,
			}
			if err := c.Validate(); err != nil {
				return err
			}
		}
	}

	if r.rounds < 1 {
		return fmt.Errorf("%w: at least one round is required",
			paging.ErrConfiguration)
	}
	if r.tickerFreq <= 0 {
		return fmt.Errorf("%w: the ticker frequency must be positive",
			paging.ErrConfiguration)
	}
	return nil
}

// Init prepares the report and the status server, and registers the exit
// handler that closes the store and writes the reports.
func (r *Runner) Init() *Runner {
	if r.out == nil {
		r.out = os.Stdout
	}

	r.report = profiler.NewReport(xid.New().String())
	if r.faultProfilePath != "" {
		r.tracer = NewFaultTracer()
	}

	atexit.Register(r.cleanup)

	if r.httpAddr != "" {
		r.startServer()
	}

	return r
}

// Run runs every round of the sweep for every policy combination.
func (r *Runner) Run() {
	for _, policy := range r.policies {
		for _, allocation := range r.allocations {
			color.New(color.FgYellow, color.Bold).Fprintf(r.out,
				"\nTesting with %s replacement and %s allocation\n",
				policy, allocation)

			for i, g := range Sweep(r.geometry, r.rounds) {
				record, err := r.runRound(i+1, g, policy, allocation)
				if err != nil {
					atexit.Fatalf("round %d of %s/%s: %v",
						i+1, policy, allocation, err)
				}

				r.report.Add(record)
			}
		}
	}
}

// Sweep returns the geometries of a sweep of n steps starting at g. The sweep
// stops early at the first geometry that is not valid.
func Sweep(g paging.Geometry, n int) []paging.Geometry {
	steps := []paging.Geometry{}
	for i := 0; i < n; i++ {
		if err := g.Validate(); err != nil {
			log.Printf("sweep stops after %d steps: %v", i, err)
			break
		}

		steps = append(steps, g)
		g = g.Grow()
	}
	return steps
}

func (r *Runner) runRound(
	step int,
	g paging.Geometry,
	policyName, allocationName string,
) (profiler.RoundRecord, error) {
	policy, err := replacement.ByName(policyName)
	if err != nil {
		return profiler.RoundRecord{}, err
	}
	allocation, err := paging.ParseAllocation(allocationName)
	if err != nil {
		return profiler.RoundRecord{}, err
	}

	store, err := r.openStore(g)
	if err != nil {
		return profiler.RoundRecord{}, err
	}
	defer r.closeStore()

	m := r.buildManager(step, g, policy, allocation, store)

	round := workload.NewRound(m, workload.DefaultSuite(m.NumWords()))
	round.TickerFreq = r.tickerFreq
	round.Step = step
	round.OnStart = func(record profiler.RoundRecord) {
		r.setCurrent(m, record)
		if r.tracer != nil {
			r.tracer.StartRound(record.RunID)
		}
		profiler.PrintRoundHeader(r.out, record)
	}

	record, err := round.Run()
	if err != nil {
		return record, err
	}
	r.setCurrent(m, record)

	profiler.PrintRound(r.out, record)

	if err := m.Flush(); err != nil {
		return record, err
	}
	return record, nil
}

func (r *Runner) openStore(g paging.Geometry) (*backingstore.FileStore, error) {
	store, err := backingstore.Open(r.storePath, g.NumWords())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.store = store
	r.mu.Unlock()

	if err := store.Fill(r.seed); err != nil {
		return nil, err
	}
	return store, nil
}

func (r *Runner) closeStore() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		log.Print(err)
	}
	r.store = nil
}

func (r *Runner) buildManager(
	step int,
	g paging.Geometry,
	policy replacement.Policy,
	allocation paging.Allocation,
	store backingstore.Store,
) *paging.Manager {
	b := paging.MakeBuilder().
		WithGeometry(g).
		WithPolicy(policy).
		WithAllocation(allocation).
		WithBackingStore(store)
	if r.logicalClock {
		b = b.WithClock(pagetable.NewStepClock())
	}

	m := b.Build(fmt.Sprintf("MMU.%s.%s.%d", policy.Name(), allocation, step))

	if r.trace {
		m.AcceptHook(paging.NewEventLogger(nil))
	}
	if r.dumpInterval > 0 {
		m.AcceptHook(paging.NewTableDumper(r.out, r.dumpInterval))
	}
	if r.tracer != nil {
		m.AcceptHook(r.tracer)
	}

	return m
}

func (r *Runner) setCurrent(m *paging.Manager, record profiler.RoundRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.manager = m
	r.current = record
}

func (r *Runner) currentRound() (*paging.Manager, profiler.RoundRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.manager, r.current
}

func (r *Runner) cleanup() {
	r.closeStore()

	if r.reportPath != "" && r.report != nil {
		if err := r.report.WriteFile(r.reportPath); err != nil {
			log.Print(err)
		}
	}

	if r.faultProfilePath != "" && r.tracer != nil {
		if err := r.tracer.WriteFile(r.faultProfilePath); err != nil {
			log.Print(err)
		}
	}
}
