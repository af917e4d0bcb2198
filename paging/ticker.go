package paging

import (
	"sync"
	"time"

	"gitlab.com/akita/akita/v3/sim"

	"gitlab.com/akita/vmsim/replacement"
)

// DefaultTickerFreq clears the referenced bits every 400ms.
const DefaultTickerFreq = 2.5 * sim.Hz

// A ReferenceTicker periodically clears the referenced bits of a Manager
// whose policy relies on them. It runs on its own goroutine between Start
// and Stop.
type ReferenceTicker struct {
	manager *Manager
	period  time.Duration

	mu      sync.Mutex
	ticks   uint64
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewReferenceTicker creates a ticker that clears the bits of m freq times a
// second.
func NewReferenceTicker(m *Manager, freq sim.Freq) *ReferenceTicker {
	if freq <= 0 {
		freq = DefaultTickerFreq
	}

	return &ReferenceTicker{
		manager: m,
		period:  time.Duration(float64(time.Second) / float64(freq)),
	}
}

// Period returns the time between two clears.
func (t *ReferenceTicker) Period() time.Duration {
	return t.period
}

// Start launches the ticker goroutine. It returns false, and does nothing, if
// the policy of the Manager does not use referenced bits or the ticker is
// already running.
func (t *ReferenceTicker) Start() bool {
	if !replacement.NeedsReferenceClearing(t.manager.Policy()) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return false
	}

	t.running = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)

	return true
}

func (t *ReferenceTicker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		t.manager.ClearReferencedBits()

		t.mu.Lock()
		t.ticks++
		t.mu.Unlock()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the ticker goroutine and waits for it to exit. Stopping a ticker
// that is not running does nothing.
func (t *ReferenceTicker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	stop, done := t.stop, t.done
	t.mu.Unlock()

	close(stop)
	<-done
}

// Ticks returns how many times the bits were cleared.
func (t *ReferenceTicker) Ticks() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}
