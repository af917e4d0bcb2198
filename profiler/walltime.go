package profiler

import (
	"log"
	"sync"
	"time"
)

// WallTime measures named wall-clock intervals. It is safe for concurrent
// use, so every workload of a round can time itself on the same WallTime.
type WallTime struct {
	mu         sync.Mutex
	starttimes map[string]time.Time
}

// NewWallTime creates a WallTime with no interval running.
func NewWallTime() *WallTime {
	return &WallTime{
		starttimes: make(map[string]time.Time),
	}
}

// StartInterval starts the interval named flag. One flag can only have one
// interval running at a time.
func (w *WallTime) StartInterval(flag string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, found := w.starttimes[flag]
	if found {
		log.Panicf("interval %s is already running", flag)
	}
	w.starttimes[flag] = time.Now()
}

// EndInterval stops the interval named flag and returns its length in
// seconds.
func (w *WallTime) EndInterval(flag string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	startTime, found := w.starttimes[flag]
	if !found {
		log.Panicf("interval %s was never started", flag)
	}
	delete(w.starttimes, flag)

	return time.Since(startTime).Seconds()
}

// Running returns the number of intervals started but not ended.
func (w *WallTime) Running() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.starttimes)
}
