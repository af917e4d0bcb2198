package pagetable

import (
	"sync/atomic"
	"time"
)

// A Timestamp is a point on a monotonic clock. Timestamps are compared
// lexicographically on (Sec, Nsec).
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// Before returns true if t happens strictly earlier than o.
func (t Timestamp) Before(o Timestamp) bool {
	if t.Sec != o.Sec {
		return t.Sec < o.Sec
	}
	return t.Nsec < o.Nsec
}

// IsZero returns true if the timestamp was never set.
func (t Timestamp) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

func timestampFromDuration(d time.Duration) Timestamp {
	return Timestamp{
		Sec:  int64(d / time.Second),
		Nsec: int64(d % time.Second),
	}
}

// A Clock provides the timestamps recorded on page loads and references.
type Clock interface {
	Now() Timestamp
}

// MonotonicClock reads the wall clock's monotonic reading relative to the
// moment it was created.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock starting at zero now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now returns the time elapsed since the clock was created. It never returns
// the zero Timestamp.
func (c *MonotonicClock) Now() Timestamp {
	d := time.Since(c.start)
	if d <= 0 {
		d = 1
	}
	return timestampFromDuration(d)
}

// StepClock is a logical clock. Every reading is one nanosecond later than
// the previous one, so runs driven by it are reproducible and no two
// readings tie.
type StepClock struct {
	ticks int64
}

// NewStepClock creates a logical clock.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Now advances the clock and returns the new reading.
func (c *StepClock) Now() Timestamp {
	n := atomic.AddInt64(&c.ticks, 1)
	return timestampFromDuration(time.Duration(n))
}
