// Package frame tracks which physical frames are occupied.
package frame

import (
	"log"
	"math/bits"
)

// An Allocator keeps one occupancy bit per physical frame. Frame k starts at
// physical address k * frameSize.
type Allocator struct {
	numFrames int
	occupied  int
	words     []uint64
}

// NewAllocator creates an allocator with every frame free.
func NewAllocator(numFrames int) *Allocator {
	return &Allocator{
		numFrames: numFrames,
		words:     make([]uint64, (numFrames+63)/64),
	}
}

// NumFrames returns the number of physical frames.
func (a *Allocator) NumFrames() int {
	return a.numFrames
}

// NumOccupied returns the number of occupied frames.
func (a *Allocator) NumOccupied() int {
	return a.occupied
}

// FindFree returns the lowest-numbered free frame. The bool is false when
// every frame is occupied.
func (a *Allocator) FindFree() (int, bool) {
	for i, w := range a.words {
		if w == ^uint64(0) {
			continue
		}

		k := i*64 + bits.TrailingZeros64(^w)
		if k >= a.numFrames {
			return 0, false
		}
		return k, true
	}
	return 0, false
}

// IsOccupied tells if a frame is in use.
func (a *Allocator) IsOccupied(k int) bool {
	a.mustBeValid(k)
	return a.words[k/64]&(1<<(uint(k)%64)) != 0
}

// MarkOccupied takes a free frame.
func (a *Allocator) MarkOccupied(k int) {
	if a.IsOccupied(k) {
		log.Panicf("frame %d is already occupied", k)
	}
	a.words[k/64] |= 1 << (uint(k) % 64)
	a.occupied++
}

// MarkFree releases an occupied frame.
func (a *Allocator) MarkFree(k int) {
	if !a.IsOccupied(k) {
		log.Panicf("frame %d is already free", k)
	}
	a.words[k/64] &^= 1 << (uint(k) % 64)
	a.occupied--
}

// Reset frees every frame.
func (a *Allocator) Reset() {
	for i := range a.words {
		a.words[i] = 0
	}
	a.occupied = 0
}

func (a *Allocator) mustBeValid(k int) {
	if k < 0 || k >= a.numFrames {
		log.Panicf("frame %d out of range [0, %d)", k, a.numFrames)
	}
}
