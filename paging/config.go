package paging

import (
	"fmt"
	"strings"

	"gitlab.com/akita/vmsim/replacement"
)

const (
	// MaxLog2Words caps the virtual address space at 2^32 words.
	MaxLog2Words = 32

	// MaxLog2PhysicalWords caps the simulated RAM at 2^28 words.
	MaxLog2PhysicalWords = 28
)

// Geometry describes the sizes of the simulated memory. Every size is a
// power of two given by its exponent.
type Geometry struct {
	Log2FrameSize      uint64
	Log2PhysicalFrames uint64
	Log2VirtualFrames  uint64
}

// DefaultGeometry is 64-word frames, 1024 physical frames and 16384 virtual
// pages.
var DefaultGeometry = Geometry{
	Log2FrameSize:      6,
	Log2PhysicalFrames: 10,
	Log2VirtualFrames:  14,
}

// FrameSize returns the number of words in a frame.
func (g Geometry) FrameSize() uint64 {
	return 1 << g.Log2FrameSize
}

// NumPhysicalFrames returns the number of frames in RAM.
func (g Geometry) NumPhysicalFrames() int {
	return 1 << g.Log2PhysicalFrames
}

// NumVirtualFrames returns the number of virtual pages.
func (g Geometry) NumVirtualFrames() int {
	return 1 << g.Log2VirtualFrames
}

// NumWords returns the number of words of the virtual address space.
func (g Geometry) NumWords() uint64 {
	return 1 << (g.Log2FrameSize + g.Log2VirtualFrames)
}

// NumPhysicalWords returns the number of words of RAM.
func (g Geometry) NumPhysicalWords() uint64 {
	return 1 << (g.Log2FrameSize + g.Log2PhysicalFrames)
}

// Grow returns the geometry of the next step of a sweep: frames twice as
// large, half as many physical frames and half as many virtual pages.
func (g Geometry) Grow() Geometry {
	return Geometry{
		Log2FrameSize:      g.Log2FrameSize + 1,
		Log2PhysicalFrames: g.Log2PhysicalFrames - 1,
		Log2VirtualFrames:  g.Log2VirtualFrames - 1,
	}
}

// Validate checks that every exponent is larger than 1 and that the spaces
// fit in the simulator's limits.
func (g Geometry) Validate() error {
	if g.Log2FrameSize <= 1 {
		return fmt.Errorf("%w: frame size exponent must be larger than 1",
			ErrConfiguration)
	}
	if g.Log2PhysicalFrames <= 1 {
		return fmt.Errorf("%w: physical frame exponent must be larger than 1",
			ErrConfiguration)
	}
	if g.Log2VirtualFrames <= 1 {
		return fmt.Errorf("%w: virtual frame exponent must be larger than 1",
			ErrConfiguration)
	}
	if g.Log2FrameSize+g.Log2VirtualFrames > MaxLog2Words {
		return fmt.Errorf("%w: 2^%d virtual words exceed 2^%d",
			ErrConfiguration, g.Log2FrameSize+g.Log2VirtualFrames,
			MaxLog2Words)
	}
	if g.Log2FrameSize+g.Log2PhysicalFrames > MaxLog2PhysicalWords {
		return fmt.Errorf("%w: 2^%d physical words exceed 2^%d",
			ErrConfiguration, g.Log2FrameSize+g.Log2PhysicalFrames,
			MaxLog2PhysicalWords)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("frame=2^%d words, physical=2^%d frames, virtual=2^%d pages",
		g.Log2FrameSize, g.Log2PhysicalFrames, g.Log2VirtualFrames)
}

// Allocation selects the scope of the replacement search.
type Allocation int

const (
	// GlobalAllocation lets any workload evict any page.
	GlobalAllocation Allocation = iota

	// LocalAllocation makes a workload evict its own pages first.
	LocalAllocation
)

// AllocationNames lists the names accepted by ParseAllocation.
func AllocationNames() []string {
	return []string{"global", "local"}
}

// ParseAllocation converts "global" or "local" to an Allocation.
func ParseAllocation(name string) (Allocation, error) {
	switch strings.ToLower(name) {
	case "global":
		return GlobalAllocation, nil
	case "local":
		return LocalAllocation, nil
	}
	return 0, fmt.Errorf("%w: unknown allocation policy %q",
		ErrConfiguration, name)
}

func (a Allocation) String() string {
	if a == LocalAllocation {
		return "local"
	}
	return "global"
}

// Config is everything needed to set up a simulation.
type Config struct {
	Geometry
	Policy     string
	Allocation string
	StorePath  string
}

// Validate checks the geometry and the names of the policies.
func (c Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if _, err := replacement.ByName(c.Policy); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if _, err := ParseAllocation(c.Allocation); err != nil {
		return err
	}
	if c.StorePath == "" {
		return fmt.Errorf("%w: a backing store path is required",
			ErrConfiguration)
	}
	return nil
}
