package paging

import "errors"

var (
	// ErrConfiguration is wrapped by invalid geometries and unknown policy or
	// allocation names.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrIO is wrapped when the backing store fails during a page-in or a
	// page-out. The page table is left as it was before the access.
	ErrIO = errors.New("backing store failure")

	// ErrOutOfRange is returned for word indexes outside the virtual address
	// space.
	ErrOutOfRange = errors.New("index out of virtual address space")

	// ErrInvariant signals that the manager reached a state that must not
	// exist, such as a full memory with no page to evict.
	ErrInvariant = errors.New("memory manager invariant broken")
)
