package seq

import "fmt"

// Allocator provides the memory behind event records and variable payloads.
// Blocks returned by Alloc must be handed back to Free exactly once.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte) error
}

// HeapAllocator allocates from the Go heap. Free is a no-op.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("alloc %d bytes: %w", size, ErrAllocation)
	}
	return make([]byte, size), nil
}

func (HeapAllocator) Free(b []byte) error {
	return nil
}

// DefaultAllocator is used by NewEvent when no allocator is given
var DefaultAllocator Allocator = HeapAllocator{}
