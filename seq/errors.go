package seq

import "errors"

var (
	// ErrAllocation is returned when the allocator cannot produce a block.
	ErrAllocation = errors.New("seq: allocation failed")
	// ErrInvalidState is returned for operations on an unallocated or freed event.
	ErrInvalidState = errors.New("seq: event not allocated")
	// ErrBufferSize is returned when a caller buffer has the wrong length.
	ErrBufferSize = errors.New("seq: wrong buffer size")
	// ErrForeignBlock is returned when an allocator is asked to free a block
	// it did not hand out, or one it already took back.
	ErrForeignBlock = errors.New("seq: block not owned by allocator")
)
