package seq

import (
	"fmt"
	"sync"
	"unsafe"

	"go-seqevent/debug"
)

// Arena hands out fixed-size slots from one contiguous region that lives
// outside the Go heap where the platform allows it (see mapRegion).
// Blocks larger than a slot, such as long sysex payloads, come from the Go
// heap and are tracked until freed. It is safe for concurrent use.
type Arena struct {
	mu       sync.Mutex
	region   []byte
	slotSize int
	free     []int  // stack of free slot indexes
	used     []bool // used[i] is true while slot i is handed out
	large    map[*byte]struct{}
	closed   bool
}

// NewArena reserves slots*slotSize bytes.
func NewArena(slots, slotSize int) (*Arena, error) {
	if slots <= 0 || slotSize <= 0 {
		return nil, fmt.Errorf("arena %dx%d: %w", slots, slotSize, ErrAllocation)
	}
	region, err := mapRegion(slots * slotSize)
	if err != nil {
		return nil, fmt.Errorf("map arena: %w", err)
	}

	a := &Arena{
		region:   region,
		slotSize: slotSize,
		free:     make([]int, slots),
		used:     make([]bool, slots),
		large:    make(map[*byte]struct{}),
	}
	// Pop order hands out slot 0 first
	for i := range a.free {
		a.free[i] = slots - 1 - i
	}
	debug.Log("arena", "mapped %d slots of %d bytes", slots, slotSize)
	return a, nil
}

// SlotSize is the largest block Alloc serves from the mapped region.
func (a *Arena) SlotSize() int {
	return a.slotSize
}

// Available returns the number of free slots.
func (a *Arena) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.free)
}

func (a *Arena) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("alloc %d bytes: %w", size, ErrAllocation)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, fmt.Errorf("arena closed: %w", ErrAllocation)
	}
	if size > a.slotSize {
		b := make([]byte, size)
		a.large[unsafe.SliceData(b)] = struct{}{}
		debug.LogEvery(16, "arena", "%d byte block from heap", size)
		return b, nil
	}
	if len(a.free) == 0 {
		debug.LogEvery(16, "arena", "exhausted")
		return nil, fmt.Errorf("arena exhausted: %w", ErrAllocation)
	}

	slot := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	a.used[slot] = true

	off := slot * a.slotSize
	b := a.region[off : off+size : off+size]
	clear(b)
	return b, nil
}

func (a *Arena) Free(b []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(b) > 0 {
		if _, ok := a.large[unsafe.SliceData(b)]; ok {
			delete(a.large, unsafe.SliceData(b))
			return nil
		}
	}

	slot, ok := a.slotOf(b)
	if !ok {
		return fmt.Errorf("free %d bytes: %w", len(b), ErrForeignBlock)
	}
	if !a.used[slot] {
		return fmt.Errorf("free: slot %d already free: %w", slot, ErrForeignBlock)
	}
	a.used[slot] = false
	a.free = append(a.free, slot)
	return nil
}

// Close releases the region. Blocks still handed out become invalid.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if inUse := len(a.used) - len(a.free); inUse > 0 {
		debug.Log("arena", "closing with %d slots in use", inUse)
	}
	err := unmapRegion(a.region)
	a.region = nil
	clear(a.large)
	return err
}

// caller holds a.mu
func (a *Arena) slotOf(b []byte) (int, bool) {
	if len(b) == 0 || len(a.region) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.region)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if p < base || p >= base+uintptr(len(a.region)) {
		return 0, false
	}
	off := int(p - base)
	if off%a.slotSize != 0 {
		return 0, false
	}
	return off / a.slotSize, true
}
