package midi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-seqevent/debug"
	"go-seqevent/seq"
)

// ErrPortsTimeout is returned when the driver does not answer in time
var ErrPortsTimeout = errors.New("midi: port listing timed out")

// ErrNoPort is returned when no port matches a name
var ErrNoPort = errors.New("midi: no matching port")

// Ports lists input and output ports. Some drivers hang (CoreMIDI), so the
// listing gives up after timeout.
func Ports(timeout time.Duration) ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		inPorts := gomidi.GetInPorts()
		outPorts := gomidi.GetOutPorts()
		ch <- portsResult{inPorts: inPorts, outPorts: outPorts}
	}()

	select {
	case result := <-ch:
		return result.inPorts, result.outPorts, nil
	case <-time.After(timeout):
		return nil, nil, ErrPortsTimeout
	}
}

// MatchName reports whether a port name matches pattern (case-insensitive
// substring, empty matches everything)
func MatchName(portName, pattern string) bool {
	return strings.Contains(strings.ToLower(portName), strings.ToLower(pattern))
}

// FindOut returns the first output port whose name matches pattern
func FindOut(pattern string, timeout time.Duration) (drivers.Out, error) {
	_, outs, err := Ports(timeout)
	if err != nil {
		return nil, err
	}
	for _, p := range outs {
		if MatchName(p.String(), pattern) {
			return p, nil
		}
	}
	return nil, ErrNoPort
}

// DeviceEvent is emitted when inputs connect/disconnect
type DeviceEvent struct {
	Type  DeviceEventType
	Input *Input
	ID    string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of MIDI inputs whose name
// matches a pattern
type DeviceManager struct {
	inputs   map[string]*Input
	mu       sync.RWMutex
	events   chan DeviceEvent
	pollRate time.Duration
	pattern  string
	alloc    seq.Allocator
	done     chan struct{}

	listInputs func() ([]drivers.In, error) // swapped out in tests
}

// NewDeviceManager creates a device manager. Events for new inputs are
// allocated from alloc.
func NewDeviceManager(pattern string, alloc seq.Allocator) *DeviceManager {
	return &DeviceManager{
		inputs:     make(map[string]*Input),
		events:     make(chan DeviceEvent, 16),
		pollRate:   time.Second,
		pattern:    pattern,
		alloc:      alloc,
		done:       make(chan struct{}),
		listInputs: driverInputs,
	}
}

func driverInputs() ([]drivers.In, error) {
	ins, _, err := Ports(3 * time.Second)
	return ins, err
}

// Done is closed once Run has returned and every input it opened is closed.
// Wait on it before releasing the allocator the inputs use.
func (dm *DeviceManager) Done() <-chan struct{} {
	return dm.done
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Inputs returns a snapshot of connected inputs
func (dm *DeviceManager) Inputs() map[string]*Input {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]*Input, len(dm.inputs))
	for k, v := range dm.inputs {
		copy[k] = v
	}
	return copy
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	defer close(dm.done)

	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

// emit drops the event once ctx is done so a stopped reader cannot block shutdown
func (dm *DeviceManager) emit(ctx context.Context, event DeviceEvent) {
	select {
	case dm.events <- event:
	case <-ctx.Done():
	}
}

func (dm *DeviceManager) scan(ctx context.Context) {
	inPorts, err := dm.listInputs()
	if err != nil {
		// CoreMIDI is hung - skip this scan
		debug.Log("devices", "scan: %v", err)
		return
	}

	seen := make([]string, 0, len(inPorts))
	for i, p := range inPorts {
		if !MatchName(p.String(), dm.pattern) {
			continue
		}
		id := p.String()
		seen = append(seen, id)

		dm.mu.RLock()
		_, exists := dm.inputs[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		in, err := NewInput(id, inPorts[i], dm.alloc, int32(i))
		if err != nil {
			debug.Error("devices", err)
			continue
		}

		dm.mu.Lock()
		dm.inputs[id] = in
		dm.mu.Unlock()

		debug.Log("devices", "connected %s", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Input: in, ID: id})
	}

	dm.removeMissing(ctx, seen)
}

// removeMissing closes inputs not in seen
func (dm *DeviceManager) removeMissing(ctx context.Context, seen []string) {
	present := make(map[string]bool, len(seen))
	for _, id := range seen {
		present[id] = true
	}

	dm.mu.Lock()
	var gone []string
	for id, in := range dm.inputs {
		if present[id] {
			continue
		}
		in.Close()
		delete(dm.inputs, id)
		gone = append(gone, id)
	}
	dm.mu.Unlock()

	for _, id := range gone {
		debug.Log("devices", "disconnected %s", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, in := range dm.inputs {
		in.Close()
	}
	dm.inputs = make(map[string]*Input)
}
