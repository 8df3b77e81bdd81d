package midi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-seqevent/seq"
)

func newTestManager(alloc seq.Allocator, list func() ([]drivers.In, error)) *DeviceManager {
	dm := NewDeviceManager("", alloc)
	dm.listInputs = list
	dm.pollRate = 10 * time.Millisecond
	return dm
}

func waitDone(t *testing.T, dm *DeviceManager) {
	t.Helper()
	select {
	case <-dm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestDeviceManager_ClosesInputsBeforeDone(t *testing.T) {
	arena, err := seq.NewArena(4, seq.RecordSize)
	require.NoError(t, err)
	defer arena.Close()

	// a hung driver skips every scan, so only shutdown closes the input
	dm := newTestManager(arena, func() ([]drivers.In, error) {
		return nil, ErrPortsTimeout
	})
	in, err := NewInput("kbd", nil, arena, 0)
	require.NoError(t, err)
	dm.inputs["kbd"] = in
	assert.Equal(t, 3, arena.Available())

	ctx, cancel := context.WithCancel(context.Background())
	go dm.Run(ctx)
	cancel()
	waitDone(t, dm)

	assert.Equal(t, 4, arena.Available(), "input event released before Done")
	assert.Empty(t, dm.Inputs())
	_, ok := <-dm.Events()
	assert.False(t, ok)
}

func TestDeviceManager_RemovesMissingInputs(t *testing.T) {
	dm := newTestManager(nil, func() ([]drivers.In, error) { return nil, nil })
	in, err := NewInput("kbd", nil, nil, 0)
	require.NoError(t, err)
	dm.inputs["kbd"] = in

	ctx, cancel := context.WithCancel(context.Background())
	go dm.Run(ctx)

	event := <-dm.Events()
	assert.Equal(t, DeviceEvent{Type: DeviceDisconnected, ID: "kbd"}, event)
	_, ok := <-in.Events()
	assert.False(t, ok)

	cancel()
	waitDone(t, dm)
}

func TestDeviceManager_ShutdownWithoutReader(t *testing.T) {
	dm := newTestManager(nil, func() ([]drivers.In, error) { return nil, nil })

	// more disconnects than the events buffer holds, and nobody reading
	for i := 0; i < 40; i++ {
		in, err := NewInput(fmt.Sprint("in", i), nil, nil, 0)
		require.NoError(t, err)
		dm.inputs[in.ID()] = in
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go dm.Run(ctx)
	waitDone(t, dm)
}
