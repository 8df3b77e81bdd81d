package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-seqevent/config"
	"go-seqevent/midi"
	"go-seqevent/seq"
)

const portTimeout = 3 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "dump":
		dumpEvent()
	case "send":
		sendNote(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Sequencer Event Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List all MIDI ports")
	fmt.Println("  dump                 - Encode a tick-stamped note on and print its bytes")
	fmt.Println("  send [pattern] [key] - Send note on/off to the first matching output")
}

func listPorts() {
	fmt.Println("=== MIDI Ports ===")
	fmt.Printf("(waiting up to %s...)\n", portTimeout)

	ins, outs, err := midi.Ports(portTimeout)
	if err != nil {
		fmt.Printf("\nError: %v\n", err)
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}

	fmt.Println("\n=== MIDI Input Ports ===")
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func dumpEvent() {
	ev, err := seq.NewEvent(seq.DefaultAllocator)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer ev.Free()

	err = ev.SetCommon(seq.Common{
		Type:      seq.EventNoteOn,
		Flags:     seq.TimeStampTick,
		Queue:     1,
		Timestamp: 1000,
		Dest:      seq.Addr{Client: 2},
	})
	if err == nil {
		err = ev.SetNote(seq.Note{Note: 60, Velocity: 127, Duration: 480})
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	wire, err := ev.MarshalBinary()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(ev.String())
	fmt.Printf("% x\n", wire)
}

func sendNote(args []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	pattern := cfg.Output.PortName
	if len(args) > 0 {
		pattern = args[0]
	}
	key := uint8(60)
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 127 {
			fmt.Printf("Bad note %q\n", args[1])
			return
		}
		key = uint8(n)
	}

	out, err := midi.FindOut(pattern, portTimeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Using output: %s\n", out.String())

	sink, err := midi.NewPortSink(out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	alloc, closeAlloc, err := cfg.Allocator()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer closeAlloc()

	output, err := midi.NewOutput(alloc, sink, midi.OutputConfig{
		SourcePort: int32(cfg.Output.SourcePort),
		Queue:      int32(cfg.Output.Queue),
		Immediate:  true,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer output.Close()

	fmt.Printf("Sending note %d\n", key)
	if err := output.Enqueue(gomidi.NoteOn(0, key, 100), 0); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	time.Sleep(500 * time.Millisecond)
	if err := output.Enqueue(gomidi.NoteOff(0, key), 0); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Done!")
}
