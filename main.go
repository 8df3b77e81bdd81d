package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-seqevent/config"
	"go-seqevent/debug"
	"go-seqevent/midi"
	"go-seqevent/theme"
	"go-seqevent/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Warning: debug log disabled: %v\n", err)
		}
		defer debug.Disable()
	}

	// Event records come from the configured arena, or the heap
	alloc, closeAlloc, err := cfg.Allocator()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Load theme
	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		fmt.Printf("Warning: %v, using built in palette\n", err)
		palette = theme.DefaultPalette()
	}
	th := theme.New(palette)

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.Input.PortPattern, alloc)

	ctx, cancel := context.WithCancel(context.Background())
	go deviceMgr.Run(ctx)

	// Inputs write into allocator memory until the manager has closed them
	stop := func() {
		cancel()
		<-deviceMgr.Done()
		closeAlloc()
	}

	fmt.Println("go-seqevent")
	fmt.Println("Connect MIDI devices any time - they'll be detected automatically")
	fmt.Println("")

	m := tui.NewModel(deviceMgr, th, cfg.UI.MaxRows)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err = p.Run()
	stop()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
