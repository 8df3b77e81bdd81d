package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/zbh255/bilog"
)

var (
	file    *os.File
	logger  bilog.Logger
	mu      sync.Mutex
	enabled bool
)

// Enable starts debug logging to ~/.config/go-seqevent/debug.log
func Enable() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return EnableFile(filepath.Join(homeDir, ".config", "go-seqevent", "debug.log"))
}

// EnableFile starts debug logging to path, truncating it
func EnableFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	start(f)
	return nil
}

// EnableWriter logs to w instead of a file
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return
	}
	start(w)
}

// caller holds mu
func start(w io.Writer) {
	// No buffering so lines land even if we crash
	logger = bilog.NewLogger(w, bilog.DEBUG, bilog.WithTimes(), bilog.WithCaller(),
		bilog.WithTopBuffer(0), bilog.WithLowBuffer(0))
	enabled = true

	// Write directly (can't call Log - we hold the mutex)
	logger.Debug(line("debug", "=== Debug logging started ==="))
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Enabled reports whether logging is on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}

	logger.Debug(line(category, fmt.Sprintf(format, args...)))
	if file != nil {
		file.Sync() // flush immediately so we see logs even on crash
	}
}

// Error logs err under category
func Error(category string, err error) {
	if err == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}
	logger.ErrorFromErr(fmt.Errorf("%-10s %w", category, err))
	if file != nil {
		file.Sync()
	}
}

func line(category, msg string) string {
	return fmt.Sprintf("%-10s %s", category, msg)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
