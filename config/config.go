package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"go-seqevent/seq"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "GO_SEQEVENT_"

// ArenaConfig sizes the off-heap event arena. Slots == 0 uses the Go heap.
type ArenaConfig struct {
	Slots    int `json:"slots,omitempty" env:"SLOTS"`
	SlotSize int `json:"slotSize,omitempty" env:"SLOT_SIZE"`
}

// OutputConfig defines where and how events are sent
type OutputConfig struct {
	PortName   string `json:"portName,omitempty" env:"PORT"`
	SourcePort int    `json:"sourcePort,omitempty" env:"SOURCE_PORT"`
	Queue      int    `json:"queue,omitempty" env:"QUEUE"`
	Immediate  bool   `json:"immediate,omitempty" env:"IMMEDIATE"`
	HandleMeta bool   `json:"handleMeta,omitempty" env:"HANDLE_META"`
}

// InputConfig selects which input ports the monitor opens
type InputConfig struct {
	PortPattern string `json:"portPattern,omitempty" env:"PORT_PATTERN"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty" env:"PALETTE"` // GIMP .gpl file, empty = built in
	MaxRows int    `json:"maxRows,omitempty" env:"MAX_ROWS"`
}

// Config is the main configuration structure
type Config struct {
	Arena  ArenaConfig  `json:"arena,omitempty" envPrefix:"ARENA_"`
	Output OutputConfig `json:"output,omitempty" envPrefix:"OUTPUT_"`
	Input  InputConfig  `json:"input,omitempty" envPrefix:"INPUT_"`
	UI     UIConfig     `json:"ui,omitempty" envPrefix:"UI_"`
	Debug  bool         `json:"debug,omitempty" env:"DEBUG"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			Slots:    256,
			SlotSize: 512,
		},
		Output: OutputConfig{
			Queue: 0,
		},
		UI: UIConfig{
			MaxRows: 20,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-seqevent"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk (or defaults if not found) and applies
// environment overrides
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := DefaultConfig()
		return cfg, cfg.ApplyEnv()
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit path
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from GO_SEQEVENT_* variables
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks ranges the sequencer cannot represent
func (c *Config) Validate() error {
	if c.Arena.Slots < 0 || c.Arena.SlotSize < 0 {
		return fmt.Errorf("arena: negative size %dx%d", c.Arena.Slots, c.Arena.SlotSize)
	}
	if c.Arena.Slots > 0 && c.Arena.SlotSize < seq.RecordSize {
		return fmt.Errorf("arena: slot size %d cannot hold an event record", c.Arena.SlotSize)
	}
	if c.Output.SourcePort < 0 || c.Output.SourcePort > 255 {
		return fmt.Errorf("output: source port %d out of range", c.Output.SourcePort)
	}
	if c.Output.Queue < 0 || c.Output.Queue > 255 {
		return fmt.Errorf("output: queue %d out of range", c.Output.Queue)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Allocator builds the allocator the arena settings describe. The returned
// close func releases the arena.
func (c *Config) Allocator() (seq.Allocator, func() error, error) {
	if c.Arena.Slots == 0 {
		return seq.HeapAllocator{}, func() error { return nil }, nil
	}
	arena, err := seq.NewArena(c.Arena.Slots, c.Arena.SlotSize)
	if err != nil {
		return nil, nil, err
	}
	return arena, arena.Close, nil
}
