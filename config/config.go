// Package config loads simulator and debugger settings from an optional
// TOML file, falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the settings decoded from the TOML file. The CLI reads
// Execution.ResetPC, Debugger.HistorySize, and Trap.DefaultMTVEC; the other
// fields are decoded but not used.
type Config struct {
	Execution struct {
		MaxSteps uint64 `toml:"max_steps"`
		ResetPC  string `toml:"reset_pc"`
	} `toml:"execution"`

	Debugger struct {
		HistorySize         int    `toml:"history_size"`
		ShowRegistersOnStop bool   `toml:"show_registers_on_stop"`
		NumberFormat        string `toml:"number_format"` // "hex" or "dec"
	} `toml:"debugger"`

	Trap struct {
		DefaultMTVEC string `toml:"default_mtvec"`
	} `toml:"trap"`
}

// Default returns a Config populated with the simulator's built-in
// defaults.
func Default() *Config {
	cfg := &Config{}

	cfg.Execution.MaxSteps = 1_000_000
	cfg.Execution.ResetPC = "0x00000000"

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegistersOnStop = true
	cfg.Debugger.NumberFormat = "hex"

	cfg.Trap.DefaultMTVEC = "0x00000000"

	return cfg
}

// Load reads path and decodes it over a Default() config. A missing file is
// not an error: Load returns the defaults unchanged. A malformed file is a
// host-side error returned to the caller.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	return cfg, nil
}

// ParseHexUint32 parses a "0x"-prefixed or bare hex string into a uint32,
// as used for Execution.ResetPC and Trap.DefaultMTVEC.
func ParseHexUint32(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid hex value %q: %w", s, err)
	}
	return uint32(v), nil
}
