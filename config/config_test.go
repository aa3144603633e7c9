package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/rv32sim/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, uint64(1_000_000), cfg.Execution.MaxSteps)
	assert.Equal(t, "0x00000000", cfg.Execution.ResetPC)
	assert.Equal(t, 1000, cfg.Debugger.HistorySize)
	assert.True(t, cfg.Debugger.ShowRegistersOnStop)
	assert.Equal(t, "hex", cfg.Debugger.NumberFormat)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_DecodesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rv32sim.toml")
	contents := `
[execution]
max_steps = 42
reset_pc = "0x8000"

[debugger]
history_size = 10
show_registers_on_stop = false
number_format = "dec"

[trap]
default_mtvec = "0x100"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Execution.MaxSteps)
	assert.Equal(t, "0x8000", cfg.Execution.ResetPC)
	assert.Equal(t, 10, cfg.Debugger.HistorySize)
	assert.False(t, cfg.Debugger.ShowRegistersOnStop)
	assert.Equal(t, "dec", cfg.Debugger.NumberFormat)
	assert.Equal(t, "0x100", cfg.Trap.DefaultMTVEC)
}

func TestLoad_MalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not valid [[[ toml"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestParseHexUint32(t *testing.T) {
	v, err := config.ParseHexUint32("0x8000")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8000), v)

	v, err = config.ParseHexUint32("FF")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF), v)

	_, err = config.ParseHexUint32("not-hex")
	assert.Error(t, err)
}
