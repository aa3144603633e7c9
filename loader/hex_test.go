package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/rv32sim/loader"
	"github.com/lookbusy1344/rv32sim/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHexFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "image.hex")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadHexFile_DataRecordPopulatesMemory(t *testing.T) {
	// one data record: 4 bytes 11 22 33 44 at address 0x0000, then EOF.
	path := writeHexFile(t, ":0400000011223344CC\n:00000001FF\n")
	mem := vm.NewMemory()

	start, err := loader.LoadHexFile(path, mem)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), start)
	// byte at address 0 lands in bits 7..0 (little-endian byte lanes).
	assert.Equal(t, uint32(0x44332211), mem.ReadWord(0))
}

func TestLoadHexFile_StartLinearAddressRecord(t *testing.T) {
	path := writeHexFile(t, ":0400000500008000F1\n:00000001FF\n")
	mem := vm.NewMemory()

	start, err := loader.LoadHexFile(path, mem)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8000), start)
}

func TestLoadHexFile_MissingEndOfFileIsError(t *testing.T) {
	path := writeHexFile(t, ":0400000011223344CC\n")
	mem := vm.NewMemory()

	_, err := loader.LoadHexFile(path, mem)
	assert.Error(t, err)
}

func TestLoadHexFile_BadLeadingCharacterIsError(t *testing.T) {
	path := writeHexFile(t, "0400000011223344CC\n:00000001FF\n")
	mem := vm.NewMemory()

	_, err := loader.LoadHexFile(path, mem)
	assert.Error(t, err)
}

func TestLoadHexFile_MissingFileIsError(t *testing.T) {
	mem := vm.NewMemory()
	_, err := loader.LoadHexFile(filepath.Join(t.TempDir(), "nope.hex"), mem)
	assert.Error(t, err)
}

func TestLoadHexFile_ExtendedSegmentAddressShiftsSubsequentLoads(t *testing.T) {
	// extended segment address 0x1000 (shifted left 4 = 0x10000 base);
	// then a data record at offset 0x0010 -> load address 0x10010.
	path := writeHexFile(t, ":020000021000EC\n:0400100011223344CC\n:00000001FF\n")
	mem := vm.NewMemory()

	_, err := loader.LoadHexFile(path, mem)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x44332211), mem.ReadWord(0x10010))
}
