package vm_test

import (
	"testing"

	"github.com/lookbusy1344/rv32sim/vm"
	"github.com/stretchr/testify/assert"
)

func TestCSR_StringAndParse(t *testing.T) {
	assert.Equal(t, "mstatus", vm.MSTATUS.String())
	assert.Equal(t, "invalid", vm.CSR(0x999).String())

	c, ok := vm.ParseCSRName("mtvec")
	assert.True(t, ok)
	assert.Equal(t, vm.MTVEC, c)

	_, ok = vm.ParseCSRName("not-a-csr")
	assert.False(t, ok)
}

func TestCSR_IsValidAndWriteable(t *testing.T) {
	assert.True(t, vm.MSTATUS.IsValid())
	assert.False(t, vm.CSR(0x999).IsValid())

	assert.False(t, vm.MVENDORID.IsWriteable())
	assert.False(t, vm.MARCHID.IsWriteable())
	assert.False(t, vm.MIMPID.IsWriteable())
	assert.False(t, vm.MHARTID.IsWriteable())
	assert.True(t, vm.MSTATUS.IsWriteable())
	assert.True(t, vm.MISA.IsWriteable())
}

func TestCSRFile_HardWiredReads(t *testing.T) {
	f := vm.NewCSRFile()
	assert.Equal(t, uint32(0), f.Read(vm.MVENDORID))
	assert.Equal(t, uint32(0), f.Read(vm.MARCHID))
	assert.Equal(t, uint32(0x20190200), f.Read(vm.MIMPID))
	assert.Equal(t, uint32(0), f.Read(vm.MHARTID))
	assert.Equal(t, uint32(0x40100100), f.Read(vm.MISA))
}

func TestCSRFile_MISAWriteIsDiscarded(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MISA, 0xFFFFFFFF, true)
	assert.Equal(t, uint32(0x40100100), f.Read(vm.MISA))
}

func TestCSRFile_MSTATUS_OnlyMIEMPIEMPPSurvive(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MSTATUS, 0xFFFFFFFF, true)
	got := f.Read(vm.MSTATUS)

	// bit1(MIE)=bit pos 4 (0-based 3), bit(MPIE)=pos 8 (0-based 7),
	// MPP bits 12-13 (0-based 11-12).
	want := uint32(0)
	want |= 1 << 3  // MIE
	want |= 1 << 7  // MPIE
	want |= 0b11 << 11 // MPP
	assert.Equal(t, want, got)
}

func TestCSRFile_MTVEC_Bit1HardwiredZero(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MTVEC, 0xFFFFFFFF, true)
	got := f.Read(vm.MTVEC)
	assert.Equal(t, uint32(0), vm.GetBit(got, 2))
}

func TestCSRFile_MTVEC_VectoredModeClearsLowOffsetBits(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MTVEC, 0xFFFFFFF9, true) // mode bits = 01 (vectored)
	got := f.Read(vm.MTVEC)
	assert.Equal(t, uint32(1), got&0b11)
	assert.Equal(t, uint32(0), got&(0b11111<<2))
}

func TestCSRFile_MEPC_Bits1And2ForcedZero(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MEPC, 0xFFFFFFFF, true)
	got := f.Read(vm.MEPC)
	assert.Equal(t, uint32(0xFFFFFFFC), got)
}

func TestCSRFile_MCAUSE_MaskedToExceptionOrInterruptBits(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MCAUSE, 0xFFFFFFFF, true)
	assert.Equal(t, uint32(0x8000000F), f.Read(vm.MCAUSE))
}

func TestCSRFile_MIP_InstructionWritesCannotSetMachineBits(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MIP, 0, false) // direct write sets MSIP/MTIP/MEIP = 0 first
	f.Write(vm.MIP, 0xFFFFFFFF, true)
	got := f.Read(vm.MIP)

	assert.Equal(t, uint32(0), vm.GetBit(got, 4))  // MSIP unaffected by instruction write
	assert.Equal(t, uint32(1), vm.GetBit(got, 1))  // USIP settable by instruction write
}

func TestCSRFile_MIP_DirectWriteSetsMachineBits(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MIP, 0xFFFFFFFF, false)
	got := f.Read(vm.MIP)
	assert.Equal(t, uint32(1), vm.GetBit(got, 4)) // MSIP
	assert.Equal(t, uint32(1), vm.GetBit(got, 8)) // MTIP
	assert.Equal(t, uint32(1), vm.GetBit(got, 12)) // MEIP
}

func TestCSRFile_Reset(t *testing.T) {
	f := vm.NewCSRFile()
	f.Write(vm.MSCRATCH, 0xDEADBEEF, true)
	f.Reset()
	assert.Equal(t, uint32(0), f.Read(vm.MSCRATCH))
}
