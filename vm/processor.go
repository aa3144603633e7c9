package vm

import "fmt"

// controlFlowInstrs are the instructions whose executor fully resolves the
// next PC itself (including the "not taken" case for branches, which sets
// PC to its own PC+4). The step loop's unconditional PC += 4 only applies
// to every other, non-control-flow instruction on a successful step. This
// is the idiomatic refactor in place of the source's "target - 4"
// compensation idiom; the two are observably identical.
var controlFlowInstrs = map[InstrID]bool{
	JAL: true, JALR: true, MRET: true,
	BEQ: true, BNE: true, BLT: true, BGE: true, BLTU: true, BGEU: true,
}

// Processor aggregates all owned simulator state: register file, CSR file,
// PC, privilege, breakpoint, instruction counter, and the memory it
// exclusively uses. The command interface (a debugger REPL, a test) drives
// the simulator entirely through this value's methods.
type Processor struct {
	Regs      RegisterFile
	CSR       *CSRFile
	Memory    *Memory
	PC        uint32
	Privilege Privilege
	Breakpt   Breakpoint

	// TwoStage selects between single-stage mode (ECALL/EBREAK/UNKNOWN/CSR
	// instructions print a diagnostic and succeed) and two-stage mode
	// (they raise their architectural trap).
	TwoStage bool

	instructionCount uint64
	lastFaultAddress uint32

	// out receives diagnostic text the command interface would otherwise
	// print directly (single-stage ECALL/EBREAK/UNKNOWN messages,
	// breakpoint-hit notices). Defaults to nowhere; set via SetOutput.
	out func(string)
}

// NewProcessor returns a Processor with a fresh register file, CSR file,
// and memory, PC at 0, and privilege Machine.
func NewProcessor() *Processor {
	return &Processor{
		CSR:       NewCSRFile(),
		Memory:    NewMemory(),
		PC:        0,
		Privilege: Machine,
	}
}

// SetOutput installs the sink used for diagnostic text printed by single-
// stage ECALL/EBREAK/UNKNOWN handling and breakpoint-hit notices.
func (p *Processor) SetOutput(fn func(string)) {
	p.out = fn
}

func (p *Processor) logf(format string, args ...any) {
	if p.out != nil {
		p.out(fmt.Sprintf(format, args...))
	}
}

// Reset returns the processor to its startup state. Memory is not cleared;
// ResetAll additionally clears memory.
func (p *Processor) Reset() {
	p.Regs.Reset()
	p.CSR.Reset()
	p.PC = 0
	p.Privilege = Machine
	p.Breakpt = Breakpoint{}
	p.instructionCount = 0
}

// ResetAll resets processor state and clears memory.
func (p *Processor) ResetAll() {
	p.Reset()
	p.Memory.Reset()
}

// Execute runs the step loop up to n times. If checkBreakpoints is true and
// an active breakpoint's address equals PC before fetch, execution stops
// immediately (PC is not advanced) and a notice is emitted via the output
// sink; the breakpoint-triggered return does not count as a trap.
func (p *Processor) Execute(n int, checkBreakpoints bool) {
	for i := 0; i < n; i++ {
		if interrupt := p.pollInterrupt(); interrupt != Success {
			p.takeTrap(interrupt, p.PC)
			continue
		}

		if !AddressIsWordAligned(p.PC) {
			p.takeTrap(InstructionAddressMisaligned, p.PC)
			continue
		}

		if checkBreakpoints && p.Breakpt.Active && p.Breakpt.Address == p.PC {
			p.logf("Breakpoint reached at %08X", p.PC)
			return
		}

		pc := p.PC
		word := p.Memory.ReadWord(pc)
		inst := Decode(word)
		result := p.execute(inst)

		if result == Success {
			p.instructionCount++
			if !controlFlowInstrs[inst.ID] {
				p.PC = pc + 4
			}
			continue
		}

		p.takeTrap(result, pc)
	}
}

// --- Command-interface operations ---

// ShowPC returns the 8-hex-digit rendering of PC.
func (p *Processor) ShowPC() string {
	return fmt.Sprintf("%08X", p.PC)
}

// SetPC sets PC.
func (p *Processor) SetPC(value uint32) {
	p.PC = value
}

// ShowReg returns the value of register i (0..31).
func (p *Processor) ShowReg(i int) uint32 {
	return p.Regs.Get(i)
}

// SetReg sets register i (0..31); writes to x0 are a no-op.
func (p *Processor) SetReg(i int, v uint32) {
	p.Regs.Set(i, v)
}

// SetBreakpoint sets the single breakpoint to addr and activates it.
func (p *Processor) SetBreakpoint(addr uint32) {
	p.Breakpt = Breakpoint{Address: addr, Active: true}
}

// ClearBreakpoint deactivates the breakpoint.
func (p *Processor) ClearBreakpoint() {
	p.Breakpt.Active = false
}

// ShowCSR returns ("Illegal CSR number", false) for an invalid code, or the
// 8-hex-digit rendering of the CSR's value.
func (p *Processor) ShowCSR(code uint16) (string, bool) {
	c := CSR(code)
	if !c.IsValid() {
		return "Illegal CSR number", false
	}
	return fmt.Sprintf("%08X", p.CSR.Read(c)), true
}

// SetCSR writes value to the CSR named by code. fromInstr selects the MIP
// write discipline (see CSRFile.Write); the command interface always calls
// this with fromInstr=false.
func (p *Processor) SetCSR(code uint16, value uint32, fromInstr bool) {
	c := CSR(code)
	if !c.IsValid() {
		return
	}
	p.CSR.Write(c, value, fromInstr)
}

// ShowPrv returns the current privilege level.
func (p *Processor) ShowPrv() Privilege {
	return p.Privilege
}

// SetPrv sets the privilege level. level must be User or Machine.
func (p *Processor) SetPrv(level Privilege) {
	if level != User && level != Machine {
		return
	}
	p.Privilege = level
}

// GetInstructionCount returns the number of successfully retired
// instructions since the last Reset.
func (p *Processor) GetInstructionCount() uint64 {
	return p.instructionCount
}
