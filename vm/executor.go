package vm

// execute applies the effects of the decoded instruction against p's
// register file, PC, memory, and CSR file, returning the outcome. For
// ordinary instructions it leaves PC alone; the step loop (processor.go)
// advances it after a successful, non-trapping step. Branches, jumps, and
// MRET set p.PC themselves: to their true target, or to PC+4 for a branch
// that is not taken and for MRET in single-stage mode.
func (p *Processor) execute(inst Instruction) ExecResult {
	switch inst.ID {

	case LUI:
		p.Regs.Set(inst.RD(), inst.ImmU())
		return Success

	case AUIPC:
		p.Regs.Set(inst.RD(), p.PC+inst.ImmU())
		return Success

	case JAL:
		p.Regs.Set(inst.RD(), p.PC+4)
		p.PC = p.PC + inst.ImmJOffset()
		return Success

	case JALR:
		target := (p.Regs.Get(inst.RS1()) + inst.ImmI()) &^ 1
		p.Regs.Set(inst.RD(), p.PC+4)
		p.PC = target
		return Success

	case BEQ, BNE, BLT, BGE, BLTU, BGEU:
		return p.executeBranch(inst)

	case LB, LH, LW, LBU, LHU:
		return p.executeLoad(inst)

	case SB, SH, SW:
		return p.executeStore(inst)

	case ADDI:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())+inst.ImmI())
		return Success
	case SLTI:
		p.Regs.Set(inst.RD(), boolToWord(int32(p.Regs.Get(inst.RS1())) < int32(inst.ImmI())))
		return Success
	case SLTIU:
		p.Regs.Set(inst.RD(), boolToWord(p.Regs.Get(inst.RS1()) < inst.ImmI()))
		return Success
	case XORI:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())^inst.ImmI())
		return Success
	case ORI:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())|inst.ImmI())
		return Success
	case ANDI:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())&inst.ImmI())
		return Success

	case SLLI:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())<<inst.Shamt())
		return Success
	case SRLI:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())>>inst.Shamt())
		return Success
	case SRAI:
		p.Regs.Set(inst.RD(), uint32(int32(p.Regs.Get(inst.RS1()))>>inst.Shamt()))
		return Success

	case ADD:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())+p.Regs.Get(inst.RS2()))
		return Success
	case SUB:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())-p.Regs.Get(inst.RS2()))
		return Success
	case SLL:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())<<(p.Regs.Get(inst.RS2())&0x1F))
		return Success
	case SLT:
		p.Regs.Set(inst.RD(), boolToWord(int32(p.Regs.Get(inst.RS1())) < int32(p.Regs.Get(inst.RS2()))))
		return Success
	case SLTU:
		p.Regs.Set(inst.RD(), boolToWord(p.Regs.Get(inst.RS1()) < p.Regs.Get(inst.RS2())))
		return Success
	case XOR:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())^p.Regs.Get(inst.RS2()))
		return Success
	case SRL:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())>>(p.Regs.Get(inst.RS2())&0x1F))
		return Success
	case SRA:
		p.Regs.Set(inst.RD(), uint32(int32(p.Regs.Get(inst.RS1()))>>(p.Regs.Get(inst.RS2())&0x1F)))
		return Success
	case OR:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())|p.Regs.Get(inst.RS2()))
		return Success
	case AND:
		p.Regs.Set(inst.RD(), p.Regs.Get(inst.RS1())&p.Regs.Get(inst.RS2()))
		return Success

	case FENCE:
		// No memory ordering modeled; a no-op.
		return Success

	case ECALL:
		return p.executeEcall()

	case EBREAK:
		return p.executeEbreak()

	case CSRRW, CSRRS, CSRRC, CSRRWI, CSRRSI, CSRRCI:
		return p.executeCSR(inst)

	case MRET:
		return p.executeMret()

	case UNKNOWN:
		if !p.TwoStage {
			p.logf("Error: illegal instruction")
			return Success
		}
		return IllegalInstruction
	}

	return IllegalInstruction
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (p *Processor) executeBranch(inst Instruction) ExecResult {
	rs1 := p.Regs.Get(inst.RS1())
	rs2 := p.Regs.Get(inst.RS2())

	var taken bool
	switch inst.ID {
	case BEQ:
		taken = rs1 == rs2
	case BNE:
		taken = rs1 != rs2
	case BLT:
		taken = int32(rs1) < int32(rs2)
	case BGE:
		taken = int32(rs1) >= int32(rs2)
	case BLTU:
		taken = rs1 < rs2
	case BGEU:
		taken = rs1 >= rs2
	}

	if taken {
		p.PC = p.PC + inst.ImmBOffset()
	} else {
		p.PC = p.PC + 4
	}
	return Success
}

// executeLoad implements LB/LH/LW/LBU/LHU. Sub-word extraction uses a
// little-endian offset convention: for LB/LBU at offset k the selected byte
// is bits [8k+7:8k] of the containing word. This is the inverse of
// Memory.ReadByte's big-endian-within-word convention (see memory.go); the
// asymmetry is inherited from the source simulator and preserved here.
func (p *Processor) executeLoad(inst Instruction) ExecResult {
	addr := p.Regs.Get(inst.RS1()) + inst.ImmI()

	size := 1
	switch inst.ID {
	case LH, LHU:
		size = 2
	case LW:
		size = 4
	}
	if size > 1 && addr%uint32(size) != 0 {
		p.lastFaultAddress = addr
		return LoadAddressMisaligned
	}

	word := p.Memory.ReadWord(addr)
	offset := addr % 4
	var value uint32

	switch inst.ID {
	case LB:
		b := (word >> (8 * offset)) & 0xFF
		value = SignExtend(b, 8)
	case LBU:
		value = (word >> (8 * offset)) & 0xFF
	case LH:
		h := (word >> (8 * offset)) & 0xFFFF
		value = SignExtend(h, 16)
	case LHU:
		value = (word >> (8 * offset)) & 0xFFFF
	case LW:
		value = word
	}

	p.Regs.Set(inst.RD(), value)
	return Success
}

// executeStore implements SB/SH/SW.
func (p *Processor) executeStore(inst Instruction) ExecResult {
	addr := p.Regs.Get(inst.RS1()) + inst.ImmS()

	size := 1
	switch inst.ID {
	case SH:
		size = 2
	case SW:
		size = 4
	}
	if size > 1 && addr%uint32(size) != 0 {
		p.lastFaultAddress = addr
		return StoreAddressMisaligned
	}

	offset := addr % 4
	rs2 := p.Regs.Get(inst.RS2())

	var sizeMask uint32
	switch inst.ID {
	case SB:
		sizeMask = 0xFF
	case SH:
		sizeMask = 0xFFFF
	case SW:
		sizeMask = 0xFFFFFFFF
	}

	mask := sizeMask << (8 * offset)
	data := (rs2 & sizeMask) << (8 * offset)
	p.Memory.WriteWord(addr, data, mask)
	return Success
}

func (p *Processor) executeEcall() ExecResult {
	if !p.TwoStage {
		p.logf("ecall: not implemented")
		return Success
	}
	if p.Privilege == Machine {
		return EcallFromMachineMode
	}
	return EcallFromUserMode
}

func (p *Processor) executeEbreak() ExecResult {
	if !p.TwoStage {
		p.logf("ebreak: not implemented")
		return Success
	}
	return BreakpointException
}

func (p *Processor) executeCSR(inst Instruction) ExecResult {
	if !p.TwoStage {
		return Success
	}

	csr := inst.CSRField()
	if !csr.IsValid() {
		return IllegalInstruction
	}

	writeCapable := p.Privilege == Machine && csr.IsWriteable()

	rd := inst.RD()

	switch inst.ID {
	case CSRRW, CSRRWI:
		if !writeCapable {
			return IllegalInstruction
		}
		old := p.CSR.Read(csr)
		var newValue uint32
		if inst.ID == CSRRWI {
			newValue = inst.Zimm()
		} else {
			newValue = p.Regs.Get(inst.RS1())
		}
		p.CSR.Write(csr, newValue, true)
		if rd != 0 {
			p.Regs.Set(rd, old)
		}
		return Success

	case CSRRS, CSRRSI:
		rs1Field := inst.RS1()
		if rs1Field != 0 && !writeCapable {
			return IllegalInstruction
		}
		old := p.CSR.Read(csr)
		p.Regs.Set(rd, old)
		if rs1Field != 0 {
			var maskVal uint32
			if inst.ID == CSRRSI {
				maskVal = inst.Zimm()
			} else {
				maskVal = p.Regs.Get(rs1Field)
			}
			p.CSR.Write(csr, old|maskVal, true)
		}
		return Success

	case CSRRC, CSRRCI:
		rs1Field := inst.RS1()
		if rs1Field != 0 && !writeCapable {
			return IllegalInstruction
		}
		old := p.CSR.Read(csr)
		p.Regs.Set(rd, old)
		if rs1Field != 0 {
			var maskVal uint32
			if inst.ID == CSRRCI {
				maskVal = inst.Zimm()
			} else {
				maskVal = p.Regs.Get(rs1Field)
			}
			p.CSR.Write(csr, old&^maskVal, true)
		}
		return Success
	}

	return IllegalInstruction
}

func (p *Processor) executeMret() ExecResult {
	if !p.TwoStage {
		p.PC += 4
		return Success
	}
	if p.Privilege != Machine {
		return IllegalInstruction
	}

	mepc := p.CSR.Read(MEPC)
	p.PC = mepc

	mstatus := p.CSR.Read(MSTATUS)
	mpie := GetBit(mstatus, bitMPIE)
	mpp := Privilege((mstatus >> 11) & 0b11)

	mstatus = SetBit(mstatus, bitMIE, mpie)
	mstatus = SetBit(mstatus, bitMPIE, 1)
	mstatus = SetBits(mstatus, bitMPPLo, bitMPPHi, uint32(User))
	p.CSR.Write(MSTATUS, mstatus, true)

	p.Privilege = mpp

	return Success
}
