package cpu

import (
	"fmt"

	"github.com/valerio/go-dmgcore/dmg/bit"
)

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

// condition evaluates the branch condition in bits 4-3 of opcode: NZ, Z, NC, C.
func (c *CPU) condition(opcode uint8) bool {
	switch (opcode >> 3) & 0x03 {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}

func (c *CPU) jumpRelative(offset uint8) {
	c.pc += uint16(int16(int8(offset)))
}

func (c *CPU) call(address uint16) {
	c.pushStack(c.pc)
	c.pc = address
}

// illegal reports an opcode the hardware does not define. It executes as a no-op.
func (c *CPU) illegal() {
	c.logger.Warn("illegal opcode",
		"opcode", fmt.Sprintf("0x%02X", c.opcode),
		"pc", fmt.Sprintf("0x%04X", c.pc-1),
	)
}

// execute runs the operation on the operand prepared by resolve.
func (c *CPU) execute(op operation) {
	value := uint8(c.fetched)
	// bit index for BIT/RES/SET
	index := (c.opcode >> 3) & 0x07

	switch op {
	case opNop:
	case opIllegal:
		c.illegal()
	case opHalt:
		c.halted = true
	case opStop:
		c.stopped = true
		c.bus.ResetDivider()
		c.logger.Debug("cpu stopped", "pc", fmt.Sprintf("0x%04X", c.pc))
	case opDI:
		c.ime = false
		c.imeScheduled = false
	case opEI:
		c.imeScheduled = true

	// loads
	case opLoad8:
		c.store8(value)
	case opLoad16:
		c.store16(c.fetched)
	case opLoadHLSP:
		c.setHL(c.spPlusOffset(value))
	case opPush:
		c.pushStack(c.fetched)
	case opPop:
		c.store16(c.popStack())

	// 8 bit arithmetic and logic
	case opAdd:
		c.addToA(value, 0)
	case opAdc:
		c.addToA(value, c.carry())
	case opSub:
		c.a = c.subFromA(value, 0)
	case opSbc:
		c.a = c.subFromA(value, c.carry())
	case opCp:
		c.subFromA(value, 0)
	case opAnd:
		c.and(value)
	case opXor:
		c.xor(value)
	case opOr:
		c.or(value)
	case opInc:
		c.store8(c.inc(value))
	case opDec:
		c.store8(c.dec(value))

	// 16 bit arithmetic
	case opInc16:
		c.store16(c.fetched + 1)
	case opDec16:
		c.store16(c.fetched - 1)
	case opAddHL:
		c.addToHL(c.fetched)
	case opAddSP:
		c.sp = c.spPlusOffset(value)

	// accumulator rotates always clear Z
	case opRlca:
		c.a = c.rlc(c.a)
		c.resetFlag(zeroFlag)
	case opRrca:
		c.a = c.rrc(c.a)
		c.resetFlag(zeroFlag)
	case opRla:
		c.a = c.rl(c.a)
		c.resetFlag(zeroFlag)
	case opRra:
		c.a = c.rr(c.a)
		c.resetFlag(zeroFlag)

	case opDaa:
		c.daa()
	case opCpl:
		c.a = ^c.a
		c.setFlag(subFlag)
		c.setFlag(halfCarryFlag)
	case opScf:
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlag(carryFlag)
	case opCcf:
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))

	// control flow
	case opJr:
		c.jumpRelative(value)
	case opJrCond:
		if c.condition(c.opcode) {
			c.jumpRelative(value)
		}
	case opJp:
		c.pc = c.fetched
	case opJpCond:
		if c.condition(c.opcode) {
			c.pc = c.fetched
		}
	case opJpHL:
		c.pc = c.getHL()
	case opCall:
		c.call(c.fetched)
	case opCallCond:
		if c.condition(c.opcode) {
			c.call(c.fetched)
		}
	case opRet:
		c.pc = c.popStack()
	case opRetCond:
		if c.condition(c.opcode) {
			c.pc = c.popStack()
		}
	case opReti:
		c.pc = c.popStack()
		c.ime = true
	case opRst:
		c.call(uint16(c.opcode & 0x38))

	case opPrefix:
		c.opcode = c.readImmediate()
		c.prefixed = true
		in := prefixed[c.opcode]
		c.resolve(in.mode)
		c.execute(in.op)

	// CB prefixed
	case opRlc:
		c.store8(c.rlc(value))
	case opRrc:
		c.store8(c.rrc(value))
	case opRl:
		c.store8(c.rl(value))
	case opRr:
		c.store8(c.rr(value))
	case opSla:
		c.store8(c.sla(value))
	case opSra:
		c.store8(c.sra(value))
	case opSwap:
		c.store8(c.swap(value))
	case opSrl:
		c.store8(c.srl(value))
	case opBit:
		c.bitTest(index, value)
	case opRes:
		c.store8(bit.Clear(index, value))
	case opSet:
		c.store8(bit.Set(index, value))
	}
}
