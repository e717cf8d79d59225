package cpu

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
)

// readImmediate returns the byte at PC and advances it.
func (c *CPU) readImmediate() uint8 {
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// readImmediateWord returns the little endian word at PC and advances it.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// operand reads r and returns the destination that writes it back.
// (HL) becomes a memory destination fixed at the current HL.
func (c *CPU) operand(r reg8) (uint16, destination) {
	if r == regHLIndirect {
		address := c.getHL()
		return uint16(c.bus.Read(address)), toAddress(address)
	}
	return uint16(c.get8(r)), toRegister(r)
}

// target returns the destination for r without reading it.
func (c *CPU) target(r reg8) destination {
	if r == regHLIndirect {
		return toAddress(c.getHL())
	}
	return toRegister(r)
}

// resolve fetches the operand of the current instruction into c.fetched and
// picks its destination, consuming immediates from the instruction stream.
func (c *CPU) resolve(mode addressingMode) {
	op := c.opcode
	srcReg := reg8(op & 0x07)
	midReg := reg8((op >> 3) & 0x07)
	pairIndex := (op >> 4) & 0x03

	switch mode {
	case modeImplied:
		c.dest = destination{}
	case modeRegToReg:
		c.fetched, _ = c.operand(srcReg)
		c.dest = c.target(midReg)
	case modeImm8ToReg:
		c.fetched = uint16(c.readImmediate())
		c.dest = c.target(midReg)
	case modeIndirectToA:
		c.fetched = uint16(c.bus.Read(c.indirectAddress(indirect(pairIndex))))
		c.dest = toRegister(regA)
	case modeAToIndirect:
		c.fetched = uint16(c.a)
		c.dest = toAddress(c.indirectAddress(indirect(pairIndex)))
	case modeAbsToA:
		c.fetched = uint16(c.bus.Read(c.readImmediateWord()))
		c.dest = toRegister(regA)
	case modeAToAbs:
		c.fetched = uint16(c.a)
		c.dest = toAddress(c.readImmediateWord())
	case modeZeroPageToA:
		c.fetched = uint16(c.bus.Read(addr.ZeroPage + uint16(c.readImmediate())))
		c.dest = toRegister(regA)
	case modeAToZeroPage:
		c.fetched = uint16(c.a)
		c.dest = toAddress(addr.ZeroPage + uint16(c.readImmediate()))
	case modeZeroPageCToA:
		c.fetched = uint16(c.bus.Read(addr.ZeroPage + uint16(c.c)))
		c.dest = toRegister(regA)
	case modeAToZeroPageC:
		c.fetched = uint16(c.a)
		c.dest = toAddress(addr.ZeroPage + uint16(c.c))
	case modeImm16ToPair:
		c.fetched = c.readImmediateWord()
		c.dest = toPair(pairsR16[pairIndex])
	case modeSPToAbs:
		c.fetched = c.sp
		c.dest = toAddress(c.readImmediateWord())
	case modeHLToSP:
		c.fetched = c.getHL()
		c.dest = toPair(pairSP)
	case modePairToStack:
		c.fetched = c.get16(pairsStack[pairIndex])
		c.dest = destination{}
	case modeStackToPair:
		c.dest = toPair(pairsStack[pairIndex])
	case modeReg:
		c.fetched, c.dest = c.operand(srcReg)
	case modeMidReg:
		c.fetched, c.dest = c.operand(midReg)
	case modeImm8:
		c.fetched = uint16(c.readImmediate())
		c.dest = destination{}
	case modeImm16:
		c.fetched = c.readImmediateWord()
		c.dest = destination{}
	case modePair:
		r := pairsR16[pairIndex]
		c.fetched = c.get16(r)
		c.dest = toPair(r)
	}
}
