package cpu

import "github.com/valerio/go-dmgcore/dmg/bit"

// reg8 names an 8 bit operand in the order used by the opcode encoding:
// bits 2-0 (source) and bits 5-3 (destination) index this list.
type reg8 uint8

const (
	regB reg8 = iota
	regC
	regD
	regE
	regH
	regL
	regHLIndirect // (HL), the byte in memory at HL
	regA
)

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

func (r reg8) String() string {
	return reg8Names[r&7]
}

// reg16 names a register pair.
type reg16 uint8

const (
	pairBC reg16 = iota
	pairDE
	pairHL
	pairSP
	pairAF
)

// pair tables indexed by opcode bits 5-4
var (
	// LD rr,nn / INC rr / DEC rr / ADD HL,rr
	pairsR16 = [4]reg16{pairBC, pairDE, pairHL, pairSP}
	// PUSH rr / POP rr
	pairsStack = [4]reg16{pairBC, pairDE, pairHL, pairAF}
)

// indirect addressing through a pair: LD (rr),A and LD A,(rr)
type indirect uint8

const (
	indirectBC indirect = iota
	indirectDE
	indirectHLInc // (HL+)
	indirectHLDec // (HL-)
)

func (c *CPU) get8(r reg8) uint8 {
	switch r {
	case regB:
		return c.b
	case regC:
		return c.c
	case regD:
		return c.d
	case regE:
		return c.e
	case regH:
		return c.h
	case regL:
		return c.l
	case regHLIndirect:
		return c.bus.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) set8(r reg8, value uint8) {
	switch r {
	case regB:
		c.b = value
	case regC:
		c.c = value
	case regD:
		c.d = value
	case regE:
		c.e = value
	case regH:
		c.h = value
	case regL:
		c.l = value
	case regHLIndirect:
		c.bus.Write(c.getHL(), value)
	default:
		c.a = value
	}
}

func (c *CPU) get16(r reg16) uint16 {
	switch r {
	case pairBC:
		return c.getBC()
	case pairDE:
		return c.getDE()
	case pairHL:
		return c.getHL()
	case pairSP:
		return c.sp
	default:
		return c.getAF()
	}
}

func (c *CPU) set16(r reg16, value uint16) {
	switch r {
	case pairBC:
		c.setBC(value)
	case pairDE:
		c.setDE(value)
	case pairHL:
		c.setHL(value)
	case pairSP:
		c.sp = value
	default:
		c.setAF(value)
	}
}

// indirectAddress returns the address held by the pair and applies the
// HL post increment/decrement.
func (c *CPU) indirectAddress(i indirect) uint16 {
	switch i {
	case indirectBC:
		return c.getBC()
	case indirectDE:
		return c.getDE()
	case indirectHLInc:
		hl := c.getHL()
		c.setHL(hl + 1)
		return hl
	default:
		hl := c.getHL()
		c.setHL(hl - 1)
		return hl
	}
}

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f) }
func (c *CPU) getBC() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) getDE() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) getHL() uint16 { return bit.Combine(c.h, c.l) }

// setAF drops the low nibble of F, it does not exist in hardware.
func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) carry() uint8 {
	return bit.ToUint8(c.isSetFlag(carryFlag))
}

// setFlags writes all four flags at once.
func (c *CPU) setFlags(z, n, h, cy bool) {
	c.f = bit.ToUint8(z)<<7 | bit.ToUint8(n)<<6 | bit.ToUint8(h)<<5 | bit.ToUint8(cy)<<4
}

// destKind tags what a destination refers to.
type destKind uint8

const (
	destNone destKind = iota
	destRegister
	destPair
	destAddress
)

// destination is where the current instruction stores its result, picked
// by the addressing mode and consumed by the operation.
type destination struct {
	kind    destKind
	reg     reg8
	pair    reg16
	address uint16
}

func toRegister(r reg8) destination {
	return destination{kind: destRegister, reg: r}
}

func toPair(r reg16) destination {
	return destination{kind: destPair, pair: r}
}

func toAddress(address uint16) destination {
	return destination{kind: destAddress, address: address}
}

func (c *CPU) store8(value uint8) {
	switch c.dest.kind {
	case destRegister:
		c.set8(c.dest.reg, value)
	case destAddress:
		c.bus.Write(c.dest.address, value)
	}
}

func (c *CPU) store16(value uint16) {
	switch c.dest.kind {
	case destPair:
		c.set16(c.dest.pair, value)
	case destAddress:
		c.bus.Write(c.dest.address, bit.Low(value))
		c.bus.Write(c.dest.address+1, bit.High(value))
	}
}
