package cpu

import "github.com/valerio/go-dmgcore/dmg/bit"

// addToA implements ADD and ADC.
func (c *CPU) addToA(value, carryIn uint8) {
	a := c.a
	sum := uint16(a) + uint16(value) + uint16(carryIn)
	c.a = uint8(sum)
	c.setFlags(c.a == 0, false, bit.HalfCarryAdd(a, value, carryIn), sum > 0xFF)
}

// subFromA computes A - value - carryIn and sets the flags for SUB, SBC and CP.
// The result is returned, storing it is up to the caller.
func (c *CPU) subFromA(value, carryIn uint8) uint8 {
	a := c.a
	diff := int(a) - int(value) - int(carryIn)
	result := uint8(diff)
	c.setFlags(result == 0, true, bit.HalfBorrowSub(a, value, carryIn), diff < 0)
	return result
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlags(c.a == 0, false, true, false)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlags(c.a == 0, false, false, false)
}

// inc sets Z, N and H for an 8 bit increment, C is untouched.
func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x0F)
	return result
}

// dec sets Z, N and H for an 8 bit decrement, C is untouched.
func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x00)
	return result
}

// addToHL implements ADD HL,rr: H from bit 11, C from bit 15, Z untouched.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	sum := uint32(hl) + uint32(value)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, sum > 0xFFFF)
	c.setHL(uint16(sum))
}

// spPlusOffset computes SP + e for ADD SP,e and LD HL,SP+e. The flags come
// from the unsigned addition of the low byte: Z and N are always clear.
func (c *CPU) spPlusOffset(e uint8) uint16 {
	offset := uint16(int16(int8(e)))
	result := c.sp + offset

	low := uint8(c.sp)
	c.setFlags(false, false, bit.HalfCarryAdd(low, e, 0), uint16(low)+uint16(e) > 0xFF)
	return result
}

// daa adjusts A after a BCD addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	carry := c.isSetFlag(carryFlag)

	if !c.isSetFlag(subFlag) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

// rotate and shift helpers return the result and set all four flags with Z
// taken from the result. The accumulator forms (RLCA etc.) clear Z afterwards.

func (c *CPU) rlc(value uint8) uint8 {
	out := value >> 7
	result := value<<1 | out
	c.setFlags(result == 0, false, false, out == 1)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	out := value & 0x01
	result := value>>1 | out<<7
	c.setFlags(result == 0, false, false, out == 1)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.carry()
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.carry()<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

// bitTest implements BIT n: Z is the complement of the bit, H set, C untouched.
func (c *CPU) bitTest(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}
