package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// IsSet16 is IsSet for 16 bit values.
func IsSet16(index uint8, value uint16) bool {
	return ((value >> index) & 1) == 1
}

// Set will return the passed byte with the bit at the specified index set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Clear will return the passed byte with the bit at the specified index set to 0.
func Clear(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// ToUint8 returns 1 for true and 0 for false.
func ToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// HalfCarryAdd reports whether adding a, b and carry produces a carry out of bit 3.
func HalfCarryAdd(a, b, carry uint8) bool {
	return (a&0x0F)+(b&0x0F)+carry > 0x0F
}

// HalfBorrowSub reports whether a - b - carry borrows from bit 4.
func HalfBorrowSub(a, b, carry uint8) bool {
	return int(a&0x0F)-int(b&0x0F)-int(carry) < 0
}

// ExtractBits extracts bits from highBit to lowBit (inclusive)
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (extracts bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> lowBit) & mask
}
