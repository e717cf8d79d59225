package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// flags as an F value
const (
	fZ = uint8(zeroFlag)
	fN = uint8(subFlag)
	fH = uint8(halfCarryFlag)
	fC = uint8(carryFlag)
)

func TestAccumulatorInstructions(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		a       uint8
		f       uint8
		b       uint8
		h       uint8
		wantA   uint8
		wantF   uint8
	}{
		{desc: "ADD A,B carry out", program: []byte{0x80}, a: 0x3A, b: 0xC6, wantA: 0x00, wantF: fZ | fH | fC},
		{desc: "ADD A,B half carry", program: []byte{0x80}, a: 0x0F, b: 0x01, wantA: 0x10, wantF: fH},
		{desc: "ADC A,d8 with carry", program: []byte{0xCE, 0x1E}, a: 0xE1, f: fC, wantA: 0x00, wantF: fZ | fH | fC},
		{desc: "ADC A,d8 carry into half", program: []byte{0xCE, 0x0F}, a: 0x00, f: fC, wantA: 0x10, wantF: fH},
		{desc: "SUB B equal", program: []byte{0x90}, a: 0x3E, b: 0x3E, wantA: 0x00, wantF: fZ | fN},
		{desc: "SUB B half borrow", program: []byte{0x90}, a: 0x3E, b: 0x0F, wantA: 0x2F, wantF: fN | fH},
		{desc: "SUB d8 borrow", program: []byte{0xD6, 0x40}, a: 0x3E, wantA: 0xFE, wantF: fN | fC},
		{desc: "SBC A,H with carry", program: []byte{0x9C}, a: 0x3B, h: 0x2A, f: fC, wantA: 0x10, wantF: fN},
		{desc: "SBC A,d8 borrow", program: []byte{0xDE, 0x4F}, a: 0x3B, f: fC, wantA: 0xEB, wantF: fN | fH | fC},
		{desc: "CP d8 equal keeps A", program: []byte{0xFE, 0x3C}, a: 0x3C, wantA: 0x3C, wantF: fZ | fN},
		{desc: "CP B less", program: []byte{0xB8}, a: 0x3C, b: 0x40, wantA: 0x3C, wantF: fN | fC},
		{desc: "AND d8", program: []byte{0xE6, 0x38}, a: 0x5A, f: fC, wantA: 0x18, wantF: fH},
		{desc: "XOR A", program: []byte{0xAF}, a: 0xFF, wantA: 0x00, wantF: fZ},
		{desc: "OR d8", program: []byte{0xF6, 0x03}, a: 0x5A, f: fZ | fN | fH | fC, wantA: 0x5B, wantF: 0x00},
		{desc: "INC A wraps keeps carry", program: []byte{0x3C}, a: 0xFF, f: fC, wantA: 0x00, wantF: fZ | fH | fC},
		{desc: "INC A half carry", program: []byte{0x3C}, a: 0x0F, wantA: 0x10, wantF: fH},
		{desc: "DEC A to zero", program: []byte{0x3D}, a: 0x01, wantA: 0x00, wantF: fZ | fN},
		{desc: "DEC A wraps", program: []byte{0x3D}, a: 0x00, f: fC, wantA: 0xFF, wantF: fN | fH | fC},
		{desc: "DAA after addition", program: []byte{0x27}, a: 0x7D, wantA: 0x83, wantF: 0x00},
		{desc: "DAA after subtraction", program: []byte{0x27}, a: 0x4B, f: fN | fH, wantA: 0x45, wantF: fN},
		{desc: "DAA decimal overflow", program: []byte{0x27}, a: 0x9A, wantA: 0x00, wantF: fZ | fC},
		{desc: "DAA with carry after subtraction", program: []byte{0x27}, a: 0xA0, f: fN | fC, wantA: 0x40, wantF: fN | fC},
		{desc: "CPL", program: []byte{0x2F}, a: 0x35, f: fZ | fC, wantA: 0xCA, wantF: fZ | fN | fH | fC},
		{desc: "SCF keeps Z", program: []byte{0x37}, a: 0x00, f: fZ | fN | fH, wantA: 0x00, wantF: fZ | fC},
		{desc: "CCF flips carry", program: []byte{0x3F}, f: fZ | fC, wantA: 0x00, wantF: fZ},
		{desc: "RLCA", program: []byte{0x07}, a: 0x85, wantA: 0x0B, wantF: fC},
		{desc: "RLCA zero result clears Z", program: []byte{0x07}, a: 0x00, f: fZ, wantA: 0x00, wantF: 0x00},
		{desc: "RLA through carry", program: []byte{0x17}, a: 0x95, f: fC, wantA: 0x2B, wantF: fC},
		{desc: "RRCA", program: []byte{0x0F}, a: 0x3B, wantA: 0x9D, wantF: fC},
		{desc: "RRA", program: []byte{0x1F}, a: 0x81, wantA: 0x40, wantF: fC},
		{desc: "SWAP A", program: []byte{0xCB, 0x37}, a: 0xF0, wantA: 0x0F, wantF: 0x00},
		{desc: "SRA A keeps sign", program: []byte{0xCB, 0x2F}, a: 0x8A, wantA: 0xC5, wantF: 0x00},
		{desc: "SRL A to zero", program: []byte{0xCB, 0x3F}, a: 0x01, wantA: 0x00, wantF: fZ | fC},
		{desc: "SLA A", program: []byte{0xCB, 0x27}, a: 0x80, wantA: 0x00, wantF: fZ | fC},
		{desc: "RL A zero sets Z", program: []byte{0xCB, 0x17}, a: 0x80, wantA: 0x00, wantF: fZ | fC},
		{desc: "RR A", program: []byte{0xCB, 0x1F}, a: 0x01, f: fC, wantA: 0x80, wantF: fC},
		{desc: "RRC A", program: []byte{0xCB, 0x0F}, a: 0x01, wantA: 0x80, wantF: fC},
		{desc: "BIT 7,H set", program: []byte{0xCB, 0x7C}, h: 0x80, f: fC, wantA: 0x00, wantF: fH | fC},
		{desc: "BIT 0,A clear", program: []byte{0xCB, 0x47}, a: 0x00, wantA: 0x00, wantF: fZ | fH},
		{desc: "SET 3,A", program: []byte{0xCB, 0xDF}, a: 0x00, wantA: 0x08, wantF: 0x00},
		{desc: "RES 7,A", program: []byte{0xCB, 0xBF}, a: 0xFF, f: fZ, wantA: 0x7F, wantF: fZ},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, bus := newTestCPU(tC.program)
			c.a, c.f, c.b, c.h = tC.a, tC.f, tC.b, tC.h

			runInstructions(t, c, bus, 1)

			assert.Equal(t, tC.wantA, c.a, "A")
			assert.Equal(t, tC.wantF, c.f, "F")
			assert.Equal(t, programStart+uint16(len(tC.program)), c.pc)
		})
	}
}

func TestSixteenBitArithmetic(t *testing.T) {
	t.Run("ADD HL,BC half carry keeps Z", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x09})
		c.setHL(0x8A23)
		c.setBC(0x0605)
		c.f = fZ | fN

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0x9028), c.getHL())
		assert.Equal(t, fZ|fH, c.f)
	})

	t.Run("ADD HL,HL carry", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x29})
		c.setHL(0x8A23)
		c.f = 0

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0x1446), c.getHL())
		assert.Equal(t, fH|fC, c.f)
	})

	testCases := []struct {
		desc   string
		opcode uint8
		sp     uint16
		e      uint8
		want   uint16
		wantF  uint8
	}{
		{desc: "ADD SP,e positive", opcode: 0xE8, sp: 0xFFF8, e: 0x02, want: 0xFFFA, wantF: 0x00},
		{desc: "ADD SP,e negative", opcode: 0xE8, sp: 0x0001, e: 0xFF, want: 0x0000, wantF: fH | fC},
		{desc: "LD HL,SP+e positive", opcode: 0xF8, sp: 0xFFF8, e: 0x02, want: 0xFFFA, wantF: 0x00},
		{desc: "LD HL,SP+e half carry", opcode: 0xF8, sp: 0x000F, e: 0x01, want: 0x0010, wantF: fH},
		{desc: "LD HL,SP+e negative", opcode: 0xF8, sp: 0xD000, e: 0xFE, want: 0xCFFE, wantF: 0x00},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, bus := newTestCPU([]byte{tC.opcode, tC.e})
			c.sp = tC.sp
			c.f = fZ | fN

			runInstructions(t, c, bus, 1)

			if tC.opcode == 0xE8 {
				assert.Equal(t, tC.want, c.sp)
			} else {
				assert.Equal(t, tC.want, c.getHL())
				assert.Equal(t, tC.sp, c.sp)
			}
			assert.Equal(t, tC.wantF, c.f)
		})
	}

	t.Run("INC/DEC rr leave flags", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x03, 0x1B})
		c.setBC(0xFFFF)
		c.setDE(0x0000)
		c.f = fZ | fC

		runInstructions(t, c, bus, 2)

		assert.Equal(t, uint16(0x0000), c.getBC())
		assert.Equal(t, uint16(0xFFFF), c.getDE())
		assert.Equal(t, fZ|fC, c.f)
	})
}

func TestLoads(t *testing.T) {
	t.Run("LD r,r'", func(t *testing.T) {
		// LD B,A ; LD D,B ; LD L,D
		c, bus := newTestCPU([]byte{0x47, 0x50, 0x6A})
		c.a = 0x99

		runInstructions(t, c, bus, 3)

		assert.Equal(t, uint8(0x99), c.b)
		assert.Equal(t, uint8(0x99), c.d)
		assert.Equal(t, uint8(0x99), c.l)
	})

	t.Run("LD (HL),d8 and LD A,(HL)", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x36, 0x5A, 0x7E})
		c.setHL(0xC100)

		runInstructions(t, c, bus, 2)

		assert.Equal(t, byte(0x5A), bus.Read(0xC100))
		assert.Equal(t, uint8(0x5A), c.a)
	})

	t.Run("LD (HL+),A and LD A,(HL-)", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x22, 0x3A})
		c.setHL(0xC100)
		c.a = 0x42

		runInstructions(t, c, bus, 1)
		assert.Equal(t, byte(0x42), bus.Read(0xC100))
		assert.Equal(t, uint16(0xC101), c.getHL())

		bus.Write(0xC101, 0x24)
		runInstructions(t, c, bus, 1)
		assert.Equal(t, uint8(0x24), c.a)
		assert.Equal(t, uint16(0xC100), c.getHL())
	})

	t.Run("LD (DE),A and LD A,(BC)", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x12, 0x0A})
		c.setDE(0xC200)
		c.setBC(0xC300)
		c.a = 0x11
		bus.Write(0xC300, 0x22)

		runInstructions(t, c, bus, 2)

		assert.Equal(t, byte(0x11), bus.Read(0xC200))
		assert.Equal(t, uint8(0x22), c.a)
	})

	t.Run("LDH and LD (C)", func(t *testing.T) {
		// LDH (0x80),A ; LD C,0x81 ; LD (C),A ; LDH A,(0x82)
		c, bus := newTestCPU([]byte{0xE0, 0x80, 0x0E, 0x81, 0xE2, 0xF0, 0x82})
		c.a = 0x77
		bus.Write(0xFF82, 0x33)

		runInstructions(t, c, bus, 4)

		assert.Equal(t, byte(0x77), bus.Read(0xFF80))
		assert.Equal(t, byte(0x77), bus.Read(0xFF81))
		assert.Equal(t, uint8(0x33), c.a)
	})

	t.Run("LD (a16),A and LD A,(a16)", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xEA, 0x00, 0xC4, 0xFA, 0x01, 0xC4})
		c.a = 0x5C
		bus.Write(0xC401, 0xC5)

		runInstructions(t, c, bus, 2)

		assert.Equal(t, byte(0x5C), bus.Read(0xC400))
		assert.Equal(t, uint8(0xC5), c.a)
	})

	t.Run("LD rr,d16 and LD (a16),SP", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x31, 0x34, 0xD2, 0x08, 0x00, 0xC5})

		runInstructions(t, c, bus, 2)

		assert.Equal(t, uint16(0xD234), c.sp)
		assert.Equal(t, byte(0x34), bus.Read(0xC500))
		assert.Equal(t, byte(0xD2), bus.Read(0xC501))
	})

	t.Run("LD SP,HL", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xF9})
		c.setHL(0xD123)

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0xD123), c.sp)
	})

	t.Run("INC (HL) and RES 0,(HL)", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x34, 0xCB, 0x86})
		c.setHL(0xC100)
		bus.Write(0xC100, 0x0F)

		runInstructions(t, c, bus, 1)
		assert.Equal(t, byte(0x10), bus.Read(0xC100))
		assert.Equal(t, fH, c.f&fH)

		bus.Write(0xC100, 0x81)
		runInstructions(t, c, bus, 1)
		assert.Equal(t, byte(0x80), bus.Read(0xC100))
	})
}

func TestStackAndControlFlow(t *testing.T) {
	t.Run("PUSH and POP", func(t *testing.T) {
		// PUSH BC ; POP DE
		c, bus := newTestCPU([]byte{0xC5, 0xD1})
		c.sp = 0xD000
		c.setBC(0xBEEF)

		runInstructions(t, c, bus, 1)
		assert.Equal(t, uint16(0xCFFE), c.sp)
		assert.Equal(t, byte(0xBE), bus.Read(0xCFFF))
		assert.Equal(t, byte(0xEF), bus.Read(0xCFFE))

		runInstructions(t, c, bus, 1)
		assert.Equal(t, uint16(0xBEEF), c.getDE())
		assert.Equal(t, uint16(0xD000), c.sp)
	})

	t.Run("CALL and RET", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xCD, 0x00, 0xC1})
		bus.Write(0xC100, 0xC9)
		c.sp = 0xD000

		runInstructions(t, c, bus, 1)
		assert.Equal(t, uint16(0xC100), c.pc)
		assert.Equal(t, byte(0x03), bus.Read(0xCFFE))
		assert.Equal(t, byte(0xC0), bus.Read(0xCFFF))

		runInstructions(t, c, bus, 1)
		assert.Equal(t, uint16(0xC003), c.pc)
		assert.Equal(t, uint16(0xD000), c.sp)
	})

	t.Run("JR backwards", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x00, 0x18, 0xFD})

		runInstructions(t, c, bus, 2)

		assert.Equal(t, programStart, c.pc)
	})

	t.Run("JR NZ not taken", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0x20, 0x10})
		c.f = fZ

		runInstructions(t, c, bus, 1)

		assert.Equal(t, programStart+2, c.pc)
	})

	t.Run("JP C taken", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xDA, 0x34, 0x12})
		c.f = fC

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0x1234), c.pc)
	})

	t.Run("JP HL", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xE9})
		c.setHL(0xC200)

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0xC200), c.pc)
	})

	t.Run("RST 28H", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xEF})
		c.sp = 0xD000

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0x0028), c.pc)
		assert.Equal(t, byte(0x01), bus.Read(0xCFFE))
	})

	t.Run("RET NC taken", func(t *testing.T) {
		c, bus := newTestCPU([]byte{0xD0})
		c.sp = 0xD000
		c.f = 0
		bus.Write(0xD000, 0x00)
		bus.Write(0xD001, 0xC3)

		runInstructions(t, c, bus, 1)

		assert.Equal(t, uint16(0xC300), c.pc)
	})
}
