package cpu

import "fmt"

// addressingMode selects how the operand is fetched and where the result goes.
type addressingMode uint8

const (
	modeImplied      addressingMode = iota
	modeRegToReg                    // LD r,r' (either side may be (HL))
	modeImm8ToReg                   // LD r,n
	modeIndirectToA                 // LD A,(rr)
	modeAToIndirect                 // LD (rr),A
	modeAbsToA                      // LD A,(nn)
	modeAToAbs                      // LD (nn),A
	modeZeroPageToA                 // LDH A,(n)
	modeAToZeroPage                 // LDH (n),A
	modeZeroPageCToA                // LD A,(C)
	modeAToZeroPageC                // LD (C),A
	modeImm16ToPair                 // LD rr,nn
	modeSPToAbs                     // LD (nn),SP
	modeHLToSP                      // LD SP,HL
	modePairToStack                 // PUSH rr
	modeStackToPair                 // POP rr
	modeReg                         // operand in bits 2-0, modified in place
	modeMidReg                      // operand in bits 5-3, modified in place
	modeImm8                        // n or e
	modeImm16                       // nn
	modePair                        // rr in bits 5-4, modified in place
)

// operation is the behavior of an instruction once its operand is resolved.
type operation uint8

const (
	opNop operation = iota
	opIllegal
	opHalt
	opStop
	opDI
	opEI
	opLoad8
	opLoad16
	opLoadHLSP
	opPush
	opPop
	opAdd
	opAdc
	opSub
	opSbc
	opAnd
	opXor
	opOr
	opCp
	opInc
	opDec
	opInc16
	opDec16
	opAddHL
	opAddSP
	opRlca
	opRrca
	opRla
	opRra
	opDaa
	opCpl
	opScf
	opCcf
	opJr
	opJrCond
	opJp
	opJpCond
	opJpHL
	opCall
	opCallCond
	opRet
	opRetCond
	opReti
	opRst
	opPrefix
	// CB prefixed
	opRlc
	opRrc
	opRl
	opRr
	opSla
	opSra
	opSwap
	opSrl
	opBit
	opRes
	opSet
)

// instruction describes one opcode. cycles is the base cost in M-cycles;
// taken conditional branches add to it, see CPU.computeCycles.
type instruction struct {
	name   string
	mode   addressingMode
	op     operation
	cycles uint8
}

// Operand tokens in names follow the usual notation: d8/d16 immediate data,
// a8 offset into the 0xFF00 page, a16 address, r8 signed jump offset.
var instructions = [256]instruction{
	0x00: {"NOP", modeImplied, opNop, 1},
	0x01: {"LD BC,d16", modeImm16ToPair, opLoad16, 3},
	0x02: {"LD (BC),A", modeAToIndirect, opLoad8, 2},
	0x03: {"INC BC", modePair, opInc16, 2},
	0x04: {"INC B", modeMidReg, opInc, 1},
	0x05: {"DEC B", modeMidReg, opDec, 1},
	0x06: {"LD B,d8", modeImm8ToReg, opLoad8, 2},
	0x07: {"RLCA", modeImplied, opRlca, 1},
	0x08: {"LD (a16),SP", modeSPToAbs, opLoad16, 5},
	0x09: {"ADD HL,BC", modePair, opAddHL, 2},
	0x0A: {"LD A,(BC)", modeIndirectToA, opLoad8, 2},
	0x0B: {"DEC BC", modePair, opDec16, 2},
	0x0C: {"INC C", modeMidReg, opInc, 1},
	0x0D: {"DEC C", modeMidReg, opDec, 1},
	0x0E: {"LD C,d8", modeImm8ToReg, opLoad8, 2},
	0x0F: {"RRCA", modeImplied, opRrca, 1},
	0x10: {"STOP 0", modeImm8, opStop, 1},
	0x11: {"LD DE,d16", modeImm16ToPair, opLoad16, 3},
	0x12: {"LD (DE),A", modeAToIndirect, opLoad8, 2},
	0x13: {"INC DE", modePair, opInc16, 2},
	0x14: {"INC D", modeMidReg, opInc, 1},
	0x15: {"DEC D", modeMidReg, opDec, 1},
	0x16: {"LD D,d8", modeImm8ToReg, opLoad8, 2},
	0x17: {"RLA", modeImplied, opRla, 1},
	0x18: {"JR r8", modeImm8, opJr, 3},
	0x19: {"ADD HL,DE", modePair, opAddHL, 2},
	0x1A: {"LD A,(DE)", modeIndirectToA, opLoad8, 2},
	0x1B: {"DEC DE", modePair, opDec16, 2},
	0x1C: {"INC E", modeMidReg, opInc, 1},
	0x1D: {"DEC E", modeMidReg, opDec, 1},
	0x1E: {"LD E,d8", modeImm8ToReg, opLoad8, 2},
	0x1F: {"RRA", modeImplied, opRra, 1},
	0x20: {"JR NZ,r8", modeImm8, opJrCond, 2},
	0x21: {"LD HL,d16", modeImm16ToPair, opLoad16, 3},
	0x22: {"LD (HL+),A", modeAToIndirect, opLoad8, 2},
	0x23: {"INC HL", modePair, opInc16, 2},
	0x24: {"INC H", modeMidReg, opInc, 1},
	0x25: {"DEC H", modeMidReg, opDec, 1},
	0x26: {"LD H,d8", modeImm8ToReg, opLoad8, 2},
	0x27: {"DAA", modeImplied, opDaa, 1},
	0x28: {"JR Z,r8", modeImm8, opJrCond, 2},
	0x29: {"ADD HL,HL", modePair, opAddHL, 2},
	0x2A: {"LD A,(HL+)", modeIndirectToA, opLoad8, 2},
	0x2B: {"DEC HL", modePair, opDec16, 2},
	0x2C: {"INC L", modeMidReg, opInc, 1},
	0x2D: {"DEC L", modeMidReg, opDec, 1},
	0x2E: {"LD L,d8", modeImm8ToReg, opLoad8, 2},
	0x2F: {"CPL", modeImplied, opCpl, 1},
	0x30: {"JR NC,r8", modeImm8, opJrCond, 2},
	0x31: {"LD SP,d16", modeImm16ToPair, opLoad16, 3},
	0x32: {"LD (HL-),A", modeAToIndirect, opLoad8, 2},
	0x33: {"INC SP", modePair, opInc16, 2},
	0x34: {"INC (HL)", modeMidReg, opInc, 3},
	0x35: {"DEC (HL)", modeMidReg, opDec, 3},
	0x36: {"LD (HL),d8", modeImm8ToReg, opLoad8, 3},
	0x37: {"SCF", modeImplied, opScf, 1},
	0x38: {"JR C,r8", modeImm8, opJrCond, 2},
	0x39: {"ADD HL,SP", modePair, opAddHL, 2},
	0x3A: {"LD A,(HL-)", modeIndirectToA, opLoad8, 2},
	0x3B: {"DEC SP", modePair, opDec16, 2},
	0x3C: {"INC A", modeMidReg, opInc, 1},
	0x3D: {"DEC A", modeMidReg, opDec, 1},
	0x3E: {"LD A,d8", modeImm8ToReg, opLoad8, 2},
	0x3F: {"CCF", modeImplied, opCcf, 1},
	0x40: {"LD B,B", modeRegToReg, opLoad8, 1},
	0x41: {"LD B,C", modeRegToReg, opLoad8, 1},
	0x42: {"LD B,D", modeRegToReg, opLoad8, 1},
	0x43: {"LD B,E", modeRegToReg, opLoad8, 1},
	0x44: {"LD B,H", modeRegToReg, opLoad8, 1},
	0x45: {"LD B,L", modeRegToReg, opLoad8, 1},
	0x46: {"LD B,(HL)", modeRegToReg, opLoad8, 2},
	0x47: {"LD B,A", modeRegToReg, opLoad8, 1},
	0x48: {"LD C,B", modeRegToReg, opLoad8, 1},
	0x49: {"LD C,C", modeRegToReg, opLoad8, 1},
	0x4A: {"LD C,D", modeRegToReg, opLoad8, 1},
	0x4B: {"LD C,E", modeRegToReg, opLoad8, 1},
	0x4C: {"LD C,H", modeRegToReg, opLoad8, 1},
	0x4D: {"LD C,L", modeRegToReg, opLoad8, 1},
	0x4E: {"LD C,(HL)", modeRegToReg, opLoad8, 2},
	0x4F: {"LD C,A", modeRegToReg, opLoad8, 1},
	0x50: {"LD D,B", modeRegToReg, opLoad8, 1},
	0x51: {"LD D,C", modeRegToReg, opLoad8, 1},
	0x52: {"LD D,D", modeRegToReg, opLoad8, 1},
	0x53: {"LD D,E", modeRegToReg, opLoad8, 1},
	0x54: {"LD D,H", modeRegToReg, opLoad8, 1},
	0x55: {"LD D,L", modeRegToReg, opLoad8, 1},
	0x56: {"LD D,(HL)", modeRegToReg, opLoad8, 2},
	0x57: {"LD D,A", modeRegToReg, opLoad8, 1},
	0x58: {"LD E,B", modeRegToReg, opLoad8, 1},
	0x59: {"LD E,C", modeRegToReg, opLoad8, 1},
	0x5A: {"LD E,D", modeRegToReg, opLoad8, 1},
	0x5B: {"LD E,E", modeRegToReg, opLoad8, 1},
	0x5C: {"LD E,H", modeRegToReg, opLoad8, 1},
	0x5D: {"LD E,L", modeRegToReg, opLoad8, 1},
	0x5E: {"LD E,(HL)", modeRegToReg, opLoad8, 2},
	0x5F: {"LD E,A", modeRegToReg, opLoad8, 1},
	0x60: {"LD H,B", modeRegToReg, opLoad8, 1},
	0x61: {"LD H,C", modeRegToReg, opLoad8, 1},
	0x62: {"LD H,D", modeRegToReg, opLoad8, 1},
	0x63: {"LD H,E", modeRegToReg, opLoad8, 1},
	0x64: {"LD H,H", modeRegToReg, opLoad8, 1},
	0x65: {"LD H,L", modeRegToReg, opLoad8, 1},
	0x66: {"LD H,(HL)", modeRegToReg, opLoad8, 2},
	0x67: {"LD H,A", modeRegToReg, opLoad8, 1},
	0x68: {"LD L,B", modeRegToReg, opLoad8, 1},
	0x69: {"LD L,C", modeRegToReg, opLoad8, 1},
	0x6A: {"LD L,D", modeRegToReg, opLoad8, 1},
	0x6B: {"LD L,E", modeRegToReg, opLoad8, 1},
	0x6C: {"LD L,H", modeRegToReg, opLoad8, 1},
	0x6D: {"LD L,L", modeRegToReg, opLoad8, 1},
	0x6E: {"LD L,(HL)", modeRegToReg, opLoad8, 2},
	0x6F: {"LD L,A", modeRegToReg, opLoad8, 1},
	0x70: {"LD (HL),B", modeRegToReg, opLoad8, 2},
	0x71: {"LD (HL),C", modeRegToReg, opLoad8, 2},
	0x72: {"LD (HL),D", modeRegToReg, opLoad8, 2},
	0x73: {"LD (HL),E", modeRegToReg, opLoad8, 2},
	0x74: {"LD (HL),H", modeRegToReg, opLoad8, 2},
	0x75: {"LD (HL),L", modeRegToReg, opLoad8, 2},
	0x76: {"HALT", modeImplied, opHalt, 1},
	0x77: {"LD (HL),A", modeRegToReg, opLoad8, 2},
	0x78: {"LD A,B", modeRegToReg, opLoad8, 1},
	0x79: {"LD A,C", modeRegToReg, opLoad8, 1},
	0x7A: {"LD A,D", modeRegToReg, opLoad8, 1},
	0x7B: {"LD A,E", modeRegToReg, opLoad8, 1},
	0x7C: {"LD A,H", modeRegToReg, opLoad8, 1},
	0x7D: {"LD A,L", modeRegToReg, opLoad8, 1},
	0x7E: {"LD A,(HL)", modeRegToReg, opLoad8, 2},
	0x7F: {"LD A,A", modeRegToReg, opLoad8, 1},
	0x80: {"ADD A,B", modeReg, opAdd, 1},
	0x81: {"ADD A,C", modeReg, opAdd, 1},
	0x82: {"ADD A,D", modeReg, opAdd, 1},
	0x83: {"ADD A,E", modeReg, opAdd, 1},
	0x84: {"ADD A,H", modeReg, opAdd, 1},
	0x85: {"ADD A,L", modeReg, opAdd, 1},
	0x86: {"ADD A,(HL)", modeReg, opAdd, 2},
	0x87: {"ADD A,A", modeReg, opAdd, 1},
	0x88: {"ADC A,B", modeReg, opAdc, 1},
	0x89: {"ADC A,C", modeReg, opAdc, 1},
	0x8A: {"ADC A,D", modeReg, opAdc, 1},
	0x8B: {"ADC A,E", modeReg, opAdc, 1},
	0x8C: {"ADC A,H", modeReg, opAdc, 1},
	0x8D: {"ADC A,L", modeReg, opAdc, 1},
	0x8E: {"ADC A,(HL)", modeReg, opAdc, 2},
	0x8F: {"ADC A,A", modeReg, opAdc, 1},
	0x90: {"SUB B", modeReg, opSub, 1},
	0x91: {"SUB C", modeReg, opSub, 1},
	0x92: {"SUB D", modeReg, opSub, 1},
	0x93: {"SUB E", modeReg, opSub, 1},
	0x94: {"SUB H", modeReg, opSub, 1},
	0x95: {"SUB L", modeReg, opSub, 1},
	0x96: {"SUB (HL)", modeReg, opSub, 2},
	0x97: {"SUB A", modeReg, opSub, 1},
	0x98: {"SBC A,B", modeReg, opSbc, 1},
	0x99: {"SBC A,C", modeReg, opSbc, 1},
	0x9A: {"SBC A,D", modeReg, opSbc, 1},
	0x9B: {"SBC A,E", modeReg, opSbc, 1},
	0x9C: {"SBC A,H", modeReg, opSbc, 1},
	0x9D: {"SBC A,L", modeReg, opSbc, 1},
	0x9E: {"SBC A,(HL)", modeReg, opSbc, 2},
	0x9F: {"SBC A,A", modeReg, opSbc, 1},
	0xA0: {"AND B", modeReg, opAnd, 1},
	0xA1: {"AND C", modeReg, opAnd, 1},
	0xA2: {"AND D", modeReg, opAnd, 1},
	0xA3: {"AND E", modeReg, opAnd, 1},
	0xA4: {"AND H", modeReg, opAnd, 1},
	0xA5: {"AND L", modeReg, opAnd, 1},
	0xA6: {"AND (HL)", modeReg, opAnd, 2},
	0xA7: {"AND A", modeReg, opAnd, 1},
	0xA8: {"XOR B", modeReg, opXor, 1},
	0xA9: {"XOR C", modeReg, opXor, 1},
	0xAA: {"XOR D", modeReg, opXor, 1},
	0xAB: {"XOR E", modeReg, opXor, 1},
	0xAC: {"XOR H", modeReg, opXor, 1},
	0xAD: {"XOR L", modeReg, opXor, 1},
	0xAE: {"XOR (HL)", modeReg, opXor, 2},
	0xAF: {"XOR A", modeReg, opXor, 1},
	0xB0: {"OR B", modeReg, opOr, 1},
	0xB1: {"OR C", modeReg, opOr, 1},
	0xB2: {"OR D", modeReg, opOr, 1},
	0xB3: {"OR E", modeReg, opOr, 1},
	0xB4: {"OR H", modeReg, opOr, 1},
	0xB5: {"OR L", modeReg, opOr, 1},
	0xB6: {"OR (HL)", modeReg, opOr, 2},
	0xB7: {"OR A", modeReg, opOr, 1},
	0xB8: {"CP B", modeReg, opCp, 1},
	0xB9: {"CP C", modeReg, opCp, 1},
	0xBA: {"CP D", modeReg, opCp, 1},
	0xBB: {"CP E", modeReg, opCp, 1},
	0xBC: {"CP H", modeReg, opCp, 1},
	0xBD: {"CP L", modeReg, opCp, 1},
	0xBE: {"CP (HL)", modeReg, opCp, 2},
	0xBF: {"CP A", modeReg, opCp, 1},
	0xC0: {"RET NZ", modeImplied, opRetCond, 2},
	0xC1: {"POP BC", modeStackToPair, opPop, 3},
	0xC2: {"JP NZ,a16", modeImm16, opJpCond, 3},
	0xC3: {"JP a16", modeImm16, opJp, 4},
	0xC4: {"CALL NZ,a16", modeImm16, opCallCond, 3},
	0xC5: {"PUSH BC", modePairToStack, opPush, 4},
	0xC6: {"ADD A,d8", modeImm8, opAdd, 2},
	0xC7: {"RST 00H", modeImplied, opRst, 4},
	0xC8: {"RET Z", modeImplied, opRetCond, 2},
	0xC9: {"RET", modeImplied, opRet, 4},
	0xCA: {"JP Z,a16", modeImm16, opJpCond, 3},
	0xCB: {"PREFIX CB", modeImplied, opPrefix, 0},
	0xCC: {"CALL Z,a16", modeImm16, opCallCond, 3},
	0xCD: {"CALL a16", modeImm16, opCall, 6},
	0xCE: {"ADC A,d8", modeImm8, opAdc, 2},
	0xCF: {"RST 08H", modeImplied, opRst, 4},
	0xD0: {"RET NC", modeImplied, opRetCond, 2},
	0xD1: {"POP DE", modeStackToPair, opPop, 3},
	0xD2: {"JP NC,a16", modeImm16, opJpCond, 3},
	0xD3: {"ILLEGAL_D3", modeImplied, opIllegal, 1},
	0xD4: {"CALL NC,a16", modeImm16, opCallCond, 3},
	0xD5: {"PUSH DE", modePairToStack, opPush, 4},
	0xD6: {"SUB d8", modeImm8, opSub, 2},
	0xD7: {"RST 10H", modeImplied, opRst, 4},
	0xD8: {"RET C", modeImplied, opRetCond, 2},
	0xD9: {"RETI", modeImplied, opReti, 4},
	0xDA: {"JP C,a16", modeImm16, opJpCond, 3},
	0xDB: {"ILLEGAL_DB", modeImplied, opIllegal, 1},
	0xDC: {"CALL C,a16", modeImm16, opCallCond, 3},
	0xDD: {"ILLEGAL_DD", modeImplied, opIllegal, 1},
	0xDE: {"SBC A,d8", modeImm8, opSbc, 2},
	0xDF: {"RST 18H", modeImplied, opRst, 4},
	0xE0: {"LDH (a8),A", modeAToZeroPage, opLoad8, 3},
	0xE1: {"POP HL", modeStackToPair, opPop, 3},
	0xE2: {"LD (C),A", modeAToZeroPageC, opLoad8, 2},
	0xE3: {"ILLEGAL_E3", modeImplied, opIllegal, 1},
	0xE4: {"ILLEGAL_E4", modeImplied, opIllegal, 1},
	0xE5: {"PUSH HL", modePairToStack, opPush, 4},
	0xE6: {"AND d8", modeImm8, opAnd, 2},
	0xE7: {"RST 20H", modeImplied, opRst, 4},
	0xE8: {"ADD SP,r8", modeImm8, opAddSP, 4},
	0xE9: {"JP HL", modeImplied, opJpHL, 1},
	0xEA: {"LD (a16),A", modeAToAbs, opLoad8, 4},
	0xEB: {"ILLEGAL_EB", modeImplied, opIllegal, 1},
	0xEC: {"ILLEGAL_EC", modeImplied, opIllegal, 1},
	0xED: {"ILLEGAL_ED", modeImplied, opIllegal, 1},
	0xEE: {"XOR d8", modeImm8, opXor, 2},
	0xEF: {"RST 28H", modeImplied, opRst, 4},
	0xF0: {"LDH A,(a8)", modeZeroPageToA, opLoad8, 3},
	0xF1: {"POP AF", modeStackToPair, opPop, 3},
	0xF2: {"LD A,(C)", modeZeroPageCToA, opLoad8, 2},
	0xF3: {"DI", modeImplied, opDI, 1},
	0xF4: {"ILLEGAL_F4", modeImplied, opIllegal, 1},
	0xF5: {"PUSH AF", modePairToStack, opPush, 4},
	0xF6: {"OR d8", modeImm8, opOr, 2},
	0xF7: {"RST 30H", modeImplied, opRst, 4},
	0xF8: {"LD HL,SP+r8", modeImm8, opLoadHLSP, 3},
	0xF9: {"LD SP,HL", modeHLToSP, opLoad16, 2},
	0xFA: {"LD A,(a16)", modeAbsToA, opLoad8, 4},
	0xFB: {"EI", modeImplied, opEI, 1},
	0xFC: {"ILLEGAL_FC", modeImplied, opIllegal, 1},
	0xFD: {"ILLEGAL_FD", modeImplied, opIllegal, 1},
	0xFE: {"CP d8", modeImm8, opCp, 2},
	0xFF: {"RST 38H", modeImplied, opRst, 4},
}

var prefixed = buildPrefixed()

// buildPrefixed lays out the CB table: rotates and shifts in 0x00-0x3F, then
// BIT, RES and SET with the bit index in bits 5-3. The operand is always in
// bits 2-0.
func buildPrefixed() [256]instruction {
	var table [256]instruction

	shifts := [8]struct {
		name string
		op   operation
	}{
		{"RLC", opRlc}, {"RRC", opRrc}, {"RL", opRl}, {"RR", opRr},
		{"SLA", opSla}, {"SRA", opSra}, {"SWAP", opSwap}, {"SRL", opSrl},
	}
	bitOps := [4]struct {
		name string
		op   operation
	}{
		{}, {"BIT", opBit}, {"RES", opRes}, {"SET", opSet},
	}

	for i := range table {
		opcode := uint8(i)
		r := reg8(opcode & 0x07)
		group := opcode >> 6
		index := (opcode >> 3) & 0x07

		var in instruction
		if group == 0 {
			in = instruction{
				name: fmt.Sprintf("%s %s", shifts[index].name, r),
				op:   shifts[index].op,
			}
		} else {
			in = instruction{
				name: fmt.Sprintf("%s %d,%s", bitOps[group].name, index, r),
				op:   bitOps[group].op,
			}
		}
		in.mode = modeReg

		// the prefix fetch is included
		switch {
		case r != regHLIndirect:
			in.cycles = 2
		case in.op == opBit:
			in.cycles = 3
		default:
			in.cycles = 4
		}

		table[i] = in
	}

	return table
}

// Mnemonic returns the name of the opcode, e.g. "LD B,d8" or "BIT 7,H".
func Mnemonic(opcode uint8, cb bool) string {
	if cb {
		return prefixed[opcode].name
	}
	return instructions[opcode].name
}

// Length returns the size in bytes of the instruction starting with opcode,
// the CB prefix byte included.
func Length(opcode uint8) int {
	in := instructions[opcode]
	if in.op == opPrefix {
		return 2
	}

	switch in.mode {
	case modeImm8ToReg, modeZeroPageToA, modeAToZeroPage, modeImm8:
		return 2
	case modeAbsToA, modeAToAbs, modeImm16ToPair, modeSPToAbs, modeImm16:
		return 3
	default:
		return 1
	}
}

// Cycles returns the base cost in M-cycles of the opcode, not counting the
// extra cost of taken branches.
func Cycles(opcode uint8, cb bool) int {
	if cb {
		return int(prefixed[opcode].cycles)
	}
	return int(instructions[opcode].cycles)
}
