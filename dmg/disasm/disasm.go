// Package disasm renders SM83 instructions as text, using the CPU's decode
// tables for names and sizes.
package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/cpu"
)

// Reader is anything instructions can be read from, usually the bus.
type Reader interface {
	Read(address uint16) byte
}

// Line is a single disassembled instruction.
type Line struct {
	Address     uint16
	Instruction string
	Length      int
}

// At disassembles the instruction at pc, substituting immediate operands.
func At(r Reader, pc uint16) Line {
	opcode := r.Read(pc)
	length := cpu.Length(opcode)

	if opcode == 0xCB {
		return Line{
			Address:     pc,
			Instruction: cpu.Mnemonic(r.Read(pc+1), true),
			Length:      length,
		}
	}

	name := cpu.Mnemonic(opcode, false)
	n := r.Read(pc + 1)
	nn := bit.Combine(r.Read(pc+2), n)

	var text string
	switch {
	case strings.Contains(name, "d16"):
		text = strings.Replace(name, "d16", fmt.Sprintf("$%04X", nn), 1)
	case strings.Contains(name, "a16"):
		text = strings.Replace(name, "a16", fmt.Sprintf("$%04X", nn), 1)
	case strings.Contains(name, "d8"):
		text = strings.Replace(name, "d8", fmt.Sprintf("$%02X", n), 1)
	case strings.Contains(name, "a8"):
		text = strings.Replace(name, "a8", fmt.Sprintf("$FF%02X", n), 1)
	case strings.HasPrefix(name, "JR"):
		// relative to the address after the instruction
		target := pc + uint16(length) + uint16(int8(n))
		text = strings.Replace(name, "r8", fmt.Sprintf("$%04X", target), 1)
	case strings.Contains(name, "+r8"):
		text = strings.Replace(name, "+r8", fmt.Sprintf("%+d", int8(n)), 1)
	case strings.Contains(name, "r8"):
		text = strings.Replace(name, "r8", fmt.Sprintf("%d", int8(n)), 1)
	default:
		text = name
	}

	return Line{Address: pc, Instruction: text, Length: length}
}

// Range disassembles count consecutive instructions starting at start.
func Range(r Reader, start uint16, count int) []Line {
	lines := make([]Line, 0, count)
	pc := start
	for i := 0; i < count; i++ {
		line := At(r, pc)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}
	return lines
}

// Format renders the line for display, marking the current instruction.
func (l Line) Format(current bool) string {
	prefix := " "
	if current {
		prefix = ">"
	}
	return fmt.Sprintf("%s%04X: %s", prefix, l.Address, l.Instruction)
}
