package cpu

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
)

// Bus is what the CPU needs from the rest of the system.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	InterruptFlags() uint8
	InterruptEnable() uint8
	ClearInterruptFlag(mask uint8)
	ResetDivider()
}

// M-cycles spent dispatching an interrupt.
const interruptDispatchCycles = 5

// CPU is the main struct holding SM83 state. It is clocked one M-cycle at a
// time: the cost of an instruction is accounted up front, the instruction
// itself executes on the tick the countdown reaches zero.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// instruction in flight
	opcode   uint8
	prefixed bool
	fetched  uint16
	dest     destination

	cycles  int  // M-cycles left before the pending instruction runs
	cycling bool // the pending instruction's cost was already added

	ime          bool
	imeScheduled bool // EI: IME is set when the next instruction is fetched
	halted       bool
	stopped      bool

	instructionCount uint64

	bus    Bus
	logger *slog.Logger
	trace  io.Writer
}

type Option func(*CPU)

// WithLogger sets the logger used for CPU diagnostics.
func WithLogger(l *slog.Logger) Option { return func(c *CPU) { c.logger = l } }

// WithTrace writes a register dump line to w before each instruction.
func WithTrace(w io.Writer) Option { return func(c *CPU) { c.trace = w } }

// New returns a CPU in its post boot ROM state.
func New(bus Bus, opts ...Option) *CPU {
	c := &CPU{
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset puts the CPU in the state the DMG boot ROM leaves it in.
func (c *CPU) Reset() {
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	c.opcode = 0
	c.prefixed = false
	c.fetched = 0
	c.dest = destination{}

	c.cycles = 0
	c.cycling = false

	c.ime = false
	c.imeScheduled = false
	c.halted = false
	c.stopped = false

	c.instructionCount = 0
}

// Tick advances the CPU by one M-cycle.
func (c *CPU) Tick() {
	if !c.cycling {
		c.computeCycles()
		c.cycling = true
	}

	if c.cycles > 0 {
		c.cycles--
	}
	if c.cycles > 0 || c.stopped {
		return
	}

	// a halted CPU only waits for an interrupt, the pending cost stays paid
	if c.halted {
		c.handleInterrupt()
		return
	}

	if !c.handleInterrupt() {
		c.step()
	}
}

// computeCycles adds the cost of the instruction at PC, taken branches
// included, to the countdown.
func (c *CPU) computeCycles() {
	opcode := c.bus.Read(c.pc)
	c.cycles += int(instructions[opcode].cycles)

	switch {
	// JP cc,nn and JR cc,e
	case opcode&0xE7 == 0xC2, opcode&0xE7 == 0x20:
		if c.condition(opcode) {
			c.cycles++
		}
	// CALL cc,nn and RET cc
	case opcode&0xE7 == 0xC4, opcode&0xE7 == 0xC0:
		if c.condition(opcode) {
			c.cycles += 3
		}
	case opcode == 0xCB:
		c.cycles += int(prefixed[c.bus.Read(c.pc+1)].cycles)
	}
}

// step fetches, decodes and executes one instruction.
func (c *CPU) step() {
	if c.trace != nil {
		c.writeTrace()
	}

	c.prefixed = false
	c.fetched = 0
	c.dest = destination{}

	if c.imeScheduled {
		c.imeScheduled = false
		c.ime = true
	}

	c.opcode = c.readImmediate()
	in := instructions[c.opcode]
	c.resolve(in.mode)
	c.execute(in.op)

	c.f &= 0xF0
	c.cycling = false
	c.instructionCount++
}

// handleInterrupt services the highest priority pending interrupt, lowest bit
// first. Returns true when it took over the tick, either by dispatching to a
// vector or, with IME clear, by waking from HALT and running the next
// instruction right away.
func (c *CPU) handleInterrupt() bool {
	pending := c.bus.InterruptFlags() & c.bus.InterruptEnable()

	for i := uint8(0); i < addr.ServicedInterrupts; i++ {
		if !bit.IsSet(i, pending) {
			continue
		}

		if !c.ime {
			c.halted = false
			c.step()
			return true
		}

		c.halted = false
		c.bus.ClearInterruptFlag(1 << i)
		c.ime = false
		c.cycles += interruptDispatchCycles

		c.pushStack(c.pc)
		c.pc = addr.Vector(i)

		c.f &= 0xF0
		c.cycling = false
		return true
	}

	return false
}

func (c *CPU) writeTrace() {
	fmt.Fprintf(c.trace, "%s PCMEM:%02X,%02X,%02X,%02X\n",
		c.Registers(),
		c.bus.Read(c.pc), c.bus.Read(c.pc+1), c.bus.Read(c.pc+2), c.bus.Read(c.pc+3),
	)
}

// Registers is a snapshot of the register file.
type Registers struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
}

func (r Registers) String() string {
	return fmt.Sprintf("A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X",
		r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, r.PC)
}

// Registers returns the current register values.
func (c *CPU) Registers() Registers {
	return Registers{
		A: c.a, F: c.f, B: c.b, C: c.c, D: c.d, E: c.e, H: c.h, L: c.l,
		SP: c.sp, PC: c.pc,
	}
}

// SetPC moves execution to address, e.g. to run code placed in RAM.
func (c *CPU) SetPC(address uint16) {
	c.pc = address
}

func (c *CPU) GetPC() uint16 {
	return c.pc
}

func (c *CPU) GetSP() uint16 {
	return c.sp
}

// Stopped reports whether STOP was executed. Nothing resumes a stopped CPU.
func (c *CPU) Stopped() bool {
	return c.stopped
}

func (c *CPU) Halted() bool {
	return c.halted
}

// InterruptsEnabled returns the IME flag.
func (c *CPU) InterruptsEnabled() bool {
	return c.ime
}

// Opcode returns the last executed opcode and whether it was CB prefixed.
func (c *CPU) Opcode() (uint8, bool) {
	return c.opcode, c.prefixed
}

// Instructions returns the number of instructions executed since Reset.
func (c *CPU) Instructions() uint64 {
	return c.instructionCount
}

// Busy reports whether an instruction has been accounted for and not run yet.
func (c *CPU) Busy() bool {
	return c.cycling
}
