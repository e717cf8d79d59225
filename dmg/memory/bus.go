package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/serial"
)

type memRegion uint8

const (
	regionUnmapped memRegion = iota
	regionROM
	regionExtRAM
	regionWRAM
	regionIO
)

const (
	// LYDefault is what LY reads as unless configured otherwise: graphics are
	// not emulated, so the scanline register is a constant.
	LYDefault byte = 0xFF

	// SC read value: no transfer in progress (bit 7 clear), unused bits high.
	serialControlIdle byte = 0x7E
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
}

// Processor is the CPU as seen from the bus: it is clocked once per bus
// tick and reports whether it entered the stopped state.
type Processor interface {
	Tick()
	Stopped() bool
}

// Bus routes every CPU memory access to the owning component and drives the
// clock: each Tick is one M-cycle for the timer and the CPU.
type Bus struct {
	cart      *Cartridge
	serial    SerialPort
	cpu       Processor
	timer     Timer
	regionMap [256]memRegion

	wram [0x2000]byte
	hram [0x7F]byte

	interruptFlags  byte
	interruptEnable byte

	lyValue byte
	ticks   uint64
	logger  *slog.Logger
}

type Option func(*Bus)

// WithLYValue sets the constant returned by LY reads.
func WithLYValue(v byte) Option { return func(b *Bus) { b.lyValue = v } }

// WithLogger sets the logger used for bus diagnostics.
func WithLogger(l *slog.Logger) Option { return func(b *Bus) { b.logger = l } }

// WithSerial connects a serial device, a raw serial.Sink by default.
func WithSerial(p SerialPort) Option { return func(b *Bus) { b.serial = p } }

// New creates a bus with an empty cartridge slot.
// Equivalent to turning on a Gameboy without a cartridge in.
func New(opts ...Option) *Bus {
	return NewWithCartridge(NewCartridge(), opts...)
}

// NewWithCartridge creates a bus with the provided cartridge inserted.
func NewWithCartridge(cart *Cartridge, opts ...Option) *Bus {
	b := &Bus{
		cart:    cart,
		lyValue: LYDefault,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.serial == nil {
		b.serial = serial.New(serial.WithLogger(b.logger))
	}
	b.timer.Reset()
	initRegionMap(b)
	return b
}

func initRegionMap(b *Bus) {
	for i := range b.regionMap {
		b.regionMap[i] = regionUnmapped
	}
	// ROM: 0x0000-0x7FFF
	for i := 0x00; i <= 0x7F; i++ {
		b.regionMap[i] = regionROM
	}
	// External RAM: 0xA000-0xBFFF
	for i := 0xA0; i <= 0xBF; i++ {
		b.regionMap[i] = regionExtRAM
	}
	// Work RAM: 0xC000-0xDFFF
	for i := 0xC0; i <= 0xDF; i++ {
		b.regionMap[i] = regionWRAM
	}
	// IO + HRAM + IE: 0xFF00-0xFFFF
	b.regionMap[0xFF] = regionIO
}

// ConnectCPU attaches the processor clocked by Tick.
func (b *Bus) ConnectCPU(p Processor) {
	b.cpu = p
}

// Reset restores the power-on state of everything owned by the bus.
// The cartridge and the connected devices are left alone.
func (b *Bus) Reset() {
	b.timer.Reset()
	b.wram = [0x2000]byte{}
	b.hram = [0x7F]byte{}
	b.interruptFlags = 0
	b.interruptEnable = 0
	b.ticks = 0
}

// Tick advances the system by one M-cycle: the timer first, so an overflow
// interrupt is visible to the CPU in the same tick, then the CPU.
// A stopped CPU also stops the timer.
func (b *Bus) Tick() {
	b.ticks++

	if b.cpu == nil {
		if b.timer.Tick() {
			b.RequestInterrupt(addr.TimerInterrupt)
		}
		return
	}

	if !b.cpu.Stopped() && b.timer.Tick() {
		b.RequestInterrupt(addr.TimerInterrupt)
	}

	b.cpu.Tick()
}

// Ticks returns the number of M-cycles elapsed since creation or Reset.
func (b *Bus) Ticks() uint64 {
	return b.ticks
}

// Timer exposes the timer, read-only use intended.
func (b *Bus) Timer() *Timer {
	return &b.timer
}

// Cartridge returns the inserted cartridge.
func (b *Bus) Cartridge() *Cartridge {
	return b.cart
}

// RequestInterrupt sets the IF bit of the given interrupt.
func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.interruptFlags |= uint8(interrupt)
}

// ClearInterruptFlag clears the IF bits set in mask.
func (b *Bus) ClearInterruptFlag(mask uint8) {
	b.interruptFlags &^= mask
}

// InterruptFlags returns the IF register.
func (b *Bus) InterruptFlags() uint8 {
	return b.interruptFlags
}

// InterruptEnable returns the IE register.
func (b *Bus) InterruptEnable() uint8 {
	return b.interruptEnable
}

// ResetDivider clears the timer's internal counter, as entering STOP does.
func (b *Bus) ResetDivider() {
	b.timer.ResetDivider()
}

func (b *Bus) Read(address uint16) byte {
	switch b.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return b.cart.Read(address)
	case regionWRAM:
		return b.wram[address-addr.WRAMStart]
	case regionIO:
		return b.readIO(address)
	default:
		b.logger.Debug("read from unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return 0x00
	}
}

func (b *Bus) readIO(address uint16) byte {
	switch {
	case address == addr.SB:
		return b.serial.Read(address)
	case address == addr.SC:
		return serialControlIdle
	case address >= addr.DIV && address <= addr.TAC:
		return b.timer.Read(address)
	case address == addr.IF:
		return b.interruptFlags
	case address == addr.LY:
		return b.lyValue
	case address == addr.IE:
		return b.interruptEnable
	case address >= addr.HRAMStart:
		return b.hram[address-addr.HRAMStart]
	default:
		return 0x00
	}
}

func (b *Bus) Write(address uint16, value byte) {
	switch b.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		b.cart.Write(address, value)
	case regionWRAM:
		b.wram[address-addr.WRAMStart] = value
	case regionIO:
		b.writeIO(address, value)
	default:
		b.logger.Debug("write to unmapped address",
			"addr", fmt.Sprintf("0x%04X", address),
			"value", fmt.Sprintf("0x%02X", value),
		)
	}
}

func (b *Bus) writeIO(address uint16, value byte) {
	switch {
	case address == addr.SB || address == addr.SC:
		b.serial.Write(address, value)
	case address >= addr.DIV && address <= addr.TAC:
		b.timer.Write(address, value)
	case address == addr.IF:
		b.interruptFlags = value
	case address == addr.IE:
		b.interruptEnable = value
	case address >= addr.HRAMStart:
		b.hram[address-addr.HRAMStart] = value
	}
}
