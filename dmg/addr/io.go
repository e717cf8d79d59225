package addr

// memory map regions
const (
	// ROMStart is the first cartridge ROM address (bank 0).
	ROMStart uint16 = 0x0000
	// ROMEnd is the last cartridge ROM address (switchable bank window included).
	ROMEnd uint16 = 0x7FFF
	// ExtRAMStart is the start of the cartridge RAM window.
	ExtRAMStart uint16 = 0xA000
	// ExtRAMEnd is the end of the cartridge RAM window.
	ExtRAMEnd uint16 = 0xBFFF
	// WRAMStart is the start of the 8 KiB work RAM.
	WRAMStart uint16 = 0xC000
	// WRAMEnd is the end of the 8 KiB work RAM.
	WRAMEnd uint16 = 0xDFFF
	// HRAMStart is the start of high RAM.
	HRAMStart uint16 = 0xFF80
	// HRAMEnd is the end of high RAM.
	HRAMEnd uint16 = 0xFFFE
)

// ZeroPage is the base of the 0xFF00 page used by LDH and LD (C) addressing.
const ZeroPage uint16 = 0xFF00

// gpu registers
const (
	// LY is the LCDC Y-Coordinate register. Graphics are stubbed, reads return a fixed value.
	LY uint16 = 0xFF44
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// serial I/O
const (
	// SB (Serial transfer data, 0xFF01)
	//
	// Holds the 8-bit data to be transmitted. Test ROMs write the character
	// they want to print here before starting a transfer through SC.
	SB uint16 = 0xFF01
	// SC (Serial transfer control, 0xFF02)
	//  - Bit 7 (Start): Writing 1 starts an 8-bit transfer; hardware clears to 0 when done.
	//  - Bit 0 (Clock): 1=internal clock, 0=external clock.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register. Reads a slice of the internal counter, writing to it resets the counter.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter register. Generates an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo register. When TIMA overflows, this data will be loaded.
	TMA uint16 = 0xFF06
	// TAC is the timer control register. Used to start/stop and control the timer clock.
	TAC uint16 = 0xFF07
)

// Interrupt is an enum that represents one of the possible interrupts.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the GPU has completed a frame.
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt is fired based on one of the conditions in the LCDSTAT register.
	LCDSTATInterrupt Interrupt = 1 << 1
	// TimerInterrupt is fired when the timer register (TIMA) overflows (i.e. goes from 0xFF to 0x00).
	TimerInterrupt Interrupt = 1 << 2
	// SerialInterrupt is fired when a serial transfer has completed on the game link port.
	SerialInterrupt Interrupt = 1 << 3
	// JoypadInterrupt is fired when any of the keypad inputs goes from high to low.
	// Defined by the hardware but never serviced by this core.
	JoypadInterrupt Interrupt = 1 << 4
)

// ServicedInterrupts is the number of interrupt sources the CPU scans, from bit 0 upwards.
const ServicedInterrupts = 4

// Vector returns the handler address for the interrupt at the given bit index.
// Handlers are spaced 8 bytes apart: 0x40, 0x48, 0x50, 0x58.
func Vector(index uint8) uint16 {
	return 0x40 + uint16(index)*8
}
