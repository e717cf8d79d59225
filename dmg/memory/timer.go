package memory

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
)

// tacLookup maps TAC input clock select (bits 1–0) to the bit position
// of the internal counter used as the timer's clock source. TIMA increments
// on falling edges of this selected bit while the timer is enabled (TAC bit 2).
//
// The counter advances once per M-cycle, so every position sits two bits
// lower than the T-cycle based mapping found in Pan Docs:
//
//	00 -> bit 7 (4096 Hz)
//	01 -> bit 1 (262144 Hz)
//	10 -> bit 3 (65536 Hz)
//	11 -> bit 5 (16384 Hz)
var tacLookup = [4]uint8{7, 1, 3, 5}

const (
	// counter value at PC=0x0100 on a DMG, DIV reads 0xAB
	timerSeed uint16 = 0x2AF3

	tacEnableBit    uint8 = 2
	tacWritableMask uint8 = 0x07
	tacUnusedBits   uint8 = 0xF8

	// DIV exposes bits 6-13 of the counter.
	divShift = 6
)

// Timer encapsulates the DIV/TIMA/TMA/TAC behavior, clocked once per M-cycle.
// It holds no reference to the bus: Tick reports when the timer interrupt
// has to be requested and the caller raises it.
type Timer struct {
	counter uint16

	tima byte
	tma  byte
	tac  byte

	// TIMA overflowed on the last increment, the TMA reload happens next tick.
	reloading bool
	// The reload happened during the current tick, TIMA writes are dropped.
	justReloaded bool
	// TIMA was written since the last tick, cancels a pending reload.
	timaWritten bool
}

// NewTimer returns a timer in its power-on state.
func NewTimer() *Timer {
	t := &Timer{}
	t.Reset()
	return t
}

// Reset puts the timer back to its power-on state.
func (t *Timer) Reset() {
	t.counter = timerSeed
	t.tima = 0
	t.tma = 0
	t.tac = tacUnusedBits
	t.reloading = false
	t.justReloaded = false
	t.timaWritten = false
}

// Tick advances the timer by one M-cycle. It returns true when the timer
// interrupt has to be requested, i.e. on the tick after a TIMA overflow
// unless TIMA was written in between.
func (t *Timer) Tick() bool {
	requestInterrupt := false

	t.justReloaded = false

	if t.reloading {
		t.reloading = false
		t.justReloaded = true

		if !t.timaWritten {
			t.tima = t.tma
			requestInterrupt = true
		}
	}

	t.timaWritten = false

	t.setCounter(t.counter + 1)

	return requestInterrupt
}

// Counter returns the internal 16 bit counter.
func (t *Timer) Counter() uint16 {
	return t.counter
}

// Divider returns the value visible through the DIV register.
func (t *Timer) Divider() byte {
	return byte(t.counter >> divShift)
}

// ResetDivider clears the counter without any edge side effect. Used when the
// CPU enters STOP, after which the timer is no longer clocked.
func (t *Timer) ResetDivider() {
	t.counter = 0
}

func (t *Timer) enabled() bool {
	return bit.IsSet(tacEnableBit, t.tac)
}

// timerBit returns the state of the counter bit selected by the given TAC value.
func timerBit(tac byte, counter uint16) bool {
	return bit.IsSet16(tacLookup[tac&0x03], counter)
}

// setCounter updates the counter, incrementing TIMA on a falling edge of the
// selected bit. Shared by regular ticks and DIV writes.
func (t *Timer) setCounter(value uint16) {
	if t.enabled() && timerBit(t.tac, t.counter) && !timerBit(t.tac, value) {
		t.incrementTIMA()
	}

	t.counter = value
}

// writeTAC handles the TAC glitch: the timer clock is the AND of the enable
// bit and the selected counter bit, so a write that drives it from 1 to 0
// counts as a falling edge.
func (t *Timer) writeTAC(value byte) {
	before := t.enabled() && timerBit(t.tac, t.counter)
	after := bit.IsSet(tacEnableBit, value) && timerBit(value, t.counter)

	if before && !after {
		t.incrementTIMA()
	}

	t.tac = tacUnusedBits | (value & tacWritableMask)
}

func (t *Timer) incrementTIMA() {
	t.tima++

	if t.tima == 0x00 {
		t.reloading = true
	}
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return t.Divider()
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.setCounter(0)
	case addr.TIMA:
		// dropped during the reload tick, TMA wins there
		if !t.justReloaded {
			t.tima = value
			t.timaWritten = true
		}
	case addr.TMA:
		t.tma = value
		// the reload latch is still open: the new TMA goes through to TIMA
		if t.justReloaded {
			t.tima = value
		}
	case addr.TAC:
		t.writeTAC(value)
	}
}
