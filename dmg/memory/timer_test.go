package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dmgcore/dmg/addr"
)

func TestTimerPowerOn(t *testing.T) {
	timer := NewTimer()

	assert.Equal(t, uint16(0x2AF3), timer.Counter())
	assert.Equal(t, byte(0xAB), timer.Read(addr.DIV))
	assert.Equal(t, byte(0x00), timer.Read(addr.TIMA))
	assert.Equal(t, byte(0x00), timer.Read(addr.TMA))
	assert.Equal(t, byte(0xF8), timer.Read(addr.TAC))
}

func TestTimerFallingEdge(t *testing.T) {
	testCases := []struct {
		desc     string
		tac      byte
		counter  uint16
		wantTIMA byte
	}{
		{desc: "bit 7 falls", tac: 0x04, counter: 0x00FF, wantTIMA: 1},
		{desc: "bit 7 rises", tac: 0x04, counter: 0x007F, wantTIMA: 0},
		{desc: "bit 1 falls", tac: 0x05, counter: 0x0003, wantTIMA: 1},
		{desc: "bit 3 falls", tac: 0x06, counter: 0x000F, wantTIMA: 1},
		{desc: "bit 5 falls", tac: 0x07, counter: 0x003F, wantTIMA: 1},
		{desc: "bit 5 steady", tac: 0x07, counter: 0x0020, wantTIMA: 0},
		{desc: "disabled", tac: 0x00, counter: 0x00FF, wantTIMA: 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			timer := NewTimer()
			timer.tac = tacUnusedBits | tC.tac
			timer.counter = tC.counter

			timer.Tick()

			assert.Equal(t, tC.counter+1, timer.Counter())
			assert.Equal(t, tC.wantTIMA, timer.Read(addr.TIMA))
		})
	}
}

func TestTimerFrequencies(t *testing.T) {
	testCases := []struct {
		tac    byte
		period int
	}{
		{0x04, 256},
		{0x05, 4},
		{0x06, 16},
		{0x07, 64},
	}
	for _, tC := range testCases {
		t.Run(fmt.Sprintf("TAC 0x%02X", tC.tac), func(t *testing.T) {
			timer := NewTimer()
			timer.counter = 0
			timer.Write(addr.TAC, tC.tac)

			for i := 0; i < tC.period*10; i++ {
				timer.Tick()
			}

			assert.Equal(t, byte(10), timer.Read(addr.TIMA))
		})
	}
}

// overflowTimer leaves the timer right after the tick in which TIMA wrapped.
func overflowTimer(t *testing.T) *Timer {
	timer := NewTimer()
	timer.Write(addr.TAC, 0x05)
	timer.Write(addr.TMA, 0x42)
	timer.tima = 0xFF
	timer.counter = 0x0003

	irq := timer.Tick()

	assert.False(t, irq)
	assert.Equal(t, byte(0x00), timer.Read(addr.TIMA))
	return timer
}

func TestTimerOverflowReload(t *testing.T) {
	timer := overflowTimer(t)

	irq := timer.Tick()

	assert.True(t, irq)
	assert.Equal(t, byte(0x42), timer.Read(addr.TIMA))

	// one interrupt per overflow
	assert.False(t, timer.Tick())
}

func TestTimerWriteDuringOverflowCancelsReload(t *testing.T) {
	timer := overflowTimer(t)

	timer.Write(addr.TIMA, 0x10)
	irq := timer.Tick()

	assert.False(t, irq)
	assert.Equal(t, byte(0x10), timer.Read(addr.TIMA))
}

func TestTimerWritesDuringReloadTick(t *testing.T) {
	t.Run("TIMA write ignored", func(t *testing.T) {
		timer := overflowTimer(t)
		assert.True(t, timer.Tick())

		timer.Write(addr.TIMA, 0x10)

		assert.Equal(t, byte(0x42), timer.Read(addr.TIMA))
	})

	t.Run("TMA write forwarded", func(t *testing.T) {
		timer := overflowTimer(t)
		assert.True(t, timer.Tick())

		timer.Write(addr.TMA, 0x77)

		assert.Equal(t, byte(0x77), timer.Read(addr.TIMA))
		assert.Equal(t, byte(0x77), timer.Read(addr.TMA))
	})

	t.Run("latch closes on the next tick", func(t *testing.T) {
		timer := overflowTimer(t)
		assert.True(t, timer.Tick())
		timer.Tick()

		timer.Write(addr.TIMA, 0x10)
		timer.Write(addr.TMA, 0x20)

		assert.Equal(t, byte(0x10), timer.Read(addr.TIMA))
	})
}

func TestTimerDIVWrite(t *testing.T) {
	t.Run("resets counter", func(t *testing.T) {
		timer := NewTimer()
		timer.Write(addr.DIV, 0x12)

		assert.Equal(t, uint16(0), timer.Counter())
		assert.Equal(t, byte(0), timer.Read(addr.DIV))
	})

	t.Run("falling edge increments TIMA", func(t *testing.T) {
		timer := NewTimer()
		timer.Write(addr.TAC, 0x04)
		timer.counter = 0x0080

		timer.Write(addr.DIV, 0x00)

		assert.Equal(t, byte(1), timer.Read(addr.TIMA))
	})

	t.Run("no edge no increment", func(t *testing.T) {
		timer := NewTimer()
		timer.Write(addr.TAC, 0x04)
		timer.counter = 0x0040

		timer.Write(addr.DIV, 0x00)

		assert.Equal(t, byte(0), timer.Read(addr.TIMA))
	})
}

func TestTimerTACGlitch(t *testing.T) {
	testCases := []struct {
		desc     string
		oldTAC   byte
		newTAC   byte
		counter  uint16
		wantTIMA byte
	}{
		{desc: "disable with selected bit high", oldTAC: 0x04, newTAC: 0x00, counter: 0x0080, wantTIMA: 1},
		{desc: "disable with selected bit low", oldTAC: 0x04, newTAC: 0x00, counter: 0x0040, wantTIMA: 0},
		{desc: "select change high to low", oldTAC: 0x04, newTAC: 0x05, counter: 0x0080, wantTIMA: 1},
		{desc: "select change high to high", oldTAC: 0x04, newTAC: 0x05, counter: 0x0082, wantTIMA: 0},
		{desc: "select change low to high", oldTAC: 0x05, newTAC: 0x04, counter: 0x0080, wantTIMA: 0},
		{desc: "disabled timer select change", oldTAC: 0x00, newTAC: 0x01, counter: 0x0080, wantTIMA: 0},
		{desc: "enable", oldTAC: 0x00, newTAC: 0x04, counter: 0x0080, wantTIMA: 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			timer := NewTimer()
			timer.tac = tacUnusedBits | tC.oldTAC
			timer.counter = tC.counter

			timer.Write(addr.TAC, tC.newTAC)

			assert.Equal(t, tC.wantTIMA, timer.Read(addr.TIMA))
		})
	}
}

func TestTimerTACReadBack(t *testing.T) {
	timer := NewTimer()

	timer.Write(addr.TAC, 0x05)
	assert.Equal(t, byte(0xFD), timer.Read(addr.TAC))

	timer.Write(addr.TAC, 0xFF)
	assert.Equal(t, byte(0xFF), timer.Read(addr.TAC))

	timer.Write(addr.TAC, 0x00)
	assert.Equal(t, byte(0xF8), timer.Read(addr.TAC))
}

func TestTimerResetDividerHasNoEdge(t *testing.T) {
	timer := NewTimer()
	timer.Write(addr.TAC, 0x04)
	timer.counter = 0x0080

	timer.ResetDivider()

	assert.Equal(t, uint16(0), timer.Counter())
	assert.Equal(t, byte(0), timer.Read(addr.TIMA))
}
