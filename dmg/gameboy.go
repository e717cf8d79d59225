package dmg

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-dmgcore/dmg/cpu"
	"github.com/valerio/go-dmgcore/dmg/memory"
	"github.com/valerio/go-dmgcore/dmg/serial"
)

// stepTickLimit bounds Step when nothing executes, e.g. while halted.
const stepTickLimit = 1024

// Config controls how a GameBoy is assembled.
type Config struct {
	// SerialMode selects how SB writes are captured.
	SerialMode serial.Mode
	// LYValue is the constant returned by LY reads.
	LYValue uint8
	// MaxTicks stops Run after this many M-cycles since reset, 0 means no limit.
	MaxTicks uint64
	// Trace receives a register dump before every instruction when set.
	Trace io.Writer
	// SerialEcho receives serial output as it is captured when set.
	SerialEcho io.Writer
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig captures serial output as text and reads LY as 0xFF.
func DefaultConfig() Config {
	return Config{
		SerialMode: serial.ModeRaw,
		LYValue:    memory.LYDefault,
	}
}

// GameBoy owns and wires together the components of the system.
type GameBoy struct {
	cart   *memory.Cartridge
	serial *serial.Sink
	bus    *memory.Bus
	cpu    *cpu.CPU
	config Config
}

// New assembles a system around the cartridge, in its post boot state.
func New(cart *memory.Cartridge, config Config) *GameBoy {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serialOpts := []serial.Option{serial.WithMode(config.SerialMode), serial.WithLogger(logger)}
	if config.SerialEcho != nil {
		serialOpts = append(serialOpts, serial.WithEcho(config.SerialEcho))
	}
	sink := serial.New(serialOpts...)

	bus := memory.NewWithCartridge(cart,
		memory.WithSerial(sink),
		memory.WithLYValue(config.LYValue),
		memory.WithLogger(logger),
	)

	cpuOpts := []cpu.Option{cpu.WithLogger(logger)}
	if config.Trace != nil {
		cpuOpts = append(cpuOpts, cpu.WithTrace(config.Trace))
	}
	processor := cpu.New(bus, cpuOpts...)
	bus.ConnectCPU(processor)

	return &GameBoy{
		cart:   cart,
		serial: sink,
		bus:    bus,
		cpu:    processor,
		config: config,
	}
}

// NewFromFile loads the ROM at path (see LoadFile) and assembles a system around it.
func NewFromFile(path string, config Config) (*GameBoy, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return New(cart, config), nil
}

// Tick advances the whole system by one M-cycle.
func (g *GameBoy) Tick() {
	g.bus.Tick()
}

// Run ticks until the CPU stops or the tick budget is spent. It returns the
// number of ticks executed by this call.
func (g *GameBoy) Run() uint64 {
	return g.RunUntil(nil)
}

// RunUntil is Run with an extra exit condition, checked before every tick.
func (g *GameBoy) RunUntil(done func() bool) uint64 {
	start := g.bus.Ticks()

	for !g.cpu.Stopped() {
		if g.config.MaxTicks > 0 && g.bus.Ticks() >= g.config.MaxTicks {
			break
		}
		if done != nil && done() {
			break
		}
		g.bus.Tick()
	}

	return g.bus.Ticks() - start
}

// Step ticks until one more instruction has executed. A halted or stopped
// CPU may return without executing anything.
func (g *GameBoy) Step() {
	executed := g.cpu.Instructions()
	for i := 0; i < stepTickLimit && !g.cpu.Stopped(); i++ {
		g.bus.Tick()
		if g.cpu.Instructions() != executed {
			return
		}
	}
}

// Reset brings every component back to its power-on state, keeping the cartridge.
func (g *GameBoy) Reset() {
	g.bus.Reset()
	g.serial.Reset()
	g.cpu.Reset()
}

// Stopped reports whether the CPU executed STOP.
func (g *GameBoy) Stopped() bool {
	return g.cpu.Stopped()
}

// Ticks returns the M-cycles elapsed since reset.
func (g *GameBoy) Ticks() uint64 {
	return g.bus.Ticks()
}

func (g *GameBoy) CPU() *cpu.CPU {
	return g.cpu
}

func (g *GameBoy) Bus() *memory.Bus {
	return g.bus
}

func (g *GameBoy) Serial() *serial.Sink {
	return g.serial
}

func (g *GameBoy) Cartridge() *memory.Cartridge {
	return g.cart
}

func (g *GameBoy) Config() Config {
	return g.config
}
