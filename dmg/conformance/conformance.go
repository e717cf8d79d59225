// Package conformance runs test ROMs that report their result through the
// serial port, and tallies the outcome per ROM family.
package conformance

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/memory"
	"github.com/valerio/go-dmgcore/dmg/serial"
)

// DefaultMaxTicks is the budget given to each ROM, roughly 48 emulated seconds.
const DefaultMaxTicks = 50_000_000

// Family is a group of test ROMs sharing the same reporting convention.
type Family struct {
	Name string
	// Mode is how the ROMs' serial bytes are rendered.
	Mode serial.Mode
	// Marker is the serial output suffix that signals a pass.
	Marker string
	// FailMarker ends the run early as a failure, optional.
	FailMarker string
	LYValue    uint8
	// ROMs are paths relative to the suite root.
	ROMs []string
}

// Mooneye ROMs send the Fibonacci bytes 3 5 8 13 21 34 on success and 0x42
// six times on failure.
var Mooneye = Family{
	Name:       "mooneye",
	Mode:       serial.ModeDecimal,
	Marker:     "358132134",
	FailMarker: "666666666666",
	LYValue:    memory.LYDefault,
	ROMs: []string{
		"mooneye/acceptance/timer/div_write.gb",
		"mooneye/acceptance/timer/rapid_toggle.gb",
		"mooneye/acceptance/timer/tim00.gb",
		"mooneye/acceptance/timer/tim00_div_trigger.gb",
		"mooneye/acceptance/timer/tim01.gb",
		"mooneye/acceptance/timer/tim01_div_trigger.gb",
		"mooneye/acceptance/timer/tim10.gb",
		"mooneye/acceptance/timer/tim10_div_trigger.gb",
		"mooneye/acceptance/timer/tim11.gb",
		"mooneye/acceptance/timer/tim11_div_trigger.gb",
		"mooneye/acceptance/timer/tima_reload.gb",
		"mooneye/acceptance/timer/tima_write_reloading.gb",
		"mooneye/acceptance/timer/tma_write_reloading.gb",
		"mooneye/acceptance/instr/daa.gb",
	},
}

// Blargg ROMs print a text report ending in "Passed" or "Failed". They wait
// for LY to reach 0x90 before starting.
var Blargg = Family{
	Name:       "blargg",
	Mode:       serial.ModeRaw,
	Marker:     "Passed",
	FailMarker: "Failed",
	LYValue:    0x90,
	ROMs: []string{
		"blargg/instr_timing/instr_timing.gb",
		"blargg/cpu_instrs/individual/01-special.gb",
		"blargg/cpu_instrs/individual/02-interrupts.gb",
		"blargg/cpu_instrs/individual/03-op sp,hl.gb",
		"blargg/cpu_instrs/individual/04-op r,imm.gb",
		"blargg/cpu_instrs/individual/05-op rp.gb",
		"blargg/cpu_instrs/individual/06-ld r,r.gb",
		"blargg/cpu_instrs/individual/07-jr,jp,call,ret,rst.gb",
		"blargg/cpu_instrs/individual/08-misc instrs.gb",
		"blargg/cpu_instrs/individual/09-op r,r.gb",
		"blargg/cpu_instrs/individual/10-bit ops.gb",
		"blargg/cpu_instrs/individual/11-op a,(hl).gb",
	},
}

// Families is the full suite, in the order it runs.
var Families = []Family{Mooneye, Blargg}

// Result is the outcome of one ROM.
type Result struct {
	Name   string
	Family string
	Passed bool
	Ticks  uint64
	Output string
}

type settings struct {
	maxTicks uint64
	logger   *slog.Logger
}

type Option func(*settings)

// WithMaxTicks sets the per ROM tick budget.
func WithMaxTicks(n uint64) Option { return func(s *settings) { s.maxTicks = n } }

// WithLogger sets the logger handed to the emulated system and used for progress.
func WithLogger(l *slog.Logger) Option { return func(s *settings) { s.logger = l } }

func newSettings(opts []Option) settings {
	s := settings{maxTicks: DefaultMaxTicks, logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Run executes cart from reset until the family's marker shows up in the
// serial output, the CPU stops, or the budget runs out. Only the marker
// counts as a pass.
func Run(name string, cart *memory.Cartridge, family Family, opts ...Option) Result {
	s := newSettings(opts)

	gb := dmg.New(cart, dmg.Config{
		SerialMode: family.Mode,
		LYValue:    family.LYValue,
		MaxTicks:   s.maxTicks,
		Logger:     s.logger,
	})
	sink := gb.Serial()

	var (
		seen   int
		passed bool
		failed bool
	)
	ticks := gb.RunUntil(func() bool {
		if sink.Len() == seen {
			return false
		}
		seen = sink.Len()
		passed = sink.HasSuffix(family.Marker)
		failed = family.FailMarker != "" && sink.HasSuffix(family.FailMarker)
		return passed || failed
	})

	// the marker may be completed by the tick that ended the run
	if !passed && !failed {
		passed = sink.HasSuffix(family.Marker)
	}

	result := Result{
		Name:   name,
		Family: family.Name,
		Passed: passed,
		Ticks:  ticks,
		Output: sink.Output(),
	}
	s.logger.Info("conformance rom finished",
		"family", family.Name,
		"rom", name,
		"passed", result.Passed,
		"ticks", result.Ticks,
	)
	return result
}

// RunFile loads the ROM at path and runs it. Errors are load failures only.
func RunFile(path string, family Family, opts ...Option) (Result, error) {
	data, err := dmg.LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return Run(romName(path), cart, family, opts...), nil
}

func romName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Summary collects the results of a suite run.
type Summary struct {
	Results []Result
	// Missing lists ROM paths that were not found under the suite root.
	Missing []string
}

// Tally returns the passed and failed counts for a family.
func (s Summary) Tally(family string) (passed, failed int) {
	for _, r := range s.Results {
		if r.Family != family {
			continue
		}
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// AllPassed is true when every ROM ran and passed.
func (s Summary) AllPassed() bool {
	if len(s.Missing) > 0 {
		return false
	}
	for _, r := range s.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (s Summary) String() string {
	var b strings.Builder
	seen := map[string]bool{}
	for _, r := range s.Results {
		if seen[r.Family] {
			continue
		}
		seen[r.Family] = true
		passed, failed := s.Tally(r.Family)
		fmt.Fprintf(&b, "%s tests:\n\tPassed: %d\n\tFailed: %d\n", r.Family, passed, failed)
	}
	if len(s.Missing) > 0 {
		fmt.Fprintf(&b, "Missing: %d\n", len(s.Missing))
	}
	return b.String()
}

// Suite runs every family's ROMs found under root. Missing ROMs are listed in
// the summary; an image that exists but fails to load is an error.
func Suite(root string, families []Family, opts ...Option) (Summary, error) {
	s := newSettings(opts)

	var summary Summary
	for _, family := range families {
		for _, rom := range family.ROMs {
			path := filepath.Join(root, filepath.FromSlash(rom))
			if _, err := os.Stat(path); err != nil {
				s.logger.Warn("conformance rom missing", "path", path)
				summary.Missing = append(summary.Missing, path)
				continue
			}

			result, err := RunFile(path, family, opts...)
			if err != nil {
				return summary, err
			}
			summary.Results = append(summary.Results, result)
		}
	}
	return summary, nil
}
