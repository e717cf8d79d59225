package conformance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmgcore/dmg/memory"
	"github.com/valerio/go-dmgcore/dmg/serial"
)

const romRoot = "../../test-roms"

// reporter sends the NUL terminated bytes at 0x0161 through SB/SC and STOPs.
var reporter = []byte{
	0x21, 0x61, 0x01, // LD HL,0x0161
	0x2A,       // LD A,(HL+)
	0xB7,       // OR A
	0x28, 0x08, // JR Z,+8
	0xE0, 0x01, // LDH (SB),A
	0x3E, 0x81, // LD A,0x81
	0xE0, 0x02, // LDH (SC),A
	0x18, 0xF4, // JR -12
	0x10, 0x00, // STOP
}

// spinner never reports anything.
var spinner = []byte{0x18, 0xFE}

func image(program []byte, message ...byte) []byte {
	data := make([]byte, 0x8000)
	copy(data[0x100:], []byte{0x00, 0xC3, 0x50, 0x01})
	copy(data[0x134:], "CONFORMANCE")
	copy(data[0x150:], program)
	copy(data[0x150+len(program):], message)
	memory.FixHeaderChecksum(data)
	return data
}

func cartridge(t *testing.T, data []byte) *memory.Cartridge {
	t.Helper()
	cart, err := memory.NewCartridgeWithData(data)
	require.NoError(t, err)
	return cart
}

func TestRun(t *testing.T) {
	fibonacci := []byte{3, 5, 8, 13, 21, 34, 0}
	failure := []byte{0x42, 0x42, 0x42, 0x42, 0x42, 0x42, 0}

	testCases := []struct {
		desc       string
		data       []byte
		family     Family
		wantPassed bool
		wantOutput string
	}{
		{
			desc:       "blargg pass",
			data:       image(reporter, []byte("cpu\nPassed\x00")...),
			family:     Blargg,
			wantPassed: true,
			wantOutput: "cpu\nPassed",
		},
		{
			desc:       "blargg failure",
			data:       image(reporter, []byte("cpu\nFailed #2\x00")...),
			family:     Blargg,
			wantOutput: "cpu\nFailed",
		},
		{
			desc:       "mooneye pass",
			data:       image(reporter, fibonacci...),
			family:     Mooneye,
			wantPassed: true,
			wantOutput: "358132134",
		},
		{
			desc:       "mooneye failure",
			data:       image(reporter, failure...),
			family:     Mooneye,
			wantOutput: "666666666666",
		},
		{
			desc:       "stop without marker",
			data:       image(reporter, []byte("nope\x00")...),
			family:     Blargg,
			wantOutput: "nope",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			result := Run(tC.desc, cartridge(t, tC.data), tC.family, WithMaxTicks(100_000))

			assert.Equal(t, tC.wantPassed, result.Passed)
			assert.Equal(t, tC.wantOutput, result.Output)
			assert.Equal(t, tC.family.Name, result.Family)
			assert.Less(t, result.Ticks, uint64(100_000))
		})
	}
}

func TestRunBudget(t *testing.T) {
	result := Run("spinner", cartridge(t, image(spinner)), Blargg, WithMaxTicks(5000))

	assert.False(t, result.Passed)
	assert.Equal(t, uint64(5000), result.Ticks)
	assert.Empty(t, result.Output)
}

func TestSuite(t *testing.T) {
	root := t.TempDir()
	family := Family{
		Name:    "synthetic",
		Mode:    serial.ModeRaw,
		Marker:  "Passed",
		LYValue: 0x90,
		ROMs:    []string{"pass.gb", "spin.gb", "missing.gb"},
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "pass.gb"), image(reporter, []byte("Passed\x00")...), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "spin.gb"), image(spinner), 0o644))

	summary, err := Suite(root, []Family{family}, WithMaxTicks(5000))
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, "pass", summary.Results[0].Name)
	assert.True(t, summary.Results[0].Passed)
	assert.Equal(t, "spin", summary.Results[1].Name)
	assert.False(t, summary.Results[1].Passed)
	assert.Equal(t, []string{filepath.Join(root, "missing.gb")}, summary.Missing)

	passed, failed := summary.Tally("synthetic")
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.False(t, summary.AllPassed())
	assert.Contains(t, summary.String(), "synthetic tests:\n\tPassed: 1\n\tFailed: 1\n")
	assert.Contains(t, summary.String(), "Missing: 1")
}

func TestSuiteLoadError(t *testing.T) {
	root := t.TempDir()
	family := Family{Name: "broken", Mode: serial.ModeRaw, Marker: "Passed", ROMs: []string{"short.gb"}}
	require.NoError(t, os.WriteFile(filepath.Join(root, "short.gb"), []byte{0x00, 0x01}, 0o644))

	_, err := Suite(root, []Family{family})
	assert.ErrorIs(t, err, memory.ErrROMTooSmall)
}

func runFamily(t *testing.T, family Family) {
	for _, rom := range family.ROMs {
		path := filepath.Join(romRoot, filepath.FromSlash(rom))
		t.Run(romName(path), func(t *testing.T) {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Skipf("ROM file not found: %s", path)
			}

			result, err := RunFile(path, family)
			require.NoError(t, err)
			assert.True(t, result.Passed, "serial output: %q", result.Output)
		})
	}
}

func TestMooneyeROMs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ROM tests in short mode")
	}
	runFamily(t, Mooneye)
}

func TestBlarggROMs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ROM tests in short mode")
	}
	runFamily(t, Blargg)
}
