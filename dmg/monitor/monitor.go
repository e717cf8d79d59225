// Package monitor is a terminal front end that runs a GameBoy while showing
// its registers, timer, interrupt state, upcoming instructions, serial
// output and log lines.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/disasm"
)

const (
	// about one LCD frame worth of M-cycles
	defaultTicksPerFrame = 17556
	defaultFrameTime     = time.Second / 60

	panelWidth    = 34
	statusHeight  = 14
	disasmLines   = 10
	minTermWidth  = 80
	minTermHeight = 24
)

// Monitor drives a GameBoy from a tcell event loop.
type Monitor struct {
	gb     *dmg.GameBoy
	screen tcell.Screen
	owned  bool // the screen was created here and must be finalized here

	logs     *LogBuffer
	logLevel slog.Level

	ticksPerFrame uint64
	frameTime     time.Duration

	paused  bool
	running bool
}

type Option func(*Monitor)

// WithScreen uses an already initialized screen instead of the terminal.
func WithScreen(s tcell.Screen) Option { return func(m *Monitor) { m.screen = s } }

// WithLogBuffer shows the entries captured in lb.
func WithLogBuffer(lb *LogBuffer) Option { return func(m *Monitor) { m.logs = lb } }

// WithTicksPerFrame sets how many M-cycles run between two redraws.
func WithTicksPerFrame(n uint64) Option { return func(m *Monitor) { m.ticksPerFrame = n } }

// WithFrameTime sets the redraw interval.
func WithFrameTime(d time.Duration) Option { return func(m *Monitor) { m.frameTime = d } }

func New(gb *dmg.GameBoy, opts ...Option) *Monitor {
	m := &Monitor{
		gb:            gb,
		logLevel:      slog.LevelInfo,
		ticksPerFrame: defaultTicksPerFrame,
		frameTime:     defaultFrameTime,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logs == nil {
		m.logs = NewLogBuffer(100)
	}
	return m
}

// Run shows the monitor until the user quits or ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	if m.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		m.screen = screen
		m.owned = true
	}
	if m.owned {
		defer m.screen.Fini()
	}

	m.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	m.screen.Clear()

	ticker := time.NewTicker(m.frameTime)
	defer ticker.Stop()

	m.running = true
	for {
		m.processEvents()
		if !m.running {
			return nil
		}

		if !m.paused {
			m.advance()
		}
		m.draw()
		m.screen.Show()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) processEvents() {
	for m.screen.HasPendingEvent() {
		switch ev := m.screen.PollEvent().(type) {
		case *tcell.EventKey:
			m.handleKey(ev)
		case *tcell.EventResize:
			m.screen.Sync()
		}
	}
}

func (m *Monitor) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		m.running = false
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q':
		m.running = false
	case ' ':
		m.paused = !m.paused
		slog.Debug("monitor pause toggled", "paused", m.paused)
	case 'n':
		m.paused = true
		m.gb.Step()
	case 'r':
		m.gb.Reset()
		slog.Info("monitor reset")
	case '+':
		m.changeLogLevel(-4)
	case '-':
		m.changeLogLevel(4)
	}
}

// changeLogLevel moves the display filter by one slog level step.
func (m *Monitor) changeLogLevel(delta slog.Level) {
	level := m.logLevel + delta
	if level < slog.LevelDebug || level > slog.LevelError {
		return
	}
	m.logLevel = level
}

// advance runs one frame worth of ticks.
func (m *Monitor) advance() {
	var n uint64
	m.gb.RunUntil(func() bool {
		n++
		return n > m.ticksPerFrame
	})
}

func (m *Monitor) status() string {
	switch {
	case m.gb.Stopped():
		return "STOPPED"
	case m.paused:
		return "PAUSED"
	case m.gb.CPU().Halted():
		return "HALTED"
	default:
		return "RUNNING"
	}
}

func (m *Monitor) statusLines() []string {
	c := m.gb.CPU()
	bus := m.gb.Bus()
	regs := c.Registers()
	timer := bus.Timer()

	ime := "OFF"
	if c.InterruptsEnabled() {
		ime = "ON"
	}

	return []string{
		fmt.Sprintf("Status: %s", m.status()),
		fmt.Sprintf("A: 0x%02X  F: 0x%02X", regs.A, regs.F),
		fmt.Sprintf("B: 0x%02X  C: 0x%02X", regs.B, regs.C),
		fmt.Sprintf("D: 0x%02X  E: 0x%02X", regs.D, regs.E),
		fmt.Sprintf("H: 0x%02X  L: 0x%02X", regs.H, regs.L),
		fmt.Sprintf("SP: 0x%04X  PC: 0x%04X", regs.SP, regs.PC),
		fmt.Sprintf("Flags: %s", flagString(regs.F)),
		fmt.Sprintf("IME: %s  IE: 0x%02X  IF: 0x%02X", ime, bus.InterruptEnable(), bus.InterruptFlags()),
		fmt.Sprintf("DIV: 0x%02X  counter: 0x%04X", timer.Divider(), timer.Counter()),
		fmt.Sprintf("TIMA: 0x%02X  TMA: 0x%02X  TAC: 0x%02X",
			bus.Read(addr.TIMA), bus.Read(addr.TMA), bus.Read(addr.TAC)),
		fmt.Sprintf("Ticks: %d", m.gb.Ticks()),
		fmt.Sprintf("Instructions: %d", c.Instructions()),
	}
}

func flagString(f uint8) string {
	names := []byte("ZNHC")
	for i := range names {
		if f&(0x80>>i) == 0 {
			names[i] = '-'
		}
	}
	return string(names)
}

func (m *Monitor) draw() {
	m.screen.Clear()

	width, height := m.screen.Size()
	if width < minTermWidth || height < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		m.drawText(0, height/2, width, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dividerX := panelWidth + 1
	rightX := dividerX + 2
	rightWidth := width - rightX

	for y := 0; y < height-1; y++ {
		m.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}

	title := m.gb.Cartridge().Header().Title
	m.drawText(1, 0, panelWidth, "CPU "+title, titleStyle)
	regStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range m.statusLines() {
		m.drawText(1, 1+i, panelWidth, line, regStyle)
	}

	disasmY := statusHeight + 1
	m.drawText(1, disasmY, panelWidth, "Disassembly", titleStyle)
	pc := m.gb.CPU().GetPC()
	for i, line := range disasm.Range(m.gb.Bus(), pc, disasmLines) {
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		if line.Address == pc {
			style = style.Bold(true).Foreground(tcell.ColorWhite)
		}
		m.drawText(1, disasmY+1+i, panelWidth, line.Format(line.Address == pc), style)
	}

	// the right side is split between serial output and logs
	serialHeight := (height - 2) / 2
	m.drawText(rightX, 0, rightWidth, fmt.Sprintf("Serial (%s)", m.gb.Serial().Mode()), titleStyle)
	serialLines := tail(wrap(m.gb.Serial().Output(), rightWidth), serialHeight-1)
	for i, line := range serialLines {
		m.drawText(rightX, 1+i, rightWidth, line, tcell.StyleDefault)
	}

	logsY := serialHeight + 1
	m.drawText(rightX, logsY, rightWidth, fmt.Sprintf("Logs (%s)", m.logLevel), titleStyle)
	m.drawLogs(rightX, logsY+1, rightWidth, height-logsY-2)

	help := "space: pause  n: step  r: reset  +/-: log level  q: quit"
	m.drawText(1, height-1, width-1, help, borderStyle)
}

func (m *Monitor) drawLogs(x, y, width, lines int) {
	if lines <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range m.logs.Recent(lines, m.logLevel) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}

		text := entry.String()
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		m.drawText(x, y+i, width, text, style)
	}
}

// drawText writes text on one row, clipped to width cells.
func (m *Monitor) drawText(x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, ch := range text {
		if col >= width {
			return
		}
		m.screen.SetContent(x+col, y, ch, nil, style)
		col++
	}
}

// wrap splits text into lines, breaking on newlines and at width.
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(strings.TrimRight(line, "\r"))
		for len(runes) > width {
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		lines = append(lines, string(runes))
	}
	return lines
}

func tail(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
