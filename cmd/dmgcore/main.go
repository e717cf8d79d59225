package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/conformance"
	"github.com/valerio/go-dmgcore/dmg/monitor"
	"github.com/valerio/go-dmgcore/dmg/serial"
)

// ticks between two checks for an interrupt signal in run
const signalCheckInterval = 1 << 16

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("dmgcore failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Usage = "cycle-accurate DMG core for serial reporting test ROMs"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Before = setupLogging
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Run a ROM until it executes STOP or the tick budget is spent",
			ArgsUsage: "<ROM file>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "serial-mode",
					Usage: "How serial bytes are captured: off, raw or decimal",
					Value: serial.ModeRaw.String(),
				},
				cli.IntFlag{
					Name:  "ly",
					Usage: "Constant value returned by LY reads",
					Value: 0xFF,
				},
				cli.Uint64Flag{
					Name:  "max-ticks",
					Usage: "Stop after this many M-cycles (0 = no limit)",
				},
				cli.StringFlag{
					Name:  "trace",
					Usage: "Write a register trace line per instruction to this file",
				},
			},
			Action: runROM,
		},
		{
			Name:  "test",
			Usage: "Run the Mooneye and Blargg conformance ROMs",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "roms",
					Usage: "Directory holding the mooneye/ and blargg/ ROM trees",
					Value: "test-roms",
				},
				cli.Uint64Flag{
					Name:  "max-ticks",
					Usage: "Tick budget per ROM",
					Value: conformance.DefaultMaxTicks,
				},
			},
			Action: runSuite,
		},
		{
			Name:      "header",
			Usage:     "Print the cartridge header of a ROM",
			ArgsUsage: "<ROM file>",
			Action:    printHeader,
		},
		{
			Name:      "monitor",
			Usage:     "Run a ROM in the terminal monitor",
			ArgsUsage: "<ROM file>",
			Action:    runMonitor,
		},
	}
	return app
}

func setupLogging(c *cli.Context) error {
	level := slog.LevelInfo
	if c.GlobalBool("debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func romArg(c *cli.Context) (string, error) {
	if c.NArg() == 0 {
		cli.ShowCommandHelp(c, c.Command.Name)
		return "", errors.New("no ROM path provided")
	}
	return c.Args().First(), nil
}

// runConfig builds the system configuration from the run flags.
func runConfig(c *cli.Context) (dmg.Config, error) {
	mode, err := serial.ParseMode(c.String("serial-mode"))
	if err != nil {
		return dmg.Config{}, err
	}

	ly := c.Int("ly")
	if ly < 0 || ly > 0xFF {
		return dmg.Config{}, fmt.Errorf("--ly out of range: %d", ly)
	}

	return dmg.Config{
		SerialMode: mode,
		LYValue:    uint8(ly),
		MaxTicks:   c.Uint64("max-ticks"),
	}, nil
}

func runROM(c *cli.Context) error {
	path, err := romArg(c)
	if err != nil {
		return err
	}
	config, err := runConfig(c)
	if err != nil {
		return err
	}

	if name := c.String("trace"); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		defer w.Flush()
		config.Trace = w
	}

	gb, err := dmg.NewFromFile(path, config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var n uint64
	gb.RunUntil(func() bool {
		n++
		return n%signalCheckInterval == 0 && ctx.Err() != nil
	})

	slog.Info("run finished",
		"ticks", gb.Ticks(),
		"instructions", gb.CPU().Instructions(),
		"stopped", gb.Stopped(),
	)
	fmt.Fprintln(c.App.Writer, gb.Serial().Output())
	return nil
}

func runSuite(c *cli.Context) error {
	summary, err := conformance.Suite(c.String("roms"), conformance.Families,
		conformance.WithMaxTicks(c.Uint64("max-ticks")),
	)
	if err != nil {
		return err
	}

	for _, r := range summary.Results {
		status := "FAIL"
		if r.Passed {
			status = "PASS"
		}
		fmt.Fprintf(c.App.Writer, "%s %s/%s (%d ticks)\n", status, r.Family, r.Name, r.Ticks)
	}
	fmt.Fprint(c.App.Writer, summary)

	for _, r := range summary.Results {
		if !r.Passed {
			return errors.New("conformance suite failed")
		}
	}
	return nil
}

func printHeader(c *cli.Context) error {
	path, err := romArg(c)
	if err != nil {
		return err
	}
	gb, err := dmg.NewFromFile(path, dmg.DefaultConfig())
	if err != nil {
		return err
	}

	cart := gb.Cartridge()
	fmt.Fprintln(c.App.Writer, cart.Header())
	fmt.Fprintf(c.App.Writer, "Size: %d bytes\nFingerprint: %016x\n", cart.Size(), cart.Fingerprint())
	return nil
}

func runMonitor(c *cli.Context) error {
	path, err := romArg(c)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if c.GlobalBool("debug") {
		level = slog.LevelDebug
	}
	logs := monitor.NewLogBuffer(200)
	logger := slog.New(monitor.NewLogHandler(logs, level))
	slog.SetDefault(logger)

	config := dmg.DefaultConfig()
	config.Logger = logger
	gb, err := dmg.NewFromFile(path, config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return monitor.New(gb, monitor.WithLogBuffer(logs)).Run(ctx)
}
