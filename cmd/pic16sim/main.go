// Command pic16sim loads an Intel HEX firmware image into a PIC16 emulator
// and runs it, optionally under the interactive debugger or with the
// AE-GraphicLCD peripheral trace instead of the default pinout viewer.
package main

import (
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/kobolt/pic16sim/internal/debugger"
	"github.com/kobolt/pic16sim/internal/memory"
	"github.com/kobolt/pic16sim/internal/peripheral"
	"github.com/kobolt/pic16sim/internal/pic"
)

func main() {
	app := &cli.App{
		Name:      "pic16sim",
		Usage:     "instruction-level emulator for a PIC16-family microcontroller",
		ArgsUsage: "<hex-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "break into debugger on start"},
			&cli.BoolFlag{Name: "aegl", Aliases: []string{"a"}, Usage: "AE-GraphicLCD trace and command mode"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx *cli.Context) error {
	hexFile := ctx.Args().First()
	if hexFile == "" {
		return cli.Exit("missing hex-file argument", 1)
	}

	mem := memory.New()
	if err := mem.Load(hexFile); err != nil {
		log.Error("unable to load HEX file", "path", hexFile, "err", err)
		return cli.Exit(err, 1)
	}
	log.Info("loaded firmware", "path", hexFile)

	cpu := pic.New(mem)

	if ctx.Bool("aegl") {
		cpu.SetHooks(peripheral.NewLCDObserver())
		cpu.InPortA = 0x10 // JP1 input disables DEMO mode, per the original AE-GraphicLCD shim
	} else {
		cpu.SetHooks(peripheral.NewPinoutObserver())
	}

	pendingBreak := &atomic.Bool{}
	pendingBreak.Store(ctx.Bool("debug"))
	installSignalHandler(pendingBreak)

	return driveLoop(cpu, pendingBreak)
}

// installSignalHandler sets pendingBreak on SIGINT, the cooperative
// substitute for the original's sig_atomic_t flag.
func installSignalHandler(pendingBreak *atomic.Bool) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	go func() {
		for range sigCh {
			pendingBreak.Store(true)
		}
	}()
}

// driveLoop runs freely until something raises pendingBreak (a fault, a
// breakpoint hit, or SIGINT), then hands the session over to the debugger,
// which owns stepping, continuing and breakpoints from that point on. This
// matches the original's free-run/debugger alternation while letting the
// TUI manage its own continue loop once entered.
func driveLoop(cpu *pic.CPU, pendingBreak *atomic.Bool) error {
	for !pendingBreak.Load() {
		if err := pic.Execute(cpu); err != nil {
			var fault *pic.FaultError
			if errors.As(err, &fault) {
				pendingBreak.Store(true)
				break
			}
			return cli.Exit(err, 1)
		}
	}

	if err := debugger.Run(cpu, pendingBreak, false); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}
