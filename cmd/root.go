// Package cmd wires up the CLI flags and starts a monitor session.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"telemon/config"
	"telemon/internal/console"
	"telemon/internal/core"
	"telemon/internal/metrics"
	"telemon/internal/render"
	"telemon/internal/transport"
	"telemon/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X telemon/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// streams are the process-level collaborators.  Tests substitute pipes
// and buffers.
type streams struct {
	in     *os.File
	out    io.Writer
	errOut io.Writer

	// opener overrides the termios SerialOpener when set.
	opener transport.Opener
}

// Execute parses args and runs a monitor session on the process's
// terminal.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr})
}

func execute(ctx context.Context, args []string, std streams) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("telemon", flag.ContinueOnError)
	fs.SetOutput(std.errOut)

	// ── inputs ───────────────────────────────────────────────────
	fs.BoolVarP(&cfg.KeyboardOnly, "keyboard-only", "K", false, "Clock and keyboard echo only, no serial device")
	fs.IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "Serial baud rate")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Append log output to this file instead of stderr")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs, std.errOut) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs, std.errOut)
		return nil
	}
	if showVersion {
		fmt.Fprintf(std.out, "telemon %s\n", version)
		return nil
	}

	// ── positional arguments ─────────────────────────────────────
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		cfg.Device = rest[0]
	default:
		return fmt.Errorf("too many arguments: %q", rest[1:])
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		printResolved(cfg, std.errOut)
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	if cfg.LogFile != "" {
		if err := logger.OpenFile(cfg.LogFile); err != nil {
			return err
		}
		defer logger.Close()
	} else {
		logger.SetOutput(std.errOut)
	}
	logger.Info("telemon %s", version)

	// From here on the screen is ours; leave the cursor below the
	// display whatever happens.
	defer std.out.Write([]byte(render.Footer())) //nolint:errcheck

	keys, err := console.Open(std.in)
	if err != nil {
		return err
	}
	defer func() {
		if err := keys.Restore(); err != nil {
			logger.Warn("restore terminal: %v", err)
		}
	}()

	opener := std.opener
	if opener == nil {
		opener = &transport.SerialOpener{Baud: cfg.Baud, Logger: logger}
	}

	mode, err := core.Build(ctx, cfg, core.Deps{
		Opener:  opener,
		Keys:    keys,
		Screen:  std.out,
		Metrics: metrics.New(),
	}, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func printResolved(cfg *config.Config, w io.Writer) {
	if cfg.KeyboardOnly {
		fmt.Fprintf(w, "telemon: keyboard only, clock every %v\n", cfg.Interval)
		return
	}
	fmt.Fprintf(w, "telemon: device %s at %d baud, clock every %v\n",
		cfg.Device, cfg.Baud, cfg.Interval)
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `telemon – terminal telemetry monitor v%s

Shows a live clock, echoes keystrokes, and draws a bar for each sample
read from a serial sensor.  Ctrl+C exits.

Usage:
  telemon [options] <device>     Monitor a serial device
  telemon -K [options]           Clock and keyboard only

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  TELEMON_BAUD        default baud rate
  TELEMON_VERBOSE     default verbosity (0-3)
  TELEMON_LOG_FILE    default log file

Examples:
  telemon /dev/ttyUSB0                 Sensor at 9600 baud
  telemon -b 115200 /dev/ttyACM0       Faster link
  telemon --log-file mon.log -vv /dev/ttyUSB0
  telemon -K                           No sensor attached
`)
}
