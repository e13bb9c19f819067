package transport

import (
	"fmt"
	"os"
	"syscall"

	"telemon/internal/errors"
	"telemon/util"
)

// SerialOpener opens character devices for reading at a fixed baud
// rate, 8 data bits, no parity, one stop bit, in raw mode.
type SerialOpener struct {
	Baud   int
	Logger *util.Logger
}

// Open opens path and configures its line discipline.  Paths that are
// not terminals (FIFOs, regular files) are accepted as-is, which allows
// feeding recorded or simulated data.
func (o *SerialOpener) Open(path string) (Port, error) {
	if !ValidBaud(o.Baud) {
		return nil, errors.Wrap("configure", path, unsupportedBaud(o.Baud))
	}

	// O_NONBLOCK registers the descriptor with the runtime poller, so
	// Close interrupts a pending Read.
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrap("open", path, err)
	}

	err = configure(f, o.Baud)
	switch {
	case err == nil:
		o.Logger.Verbose("serial: %s configured at %d baud", path, o.Baud)
	case errors.Is(err, syscall.ENOTTY):
		o.Logger.Verbose("serial: %s is not a terminal, reading it unconfigured", path)
	default:
		f.Close()
		return nil, errors.Wrap("configure", path, err)
	}
	return f, nil
}

// SupportedBauds lists the rates the opener can program.
var SupportedBauds = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// ValidBaud reports whether baud is in SupportedBauds.
func ValidBaud(baud int) bool {
	for _, b := range SupportedBauds {
		if b == baud {
			return true
		}
	}
	return false
}

func unsupportedBaud(baud int) error {
	return fmt.Errorf("unsupported baud rate %d", baud)
}
