//go:build !linux

package transport

import (
	"fmt"
	"os"
	"runtime"
	"syscall"

	"golang.org/x/term"
)

// configure is only implemented for Linux line disciplines.  Non-tty
// paths still open so simulated feeds work everywhere.
func configure(f *os.File, baud int) error {
	if !term.IsTerminal(int(f.Fd())) {
		return syscall.ENOTTY
	}
	return fmt.Errorf("serial configuration is not supported on %s", runtime.GOOS)
}
