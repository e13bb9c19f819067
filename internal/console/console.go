// Package console is the raw keyboard source: it switches the terminal
// into raw mode and hands out one key code per blocking read.
package console

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Console reads single bytes from a terminal in raw mode.
type Console struct {
	in    *os.File
	fd    int
	state *term.State
	buf   [1]byte
}

// Open puts in into raw mode if it is a terminal.  Input that is not a
// terminal (a pipe, a file) is read byte by byte as-is.
func Open(in *os.File) (*Console, error) {
	c := &Console{in: in, fd: int(in.Fd())}
	if !term.IsTerminal(c.fd) {
		return c, nil
	}
	st, err := term.MakeRaw(c.fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	c.state = st
	return c, nil
}

// IsRaw reports whether Open changed the terminal mode.
func (c *Console) IsRaw() bool { return c.state != nil }

// ReadKey blocks until one byte is available.
func (c *Console) ReadKey() (int, error) {
	for {
		n, err := c.in.Read(c.buf[:])
		if n == 1 {
			return int(c.buf[0]), nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Restore returns the terminal to the mode it had before Open.
func (c *Console) Restore() error {
	if c.state == nil {
		return nil
	}
	err := term.Restore(c.fd, c.state)
	c.state = nil
	return err
}
