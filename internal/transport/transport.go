// Package transport opens the byte source behind the serial channel.
// The device-level concerns (file modes, line discipline, baud rate)
// stay here; framing and scheduling belong to the serial package.
package transport

import (
	"io"
)

// Port is an open serial device.  Close must unblock a Read in
// progress, which then returns an error.
type Port interface {
	io.Reader
	io.Closer
}

// Opener opens a Port by path.  Implementations include the termios
// backed SerialOpener and test doubles wrapping pipes.
type Opener interface {
	Open(path string) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Port, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Port, error) { return f(path) }
