//go:build linux

package transport

import (
	"os"

	"golang.org/x/sys/unix"
)

var baudFlags = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// configure puts the device in raw 8N1 mode at baud.
func configure(f *os.File, baud int) error {
	speed, ok := baudFlags[baud]
	if !ok {
		return unsupportedBaud(baud)
	}

	fd := int(f.Fd())
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	// cfmakeraw
	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	tio.Oflag &^= unix.OPOST
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	tio.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	tio.Ispeed = speed
	tio.Ospeed = speed

	// Block for at least one byte; the runtime poller waits for us.
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, tio)
}
