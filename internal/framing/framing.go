// Package framing extracts line-delimited frames from the serial byte
// stream and decodes each payload into a bounded sample.
//
// The wire format is fixed: an ASCII unsigned decimal in [0, 1023]
// followed by a line feed.
package framing

import (
	"bytes"
	"fmt"
	"strconv"

	"telemon/internal/errors"
)

// Delimiter terminates every frame.
const Delimiter byte = '\n'

// MaxSample is the largest value a 10-bit sensor reports.
const MaxSample = 1023

// SplitLine returns the first delimited line in buf (delimiter
// excluded) and the bytes after it.  ok is false if buf holds no
// complete frame, in which case rest is buf unchanged.
func SplitLine(buf []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, Delimiter)
	if i < 0 {
		return nil, buf, false
	}
	return buf[:i], buf[i+1:], true
}

// ParseSample decodes a frame payload.  Surrounding whitespace, such as
// the carriage return of a CRLF sender, is ignored.  Anything else that
// is not a decimal in [0, MaxSample] yields a *errors.FrameError.
func ParseSample(line []byte) (uint16, error) {
	payload := bytes.TrimSpace(line)
	if len(payload) == 0 {
		return 0, errors.Malformed(line, fmt.Errorf("empty payload"))
	}
	v, err := strconv.ParseUint(string(payload), 10, 16)
	if err != nil {
		return 0, errors.Malformed(line, err)
	}
	if v > MaxSample {
		return 0, errors.Malformed(line, fmt.Errorf("value %d exceeds %d", v, MaxSample))
	}
	return uint16(v), nil
}

// Magnitude maps a sample to a bar length in [1, 64] by dropping the
// four low-order bits.
func Magnitude(v uint16) int {
	if v > MaxSample {
		v = MaxSample
	}
	return int(v>>4) + 1
}
