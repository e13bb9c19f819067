// Package serial runs the asynchronous line-reading chain over a
// serial device and renders each decoded sample as a bar.
package serial

import (
	"telemon/internal/errors"
	"telemon/internal/framing"
	"telemon/internal/reactor"
	"telemon/internal/transport"
	"telemon/util"
)

// Conn is a serial connection bound to a reactor.  It owns the receive
// buffer; bytes past the first delimiter stay buffered for the next
// ReadLine.  Apart from the blocking device read itself, every method
// and every field access happens on the reactor goroutine.
type Conn struct {
	r      *reactor.Reactor
	port   transport.Port
	device string

	buf     []byte
	pending *reactor.Work
	handler func([]byte, error)
	closed  bool
}

// NewConn wraps an open port.
func NewConn(r *reactor.Reactor, port transport.Port, device string) *Conn {
	return &Conn{r: r, port: port, device: device}
}

// Buffered returns the number of received bytes not yet consumed.
func (c *Conn) Buffered() int { return len(c.buf) }

// InFlight reports whether a ReadLine is outstanding.
func (c *Conn) InFlight() bool { return c.pending != nil }

// ReadLine delivers the next delimited line (delimiter excluded) to h
// on the reactor.  At most one ReadLine may be outstanding; a second
// call returns errors.ErrInFlight.  h always runs asynchronously, even
// when a complete line is already buffered.  Once the connection is
// cancelled, h receives errors.ErrPortClosed.
func (c *Conn) ReadLine(h func(line []byte, err error)) error {
	if c.pending != nil {
		return errors.ErrInFlight
	}
	w := c.r.Hold()
	c.pending = w
	c.handler = h

	if line, ok := c.take(); ok {
		w.Complete(func() { c.finish(w, line, nil) })
		return nil
	}
	if c.closed {
		w.Complete(func() { c.finish(w, nil, errors.ErrPortClosed) })
		return nil
	}
	c.fill(w)
	return nil
}

// Cancel closes the device.  A pending ReadLine completes with
// errors.ErrCanceled unless its result was already queued.  Repeated
// calls are no-ops.
func (c *Conn) Cancel() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.port.Close()

	if w := c.pending; w != nil {
		w.Complete(func() { c.finish(w, nil, errors.ErrCanceled) })
	}
	if err != nil {
		return errors.Wrap("close", c.device, err)
	}
	return nil
}

// fill reads one chunk on a helper goroutine and hands it back to the
// reactor.  The goroutine touches nothing but the port and its chunk.
// If Cancel already completed w, the chunk goes straight back to the
// pool.
func (c *Conn) fill(w *reactor.Work) {
	go func() {
		chunk := util.GetChunk()
		n, err := c.port.Read(*chunk)
		*chunk = (*chunk)[:n]
		if !w.Complete(func() { c.received(w, chunk, err) }) {
			util.PutChunk(chunk)
		}
	}()
}

func (c *Conn) received(w *reactor.Work, chunk *[]byte, readErr error) {
	c.buf = append(c.buf, *chunk...)
	util.PutChunk(chunk)

	if c.pending != w {
		return
	}
	if line, ok := c.take(); ok {
		c.finish(w, line, nil)
		return
	}
	switch {
	case c.closed:
		c.finish(w, nil, errors.ErrCanceled)
	case readErr != nil:
		c.finish(w, nil, errors.Wrap("read", c.device, readErr))
	default:
		// No delimiter yet: keep reading under a fresh hold.
		next := c.r.Hold()
		c.pending = next
		c.fill(next)
	}
}

func (c *Conn) finish(w *reactor.Work, line []byte, err error) {
	if c.pending != w {
		return
	}
	h := c.handler
	c.pending = nil
	c.handler = nil
	h(line, err)
}

// take removes the first complete line from the buffer.  The line is
// copied so later appends cannot alias it.
func (c *Conn) take() ([]byte, bool) {
	line, rest, ok := framing.SplitLine(c.buf)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(line))
	copy(out, line)
	c.buf = append(c.buf[:0], rest...)
	return out, true
}
