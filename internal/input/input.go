// Package input bridges the blocking keyboard source into the reactor.
//
// A dedicated goroutine blocks on ReadKey and posts each key to the
// reactor.  Classification, echo placement, and every terminal write
// happen in the posted callback, never on the reading goroutine.
package input

import (
	"io"

	"telemon/internal/metrics"
	"telemon/internal/reactor"
	"telemon/internal/render"
	"telemon/util"
)

// TerminationKey is Ctrl+C as delivered by a raw-mode terminal.
const TerminationKey = 3

// KeySource blocks until a key is pressed and returns its code.
type KeySource interface {
	ReadKey() (int, error)
}

// KeySourceFunc adapts a function to the KeySource interface.
type KeySourceFunc func() (int, error)

// ReadKey calls f().
func (f KeySourceFunc) ReadKey() (int, error) { return f() }

// EchoCursor is the next column offset for keystroke echo.  It cycles
// through 0..render.EchoMaxOffset.
type EchoCursor struct {
	offset int
}

// Next returns the offset for the next keystroke and advances.
func (c *EchoCursor) Next() int {
	if c.offset > render.EchoMaxOffset {
		c.offset = 0
	}
	o := c.offset
	c.offset++
	return o
}

// Bridge runs the keyboard worker.
type Bridge struct {
	Reactor *reactor.Reactor
	Source  KeySource
	Screen  io.Writer
	Logger  *util.Logger
	Metrics *metrics.Collector

	cursor EchoCursor // reactor-owned
}

// NewBridge returns a bridge feeding keys from src into r.
func NewBridge(r *reactor.Reactor, src KeySource, screen io.Writer, logger *util.Logger) *Bridge {
	return &Bridge{Reactor: r, Source: src, Screen: screen, Logger: logger}
}

// Run is the worker loop.  It returns nil when the termination key is
// read or the source reports io.EOF, and the source's error otherwise.
// The caller is responsible for starting shutdown afterwards.
func (b *Bridge) Run() error {
	for {
		code, err := b.Source.ReadKey()
		if err == io.EOF {
			b.Logger.Verbose("input: end of keyboard input")
			return nil
		}
		if err != nil {
			return err
		}
		if code == TerminationKey {
			b.Logger.Verbose("input: termination key")
			return nil
		}

		key := byte(code)
		if !b.Reactor.Post(func() { b.echo(key) }) {
			b.Logger.Debug("input: reactor stopped, dropping key %#x", key)
		}
	}
}

func (b *Bridge) echo(key byte) {
	out := render.Key(b.cursor.Next(), key)
	if _, err := io.WriteString(b.Screen, out); err != nil {
		b.Logger.Debug("input: write: %v", err)
	}
	b.Metrics.Keystroke(render.Classify(key).String())
}
