package serial

import (
	"io"

	"telemon/internal/errors"
	"telemon/internal/framing"
	"telemon/internal/metrics"
	"telemon/internal/render"
	"telemon/util"
)

// State is the read chain's lifecycle position.
type State int

const (
	Idle State = iota
	Reading
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	default:
		return "stopped"
	}
}

// Reader keeps exactly one ReadLine outstanding on a Conn, decoding
// each line into a bar on the value row.
//
//	line decodes           → render, read again
//	line malformed         → skip,   read again
//	transient read error   → skip,   read again
//	cancelled / closed     → stop
//	shutdown flag observed → stop
type Reader struct {
	Conn    *Conn
	Screen  io.Writer
	Stopped func() bool // shutdown flag
	Logger  *util.Logger
	Metrics *metrics.Collector

	state State
	err   error
}

// NewReader returns a reader over conn.  Call Start on the reactor (or
// before it runs) to issue the first read.
func NewReader(conn *Conn, screen io.Writer, stopped func() bool, logger *util.Logger) *Reader {
	return &Reader{Conn: conn, Screen: screen, Stopped: stopped, Logger: logger}
}

// State returns the chain's current state.
func (r *Reader) State() State { return r.state }

// Err returns the failure that ended the chain, or nil if it ended
// through shutdown or is still running.
func (r *Reader) Err() error { return r.err }

// Start issues the first read.
func (r *Reader) Start() {
	r.readNext()
}

// Cancel closes the connection; the outstanding read completes with a
// cancellation and the chain stops.
func (r *Reader) Cancel() {
	if err := r.Conn.Cancel(); err != nil {
		r.Logger.Debug("serial: cancel: %v", err)
	}
}

func (r *Reader) readNext() {
	if err := r.Conn.ReadLine(r.lineReceived); err != nil {
		r.fail(err)
		return
	}
	r.state = Reading
}

func (r *Reader) lineReceived(line []byte, err error) {
	if r.Stopped() {
		r.state = Stopped
		return
	}

	if err != nil {
		if errors.IsConnectionLevel(err) {
			// The flag is clear, so this was not our shutdown.
			r.fail(err)
			return
		}
		r.Logger.Verbose("serial: read: %v", err)
		r.readNext()
		return
	}

	v, perr := framing.ParseSample(line)
	if perr != nil {
		r.Metrics.FrameMalformed()
		r.Logger.Debug("serial: skipping %v", perr)
	} else {
		if _, werr := io.WriteString(r.Screen, render.Bar(framing.Magnitude(v))); werr != nil {
			r.Logger.Debug("serial: write: %v", werr)
		}
		r.Metrics.FrameDecoded(v)
	}
	r.readNext()
}

func (r *Reader) fail(err error) {
	r.state = Stopped
	r.err = err
	r.Metrics.ChannelFailed("serial")
	r.Logger.Warn("serial: read chain stopped: %v", err)
}
