// Package session owns one monitoring run: the reactor, the clock, the
// optional serial reader, and the keyboard worker, plus the shutdown
// sequence that ties them together.
//
// Goroutine model: the goroutine calling Run executes the reactor and
// with it every terminal write.  One worker goroutine blocks on the
// keyboard and only ever posts to the reactor.  Timer expiries and
// device reads complete through the reactor as well: the runtime timer
// callback and the short-lived goroutine behind each device read touch
// only the port and their own buffer, and hand results over through
// reactor.Work, never writing the screen or component state.
package session

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"telemon/internal/clock"
	"telemon/internal/input"
	"telemon/internal/metrics"
	"telemon/internal/reactor"
	"telemon/internal/render"
	"telemon/internal/serial"
	"telemon/internal/transport"
	"telemon/util"
)

// Options selects the active input sources and their parameters.
type Options struct {
	// Port is the opened serial device.  Nil runs keyboard-only.
	Port   transport.Port
	Device string

	Interval time.Duration
	Keys     input.KeySource
	Screen   io.Writer
	Logger   *util.Logger
	Metrics  *metrics.Collector
}

// Session encapsulates the runtime state of one monitor run.
type Session struct {
	ID string

	reactor *reactor.Reactor
	screen  io.Writer
	clock   *clock.Clock
	serial  *serial.Reader // nil in keyboard-only mode
	bridge  *input.Bridge
	logger  *util.Logger
	metrics *metrics.Collector

	// stopping is set once, by the shutdown unit on the reactor.  It is
	// atomic so Stopping may be called from any goroutine.
	stopping atomic.Bool
}

// New wires the components.  Nothing runs until Run.
func New(opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger.WithPrefix("session " + id[:8])

	s := &Session{
		ID:      id,
		reactor: reactor.New(),
		screen:  opts.Screen,
		logger:  logger,
		metrics: opts.Metrics,
	}

	s.clock = clock.New(s.reactor, opts.Interval, s.screen, s.Stopping, logger)
	s.clock.Metrics = opts.Metrics

	if opts.Port != nil {
		conn := serial.NewConn(s.reactor, opts.Port, opts.Device)
		s.serial = serial.NewReader(conn, s.screen, s.Stopping, logger)
		s.serial.Metrics = opts.Metrics
	}

	s.bridge = input.NewBridge(s.reactor, opts.Keys, s.screen, logger)
	s.bridge.Metrics = opts.Metrics
	return s
}

// Stopping reports whether shutdown has begun.
func (s *Session) Stopping() bool { return s.stopping.Load() }

// HasSerial reports whether a serial feed is active.
func (s *Session) HasSerial() bool { return s.serial != nil }

// Stop requests shutdown from any goroutine.  The request is routed
// through the reactor so cancellation runs alongside the handlers it
// cancels.  If the reactor has already run out of work there is
// nothing left to cancel and only the flag is set.
func (s *Session) Stop() {
	if !s.reactor.Post(s.shutdown) {
		s.stopping.Store(true)
	}
}

func (s *Session) shutdown() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.logger.Verbose("shutting down")
	s.clock.Cancel()
	if s.serial != nil {
		s.serial.Cancel()
	}
}

// Run draws the screen, arms the clock, starts the serial chain and the
// keyboard worker, and runs the reactor until every channel has
// drained.  It returns once the worker has been joined, or as soon as
// the reactor drains if ctx was cancelled, since the worker may be
// blocked on a key that never comes.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("starting (serial=%t)", s.HasSerial())

	withSerial := s.HasSerial()
	s.reactor.Post(func() { s.write(render.Layout(withSerial)) })
	s.clock.Start()
	if s.serial != nil {
		s.serial.Start()
	}

	workerDone := make(chan error, 1)
	go func() {
		err := s.bridge.Run()
		s.Stop()
		workerDone <- err
	}()

	stopOnCancel := context.AfterFunc(ctx, s.Stop)
	defer stopOnCancel()

	if err := s.reactor.Run(context.Background()); err != nil {
		return err
	}
	s.logger.Verbose("reactor drained after %d units", s.reactor.Executed())

	var err error
	select {
	case err = <-workerDone:
	case <-ctx.Done():
		s.logger.Info("interrupted: %v", context.Cause(ctx))
	}

	s.logger.Debug("metrics: %s", s.metrics.JSON())
	s.logger.Info("stopped")
	return err
}

func (s *Session) write(out string) {
	if _, err := io.WriteString(s.screen, out); err != nil {
		s.logger.Debug("write: %v", err)
	}
}
