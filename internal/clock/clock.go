// Package clock draws the wall-clock time once per interval.
package clock

import (
	"io"
	"time"

	"telemon/internal/metrics"
	"telemon/internal/reactor"
	"telemon/internal/render"
	"telemon/util"
)

// State is the clock's lifecycle position.
type State int

const (
	Armed State = iota
	Cancelled
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "cancelled"
}

// Clock re-arms a reactor timer every Interval and renders the current
// time.  It lives entirely on the reactor goroutine.
type Clock struct {
	Interval time.Duration
	Screen   io.Writer
	Stopped  func() bool      // shutdown flag
	Now      func() time.Time // defaults to time.Now
	Logger   *util.Logger
	Metrics  *metrics.Collector

	timer *reactor.Timer
	state State
}

// New returns a clock bound to r.  Call Start to arm it.
func New(r *reactor.Reactor, interval time.Duration, screen io.Writer, stopped func() bool, logger *util.Logger) *Clock {
	return &Clock{
		Interval: interval,
		Screen:   screen,
		Stopped:  stopped,
		Now:      time.Now,
		Logger:   logger,
		timer:    r.NewTimer(),
	}
}

// State returns the current lifecycle state.
func (c *Clock) State() State { return c.state }

// Start schedules the first expiry one interval from now.
func (c *Clock) Start() {
	c.state = Armed
	c.arm()
}

// Cancel stops the clock.  Safe to call repeatedly, and after the clock
// has already stopped on its own.
func (c *Clock) Cancel() {
	c.timer.Cancel()
	c.state = Cancelled
}

// The next deadline is measured from the moment of handling, not from
// the previous deadline.
func (c *Clock) arm() {
	c.timer.ExpiresAfter(c.Interval)
	if err := c.timer.AsyncWait(c.expired); err != nil {
		c.Logger.Error("clock: arm: %v", err)
		c.state = Cancelled
	}
}

func (c *Clock) expired(err error) {
	if err != nil || c.Stopped() {
		if err != nil && !c.Stopped() {
			c.Logger.Warn("clock: wait ended unexpectedly: %v", err)
			c.Metrics.ChannelFailed("clock")
		}
		c.state = Cancelled
		return
	}
	if c.state == Cancelled {
		return
	}

	if _, werr := io.WriteString(c.Screen, render.Clock(c.Now())); werr != nil {
		c.Logger.Debug("clock: write: %v", werr)
	}
	c.Metrics.Tick()
	c.arm()
}
