package reactor

import (
	"time"

	"telemon/internal/errors"
)

// Timer is a one-shot deadline timer whose completions run on the
// reactor.  All methods must be called from the reactor goroutine
// (or before Run starts).
type Timer struct {
	r        *Reactor
	deadline time.Time
	pending  *wait
}

type wait struct {
	work    *Work
	t       *time.Timer
	handler func(error)
}

// NewTimer returns a timer bound to r with its deadline set to now.
func (r *Reactor) NewTimer() *Timer {
	return &Timer{r: r, deadline: time.Now()}
}

// Deadline returns the current expiry time.
func (t *Timer) Deadline() time.Time { return t.deadline }

// Pending reports whether a wait is outstanding.
func (t *Timer) Pending() bool { return t.pending != nil }

// ExpiresAfter moves the deadline to now+d, cancelling any pending
// wait.  It returns the number of waits cancelled.
func (t *Timer) ExpiresAfter(d time.Duration) int {
	n := t.Cancel()
	t.deadline = time.Now().Add(d)
	return n
}

// AsyncWait arranges for h to run on the reactor when the deadline
// passes.  h receives nil on expiry or errors.ErrCanceled if Cancel won
// the race.  Only one wait may be outstanding.
func (t *Timer) AsyncWait(h func(error)) error {
	if t.pending != nil {
		return errors.ErrInFlight
	}
	w := &wait{work: t.r.Hold(), handler: h}
	t.pending = w
	w.t = time.AfterFunc(time.Until(t.deadline), func() {
		w.work.Complete(func() {
			if t.pending == w {
				t.pending = nil
			}
			h(nil)
		})
	})
	return nil
}

// Cancel aborts the pending wait, whose handler then receives
// errors.ErrCanceled.  If the wait already expired and its handler is
// queued, that handler still runs with a nil error.  Cancel is
// idempotent and returns the number of handlers it cancelled.
func (t *Timer) Cancel() int {
	w := t.pending
	if w == nil {
		return 0
	}
	t.pending = nil
	w.t.Stop()
	if w.work.Complete(func() { w.handler(errors.ErrCanceled) }) {
		return 1
	}
	return 0
}
