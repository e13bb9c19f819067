// Package reactor is a single-goroutine event loop.
//
// Units of work are posted from any goroutine and executed strictly in
// posting order, one at a time, on the goroutine that called Run.  State
// touched only from posted work therefore needs no further locking.
//
// Asynchronous operations (timer waits, device reads) hold a [Work]
// while they are outstanding.  Run returns once the ready queue is empty
// and no Work is held, the same "out of work" rule an I/O completion
// loop uses.
package reactor

import (
	"context"
	"sync"
	"sync/atomic"

	"telemon/internal/errors"
)

// Reactor serialises callback execution onto one goroutine.
type Reactor struct {
	mu      sync.Mutex
	queue   []func()
	work    int  // outstanding asynchronous operations
	running bool // Run has been entered
	done    bool // Run has returned; further posts are dropped

	wake     chan struct{} // cap 1; signalled on every post
	executed atomic.Int64
}

// New returns an idle reactor.
func New() *Reactor {
	return &Reactor{wake: make(chan struct{}, 1)}
}

// Post queues fn for execution on the reactor goroutine.  It is safe to
// call from any goroutine.  Post reports false, dropping fn, once Run
// has returned.
func (r *Reactor) Post(fn func()) bool {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return false
	}
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
	r.signal()
	return true
}

// Hold registers an outstanding asynchronous operation.  The reactor
// keeps running until the returned Work is completed.
func (r *Reactor) Hold() *Work {
	r.mu.Lock()
	r.work++
	r.mu.Unlock()
	return &Work{r: r}
}

// Executed returns the number of units run so far.
func (r *Reactor) Executed() int64 { return r.executed.Load() }

// Run executes posted work until none is queued and no Work is held, or
// until ctx is done.  It must be called at most once; later calls
// return errors.ErrReactorStopped.
func (r *Reactor) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.ErrReactorStopped
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.done = true
		r.queue = nil
		r.mu.Unlock()
	}()

	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		idle := len(batch) == 0
		if idle && r.work == 0 {
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		if idle {
			select {
			case <-r.wake:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, fn := range batch {
			fn()
			r.executed.Add(1)
		}
	}
}

func (r *Reactor) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// complete atomically queues fn and releases one unit of held work, so
// the loop never observes an empty queue and zero work in between.
func (r *Reactor) complete(fn func()) {
	r.mu.Lock()
	r.work--
	if !r.done {
		r.queue = append(r.queue, fn)
	}
	r.mu.Unlock()
	r.signal()
}

// Work is the handle of one outstanding asynchronous operation.
type Work struct {
	r    *Reactor
	once sync.Once
}

// Complete posts the operation's completion handler and releases the
// hold.  Only the first call has any effect, so a cancellation and a
// natural completion may race freely: whichever arrives first delivers
// its handler and the other reports false.
func (w *Work) Complete(fn func()) bool {
	won := false
	w.once.Do(func() {
		won = true
		w.r.complete(fn)
	})
	return won
}
