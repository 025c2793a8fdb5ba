package batchz

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Timer is a single-shot, restartable deadline bound to a callback.
//
// A Timer belongs to one event loop, represented by the loop Locker. Start,
// Stop and Restart must be called while holding the loop, and the callback
// runs with the loop held. Because the fired callback re-checks the timer's
// generation under the loop, a stopped timer never invokes its callback,
// even when the underlying clock timer already expired.
//
// Expiry is handed to a new goroutine before the loop is taken. Clocks may
// run AfterFunc callbacks while holding their own lock, and the callback
// must be free to use the clock.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Timer struct {
	clock    Clock
	loop     sync.Locker
	callback func()
	duration time.Duration
	pending  clockz.Timer
	gen      uint64
}

// NewTimer creates a stopped Timer that schedules on clock and serializes its
// callback through loop.
func NewTimer(clock Clock, loop sync.Locker) *Timer {
	return &Timer{
		clock: clock,
		loop:  loop,
	}
}

// Start schedules exactly one invocation of callback after d, replacing any
// pending invocation.
func (t *Timer) Start(callback func(), d time.Duration) {
	t.Stop()
	t.callback = callback
	t.duration = d

	t.gen++
	gen := t.gen
	t.pending = t.clock.AfterFunc(d, func() {
		go t.fire(gen)
	})
}

// Bind sets the callback and duration used by Restart without scheduling
// anything.
func (t *Timer) Bind(callback func(), d time.Duration) {
	t.callback = callback
	t.duration = d
}

// Stop cancels the pending invocation. It is a no-op when nothing is pending
// or the callback already ran.
func (t *Timer) Stop() {
	if t.pending == nil {
		return
	}
	t.pending.Stop()
	t.pending = nil
	t.gen++
}

// Restart stops the timer and starts it again with the bound or last used
// callback and duration. It does nothing if no callback is bound.
func (t *Timer) Restart() {
	if t.callback == nil {
		return
	}
	t.Start(t.callback, t.duration)
}

// Pending reports whether an invocation is scheduled.
func (t *Timer) Pending() bool {
	return t.pending != nil
}

func (t *Timer) fire(gen uint64) {
	t.loop.Lock()
	defer t.loop.Unlock()

	if t.pending == nil || gen != t.gen {
		return
	}
	t.pending = nil
	t.callback()
}
