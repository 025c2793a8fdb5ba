// Package testing provides test utilities for batchz streams.
package testing

import (
	"sync"
	"testing"
	"time"

	batchz "github.com/zoobzio/batchz"
)

// Notification kinds recorded by a Recorder, in arrival order.
const (
	KindNext     = "next"
	KindError    = "error"
	KindComplete = "complete"
)

// Event is one recorded notification.
type Event[T any] struct {
	Value T
	Err   error
	At    time.Time
	Kind  string
}

// Recorder is an Observer that records every notification it receives.
// It is safe for concurrent use.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Recorder[T any] struct {
	mu      sync.Mutex
	clock   batchz.Clock
	events  []Event[T]
	failOn  int
	failErr error
	changed chan struct{}
}

// NewRecorder creates a Recorder that timestamps notifications with clock.
func NewRecorder[T any](clock batchz.Clock) *Recorder[T] {
	return &Recorder[T]{
		clock:   clock,
		changed: make(chan struct{}, 1),
	}
}

// FailNext makes the n-th Next call (1-based) return err.
func (r *Recorder[T]) FailNext(n int, err error) *Recorder[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn = n
	r.failErr = err
	return r
}

// Next implements batchz.Observer.
func (r *Recorder[T]) Next(value T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	nexts := 0
	for _, e := range r.events {
		if e.Kind == KindNext {
			nexts++
		}
	}
	if r.failOn > 0 && nexts+1 == r.failOn {
		return r.failErr
	}
	r.recordLocked(Event[T]{Kind: KindNext, Value: value})
	return nil
}

// Error implements batchz.Observer.
func (r *Recorder[T]) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked(Event[T]{Kind: KindError, Err: err})
}

// Complete implements batchz.Observer.
func (r *Recorder[T]) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked(Event[T]{Kind: KindComplete})
}

func (r *Recorder[T]) recordLocked(e Event[T]) {
	e.At = r.clock.Now()
	r.events = append(r.events, e)
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// Events returns a copy of every recorded notification.
func (r *Recorder[T]) Events() []Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event[T], len(r.events))
	copy(out, r.events)
	return out
}

// Values returns the values received through Next, in order.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var values []T
	for _, e := range r.events {
		if e.Kind == KindNext {
			values = append(values, e.Value)
		}
	}
	return values
}

// Err returns the error received through Error, or nil.
func (r *Recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Kind == KindError {
			return e.Err
		}
	}
	return nil
}

// Completions returns how many times Complete was received.
func (r *Recorder[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == KindComplete {
			n++
		}
	}
	return n
}

// WaitForValues blocks until at least n values were recorded or timeout
// elapses in real time, then returns the recorded values.
func (r *Recorder[T]) WaitForValues(t *testing.T, n int, timeout time.Duration) []T {
	t.Helper()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		values := r.Values()
		if len(values) >= n {
			return values
		}
		select {
		case <-r.changed:
		case <-deadline.C:
			t.Fatalf("timed out waiting for %d values, got %d: %v", n, len(values), values)
			return values
		}
	}
}

// CollectResultsWithTimeout collects all results from a channel until it is
// closed or timeout elapses.
func CollectResultsWithTimeout[T any](t *testing.T, ch <-chan batchz.Result[T], timeout time.Duration) []batchz.Result[T] {
	t.Helper()

	var results []batchz.Result[T]
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case result, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, result)
		case <-timer.C:
			return results
		}
	}
}

// CollectValues collects all successful values from a Result channel with a timeout.
// Returns only the values, ignoring errors.
func CollectValues[T any](t *testing.T, ch <-chan batchz.Result[T], timeout time.Duration) []T {
	t.Helper()

	results := CollectResultsWithTimeout(t, ch, timeout)
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.IsSuccess() {
			values = append(values, r.Value())
		}
	}
	return values
}

// SendValues sends a slice of values to a channel as successful Results.
// Closes the channel after all values are sent.
func SendValues[T any](t *testing.T, values []T) <-chan batchz.Result[T] {
	t.Helper()

	ch := make(chan batchz.Result[T], len(values))
	for _, v := range values {
		ch <- batchz.NewSuccess(v)
	}
	close(ch)
	return ch
}

// Source is a manually driven producer. Tests push notifications into the
// subscriber of the most recent subscription.
type Source[T any] struct {
	mu  sync.Mutex
	sub batchz.Subscriber[T]
}

// NewSource creates an unsubscribed Source.
func NewSource[T any]() *Source[T] {
	return &Source[T]{}
}

// Observable returns the stream backed by this Source.
func (s *Source[T]) Observable() batchz.Observable[T] {
	return batchz.Create(func(sub batchz.Subscriber[T]) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sub = sub
	})
}

// Subscribed reports whether the Source has been subscribed.
func (s *Source[T]) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

func (s *Source[T]) subscriber() batchz.Subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		panic("batchz/testing: Source has no subscriber")
	}
	return s.sub
}

// Next pushes a value and returns the subscriber's answer.
func (s *Source[T]) Next(value T) error {
	return s.subscriber().Next(value)
}

// Error pushes a terminal error.
func (s *Source[T]) Error(err error) {
	s.subscriber().Error(err)
}

// Complete pushes completion.
func (s *Source[T]) Complete() {
	s.subscriber().Complete()
}

// Closed reports whether the subscriber asked the producer to stop.
func (s *Source[T]) Closed() bool {
	return s.subscriber().Closed()
}
