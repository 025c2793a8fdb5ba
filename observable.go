package batchz

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrSubscriptionClosed is returned by Next when the receiving side has been
// cancelled or has already terminated. Producers stop on it.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Observer receives the notifications of a stream.
//
// Next is called zero or more times, followed by at most one of Error or
// Complete. A non-nil error from Next means the observer failed to accept the
// value; the producer must stop and send no further notifications.
type Observer[T any] interface {
	Next(value T) error
	Error(err error)
	Complete()
}

// Subscriber is the downstream handle a producer pushes into. It extends
// Observer with a cancellation query and teardown registration.
type Subscriber[T any] interface {
	Observer[T]

	// Closed reports whether the subscriber was cancelled or terminated.
	// Producers and operators consult it before every emission.
	Closed() bool

	// Add registers fn to run once when the subscriber is cancelled or
	// terminated. If that already happened, fn runs immediately.
	Add(fn func())
}

// ObserverFuncs adapts plain functions to the Observer interface.
// Nil fields are ignored.
type ObserverFuncs[T any] struct {
	NextFn     func(T) error
	ErrorFn    func(error)
	CompleteFn func()
}

// Next implements Observer.
func (o ObserverFuncs[T]) Next(value T) error {
	if o.NextFn == nil {
		return nil
	}
	return o.NextFn(value)
}

// Error implements Observer.
func (o ObserverFuncs[T]) Error(err error) {
	if o.ErrorFn != nil {
		o.ErrorFn(err)
	}
}

// Complete implements Observer.
func (o ObserverFuncs[T]) Complete() {
	if o.CompleteFn != nil {
		o.CompleteFn()
	}
}

// Observable is a lazy push-based stream. Nothing runs until Subscribe is
// called, and every subscription runs the producer independently.
type Observable[T any] struct {
	subscribe func(Subscriber[T])
}

// Create builds an Observable from a producer function. The function is
// called once per subscription with the downstream Subscriber; it may emit
// synchronously or hand the subscriber to a goroutine.
//
// Producers must honor the Observer contract and should stop as soon as
// Closed reports true or Next returns an error.
func Create[T any](subscribe func(Subscriber[T])) Observable[T] {
	return Observable[T]{subscribe: subscribe}
}

// Subscribe starts the producer and delivers its notifications to observer.
// The returned Subscription cancels the stream and reports termination.
// A panic raised while subscribing is delivered to the observer as an error.
func (o Observable[T]) Subscribe(observer Observer[T]) *Subscription {
	s := &subscriber[T]{
		Subscription: newSubscription(),
		observer:     observer,
	}
	o.SubscribeWith(s)
	return s.Subscription
}

// SubscribeWith starts the producer against an existing Subscriber. Operators
// use it to chain their own subscriber onto a source.
func (o Observable[T]) SubscribeWith(sub Subscriber[T]) {
	defer func() {
		if r := recover(); r != nil {
			sub.Error(fmt.Errorf("panic during subscribe: %v", r))
		}
	}()
	if o.subscribe == nil {
		sub.Complete()
		return
	}
	o.subscribe(sub)
}

// Subscription is the cancellation and completion handle of one subscribed
// stream.
type Subscription struct {
	done      chan struct{}
	err       error
	id        string
	teardowns []func()
	mu        sync.Mutex
	closed    atomic.Bool
	finished  bool
}

func newSubscription() *Subscription {
	return &Subscription{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Closed reports whether the subscription was cancelled or terminated.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Add registers a teardown function. See Subscriber.Add.
func (s *Subscription) Add(fn func()) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardowns = append(s.teardowns, fn)
	s.mu.Unlock()
}

// Unsubscribe cancels the stream. No further notifications reach the
// observer and registered teardowns run. Safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.finish(nil)
}

// Done is closed once the stream terminated or was cancelled and all
// teardowns have run.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the stream terminated with, if any.
// It is only meaningful after Done is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.finished = true
	teardowns := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
	close(s.done)
}

// subscriber guards an Observer so it sees at most one terminal signal and
// nothing after cancellation.
type subscriber[T any] struct {
	*Subscription
	observer Observer[T]
}

func (s *subscriber[T]) Next(value T) error {
	if s.Closed() {
		return ErrSubscriptionClosed
	}
	return s.observer.Next(value)
}

func (s *subscriber[T]) Error(err error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.observer.Error(err)
	s.finish(err)
}

func (s *subscriber[T]) Complete() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.observer.Complete()
	s.finish(nil)
}

// relay forwards terminal signals and cancellation state to a downstream
// subscriber while translating values with next.
type relay[In, Out any] struct {
	Subscriber[Out]
	next func(In) error
}

func (r *relay[In, Out]) Next(value In) error {
	if r.Closed() {
		return ErrSubscriptionClosed
	}
	return r.next(value)
}
