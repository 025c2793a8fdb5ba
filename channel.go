package batchz

import (
	"context"
	"errors"
	"sync"
)

// ToChannel subscribes to src on a new goroutine and delivers its
// notifications as Results on the returned channel. Values arrive as success
// Results; an error arrives as a single error Result. The channel is closed
// when the stream terminates or is cancelled.
//
// Cancelling ctx or the returned Subscription cancels the stream. Once ctx is
// cancelled no further Results are sent, including the batch or error a
// producer emits while it shuts down. Values the consumer never reads are not
// buffered: the producer blocks on the channel until it is read or the
// stream is cancelled.
func ToChannel[T any](ctx context.Context, src Observable[T]) (<-chan Result[T], *Subscription) {
	runCtx, cancel := context.WithCancel(ctx)
	obs := &channelObserver[T]{
		ctx: runCtx,
		out: make(chan Result[T]),
	}
	s := &subscriber[T]{
		Subscription: newSubscription(),
		observer:     obs,
	}
	s.Add(func() {
		cancel()
		obs.shutdown()
	})

	go func() {
		select {
		case <-runCtx.Done():
			s.Unsubscribe()
		case <-s.Done():
		}
	}()
	go src.SubscribeWith(s)

	return obs.out, s.Subscription
}

// FromResults turns a Result channel into an Observable. Success values are
// emitted with Next, the first error Result fails the stream, and closing
// in completes it. If ctx is cancelled first the stream fails with ctx.Err().
func FromResults[T any](ctx context.Context, in <-chan Result[T]) Observable[T] {
	return Create(func(sub Subscriber[T]) {
		runCtx, cancel := context.WithCancel(ctx)
		sub.Add(cancel)

		go func() {
			defer cancel()
			for {
				select {
				case <-runCtx.Done():
					if err := ctx.Err(); err != nil {
						sub.Error(err)
					}
					return
				case r, ok := <-in:
					if !ok {
						sub.Complete()
						return
					}
					if r.IsError() {
						sub.Error(r.Error())
						return
					}
					if err := sub.Next(r.Value()); err != nil {
						return
					}
				}
			}
		}()
	})
}

// channelObserver writes notifications to out. mu serializes writes with
// closing so out is never written after close.
type channelObserver[T any] struct {
	ctx    context.Context
	out    chan Result[T]
	mu     sync.Mutex
	closed bool
}

func (c *channelObserver[T]) Next(value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.ctx.Err() != nil {
		return ErrSubscriptionClosed
	}
	select {
	case c.out <- NewSuccess(value):
		return nil
	case <-c.ctx.Done():
		return ErrSubscriptionClosed
	}
}

func (c *channelObserver[T]) Error(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.ctx.Err() != nil {
		c.closeLocked()
		return
	}
	var zero T
	select {
	case c.out <- NewError(zero, err, sourceOf(err)):
	case <-c.ctx.Done():
	}
	c.closeLocked()
}

func (c *channelObserver[T]) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *channelObserver[T]) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *channelObserver[T]) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// sourceOf names the operator an error came from, for error Results.
func sourceOf(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Operator
	}
	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		return delivery.Operator
	}
	return "stream"
}
