package batchz

import (
	"context"
	"time"
)

// From emits values in order and then completes. Emission is synchronous:
// subscribing runs the whole sequence before Subscribe returns.
func From[T any](values ...T) Observable[T] {
	return Create(func(sub Subscriber[T]) {
		for _, v := range values {
			if sub.Closed() {
				return
			}
			if err := sub.Next(v); err != nil {
				return
			}
		}
		sub.Complete()
	})
}

// Empty completes immediately without emitting.
func Empty[T any]() Observable[T] {
	return Create(func(sub Subscriber[T]) {
		sub.Complete()
	})
}

// Throw fails immediately with err.
func Throw[T any](err error) Observable[T] {
	return Create(func(sub Subscriber[T]) {
		sub.Error(err)
	})
}

// FromChannel emits every value received on ch and completes when ch is
// closed. If ctx is cancelled first the stream fails with ctx.Err().
// Cancelling the subscription stops the reading goroutine; ch is not drained.
func FromChannel[T any](ctx context.Context, ch <-chan T) Observable[T] {
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
				case v, ok := <-ch:
					if !ok {
						sub.Complete()
						return
					}
					if err := sub.Next(v); err != nil {
						return
					}
				}
			}
		}()
	})
}

// Interval emits 0, 1, 2, ... every period until the subscription is
// cancelled. It never completes on its own.
//
// Example:
//
//	// Every 200ms, grouped three at a time
//	ticks := batchz.Interval(200*time.Millisecond, batchz.RealClock)
//	triples, _ := batchz.BufferCount(ticks, 3)
func Interval(period time.Duration, clock Clock) Observable[int] {
	return Create(func(sub Subscriber[int]) {
		stop := make(chan struct{})
		sub.Add(func() { close(stop) })

		ticker := clock.NewTicker(period)
		go func() {
			defer ticker.Stop()
			for n := 0; ; n++ {
				select {
				case <-stop:
					return
				case <-ticker.C():
				}
				if err := sub.Next(n); err != nil {
					return
				}
			}
		}()
	})
}
