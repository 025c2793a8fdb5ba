package batchz

import (
	"fmt"
	"time"
)

// BufferTimeOrCount attaches a time-or-count buffer to src.
//
// Each subscription to the returned Observable creates its own operator.
// A batch is emitted when BufferSize items are pending or TimeFrame has
// elapsed since the batch's first item, whichever comes first. When both
// would trigger at the same instant the count wins, because the count drain
// runs inside the Next call that filled the batch.
//
// Upstream errors and completion flush the pending batch before they are
// forwarded; errors arrive downstream wrapped in *UpstreamError. Cancelling
// the downstream subscription discards the pending batch and stops the timer.
//
// When to use:
//   - Bulk writes that must not wait longer than a latency budget
//   - Coalescing bursts of events into fewer downstream calls
//   - Periodic flushing of slow trickles of data
//
// Example:
//
//	batches, err := batchz.BufferTimeOrCount(events, batchz.BufferConfig{
//		BufferSize: 100,
//		TimeFrame:  50 * time.Millisecond,
//	}, batchz.WithLogger(logger), batchz.WithName("events"))
//	if err != nil {
//		return err
//	}
//	sub := batches.Subscribe(sink)
//
// Returns an error wrapping ErrInvalidConfiguration when config is invalid.
func BufferTimeOrCount[T any](src Observable[T], config BufferConfig, opts ...Option) (Observable[[]T], error) {
	if err := config.Validate(); err != nil {
		return Observable[[]T]{}, err
	}
	o := applyOptions("buffer-time-or-count", opts)
	return bufferObservable(src, config.BufferSize, config.TimeFrame, o), nil
}

// BufferCount attaches a count-only buffer to src. Batches are emitted every
// size items; terminal signals flush the remainder.
func BufferCount[T any](src Observable[T], size int, opts ...Option) (Observable[[]T], error) {
	if size < 1 {
		return Observable[[]T]{}, fmt.Errorf("%w: buffer size must be at least 1, got %d", ErrInvalidConfiguration, size)
	}
	o := applyOptions("buffer-count", opts)
	return bufferObservable(src, size, 0, o), nil
}

func bufferObservable[T any](src Observable[T], size int, window time.Duration, o options) Observable[[]T] {
	return Create(func(downstream Subscriber[[]T]) {
		op := newBufferOperator[T](downstream, size, window, o)
		src.SubscribeWith(op)
	})
}
