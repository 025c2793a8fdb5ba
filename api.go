// Package batchz provides a buffer-by-time-or-count operator for push-based
// event streams, together with the small stream toolkit needed to compose it.
//
// The core abstraction is Observable[T]: a producer that pushes Next, Error
// and Complete notifications into a Subscriber[T]. Operators are attached by
// explicit composition rather than by registering methods on a shared type:
//
//	ticks := batchz.Interval(200*time.Millisecond, batchz.RealClock)
//	batches, err := batchz.BufferTimeOrCount(ticks, batchz.BufferConfig{
//		BufferSize: 3,
//		TimeFrame:  time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	sub := batches.Subscribe(batchz.ObserverFuncs[[]int]{
//		NextFn:  func(batch []int) error { fmt.Println(batch); return nil },
//		ErrorFn: func(err error) { log.Println(err) },
//	})
//	defer sub.Unsubscribe()
//
// A batch is emitted when BufferSize items are pending or TimeFrame has
// elapsed since the first item of the batch, whichever comes first. Terminal
// signals flush whatever is pending before they are forwarded.
//
// Channel based pipelines can use the Batcher processor, which adapts the
// same operator to the Processor interface over Result[T] channels.
package batchz

import (
	"context"
	"fmt"
	"time"
)

// Processor is the channel based interface for stream processing components.
// It transforms an input channel of type In to an output channel of type Out.
// Processors should:
//   - Close the output channel when the input channel is closed
//   - Respect context cancellation
//   - Be safe for concurrent use
type Processor[In, Out any] interface {
	// Process transforms the input channel to an output channel.
	// It should close the output channel when processing is complete.
	Process(ctx context.Context, in <-chan In) <-chan Out

	// Name returns a descriptive name for the processor, useful for debugging.
	Name() string
}

// BufferConfig configures the time-or-count buffer operator.
// Both values are fixed once an operator is constructed.
type BufferConfig struct {
	// TimeFrame is the maximum time a batch stays pending, measured from the
	// first item of the batch. It must be positive.
	TimeFrame time.Duration

	// BufferSize is the maximum number of items in a batch.
	// A batch is emitted as soon as it reaches this size. It must be at least 1.
	BufferSize int
}

// Validate reports ErrInvalidConfiguration when the config cannot drive an operator.
func (c BufferConfig) Validate() error {
	if c.BufferSize < 1 {
		return fmt.Errorf("%w: buffer size must be at least 1, got %d", ErrInvalidConfiguration, c.BufferSize)
	}
	if c.TimeFrame <= 0 {
		return fmt.Errorf("%w: time frame must be positive, got %s", ErrInvalidConfiguration, c.TimeFrame)
	}
	return nil
}
