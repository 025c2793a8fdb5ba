package batchz

import (
	"context"

	"go.uber.org/zap"
)

// Batcher groups the values of a Result channel into batches, emitting a
// batch when either the maximum size is reached or the time frame since the
// batch's first item expires, whichever comes first. It is the channel based
// face of BufferTimeOrCount.
//
// The first error Result is terminal: the pending batch is flushed, the error
// is forwarded as an error Result, and the output channel is closed.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Batcher[T any] struct {
	config  BufferConfig
	name    string
	clock   Clock
	logger  *zap.Logger
	metrics *Metrics
}

// NewBatcher creates a processor that groups items into batches.
//
// When to use:
//   - Optimizing database writes with bulk operations
//   - Reducing API calls by batching requests
//   - Implementing micro-batching for stream processing
//
// Example:
//
//	// Batch up to 1000 items or 5 seconds, whichever comes first
//	batcher, err := batchz.NewBatcher[Event](batchz.BufferConfig{
//		BufferSize: 1000,
//		TimeFrame:  5 * time.Second,
//	}, batchz.RealClock)
//	if err != nil {
//		return err
//	}
//
//	for result := range batcher.Process(ctx, events) {
//		if result.IsError() {
//			log.Printf("stream failed: %v", result.Error())
//			break
//		}
//		bulkInsert(result.Value())
//	}
//
// Returns an error wrapping ErrInvalidConfiguration when config is invalid.
func NewBatcher[T any](config BufferConfig, clock Clock) (*Batcher[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Batcher[T]{
		config: config,
		name:   "batcher",
		clock:  clock,
		logger: zap.NewNop(),
	}, nil
}

// WithName sets a custom name for this processor.
// If not set, defaults to "batcher".
func (b *Batcher[T]) WithName(name string) *Batcher[T] {
	b.name = name
	return b
}

// WithLogger sets the logger handed to the underlying operator.
func (b *Batcher[T]) WithLogger(logger *zap.Logger) *Batcher[T] {
	b.logger = logger
	return b
}

// WithMetrics records batching activity on m.
func (b *Batcher[T]) WithMetrics(m *Metrics) *Batcher[T] {
	b.metrics = m
	return b
}

// Process batches the values of in. The output channel is closed after in is
// closed, after the first error, or when ctx is cancelled. On cancellation the
// pending batch is discarded and no error Result is sent.
func (b *Batcher[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	o := applyOptions(b.name, []Option{
		WithClock(b.clock),
		WithLogger(b.logger),
		WithMetrics(b.metrics),
	})
	batches := bufferObservable(FromResults(ctx, in), b.config.BufferSize, b.config.TimeFrame, o)
	out, _ := ToChannel(ctx, batches)
	return out
}

// Name returns the processor name for debugging and monitoring.
func (b *Batcher[T]) Name() string {
	return b.name
}
