package batchz

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bufferOperator collects upstream values and pushes them downstream in
// batches. It is the upstream Subscriber of its source and the producer of
// its downstream.
//
// All handlers and the timer callback run under mu, which acts as the
// operator's event loop: a handler runs to completion before the next one
// starts. Unlock also reaps a downstream cancellation that happened while the
// loop was held, so teardown never blocks on a busy loop.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type bufferOperator[T any] struct {
	mu         sync.Mutex
	closed     atomic.Bool
	downstream Subscriber[[]T]
	timer      *Timer
	buffer     []T

	size   int
	window time.Duration

	name    string
	logger  *zap.Logger
	metrics *Metrics
}

// newBufferOperator wires an operator to downstream. A zero window disables
// the time trigger.
func newBufferOperator[T any](downstream Subscriber[[]T], size int, window time.Duration, o options) *bufferOperator[T] {
	op := &bufferOperator[T]{
		downstream: downstream,
		size:       size,
		window:     window,
		name:       o.name,
		metrics:    o.metrics,
		logger: o.logger.With(
			zap.String("operator", o.name),
			zap.String("subscription", uuid.NewString()),
		),
	}
	op.timer = NewTimer(o.clock, op)
	if window > 0 {
		op.timer.Bind(op.onTimeout, window)
	}
	downstream.Add(op.cancel)
	return op
}

// Lock acquires the operator's event loop.
func (op *bufferOperator[T]) Lock() {
	op.mu.Lock()
}

// Unlock releases the event loop. If the downstream was cancelled while the
// loop was held, the operator is closed first.
func (op *bufferOperator[T]) Unlock() {
	for {
		if !op.closed.Load() && op.downstream.Closed() {
			op.close()
		}
		op.mu.Unlock()
		if op.closed.Load() || !op.downstream.Closed() || !op.mu.TryLock() {
			return
		}
	}
}

// cancel is registered as a downstream teardown.
func (op *bufferOperator[T]) cancel() {
	if op.closed.Load() {
		return
	}
	if op.mu.TryLock() {
		op.Unlock()
	}
}

// Next implements Subscriber for the upstream.
func (op *bufferOperator[T]) Next(value T) error {
	op.Lock()
	defer op.Unlock()
	return op.onNext(value)
}

// Error implements Subscriber for the upstream.
func (op *bufferOperator[T]) Error(err error) {
	op.Lock()
	defer op.Unlock()
	op.onError(err)
}

// Complete implements Subscriber for the upstream.
func (op *bufferOperator[T]) Complete() {
	op.Lock()
	defer op.Unlock()
	op.onComplete()
}

// Closed tells the upstream to stop producing.
func (op *bufferOperator[T]) Closed() bool {
	return op.closed.Load() || op.downstream.Closed()
}

// Add forwards upstream teardowns to the downstream, which outlives the
// operator.
func (op *bufferOperator[T]) Add(fn func()) {
	op.downstream.Add(fn)
}

func (op *bufferOperator[T]) onNext(value T) error {
	if op.closed.Load() {
		return ErrSubscriptionClosed
	}
	if op.downstream.Closed() {
		op.close()
		return ErrSubscriptionClosed
	}

	if len(op.buffer) == 0 {
		op.timer.Restart()
	}
	op.buffer = append(op.buffer, value)
	op.metrics.observeItem(op.name)

	if len(op.buffer) >= op.size {
		if err := op.drain(TriggerCount); err != nil {
			op.fail(err)
			return err
		}
	}
	return nil
}

// onTimeout runs on the event loop when the window of the current batch
// elapses.
func (op *bufferOperator[T]) onTimeout() {
	if op.closed.Load() {
		return
	}
	if err := op.drain(TriggerTime); err != nil {
		op.fail(err)
	}
}

// drain emits the pending batch. It returns a *DeliveryError when the
// downstream rejected the batch; the caller routes it.
func (op *bufferOperator[T]) drain(trigger string) error {
	if op.downstream.Closed() {
		op.discard()
		return nil
	}
	if len(op.buffer) == 0 {
		return nil
	}

	batch := op.buffer
	op.buffer = nil
	op.timer.Stop()

	if err := op.downstream.Next(batch); err != nil {
		if errors.Is(err, ErrSubscriptionClosed) {
			op.closed.Store(true)
			op.metrics.observeSuppressed(op.name)
			return nil
		}
		op.logger.Warn("batch delivery failed",
			zap.String("trigger", trigger),
			zap.Int("size", len(batch)),
			zap.Error(err),
		)
		return &DeliveryError{Err: err, Operator: op.name, Size: len(batch)}
	}

	op.metrics.observeBatch(op.name, trigger, len(batch))
	op.logger.Debug("batch emitted",
		zap.String("trigger", trigger),
		zap.Int("size", len(batch)),
	)
	return nil
}

// discard closes the operator because the downstream is gone. Pending items
// are dropped without emission.
func (op *bufferOperator[T]) discard() {
	op.closed.Store(true)
	op.timer.Stop()
	if len(op.buffer) > 0 {
		op.metrics.observeSuppressed(op.name)
		op.logger.Debug("downstream cancelled, discarding pending batch",
			zap.Int("size", len(op.buffer)),
		)
	}
	op.buffer = nil
}

func (op *bufferOperator[T]) onError(err error) {
	if op.closed.Load() {
		return
	}
	flushErr := op.drain(TriggerError)
	if op.closed.Load() {
		return
	}
	upstreamErr := &UpstreamError{Err: err, Operator: op.name}
	if flushErr != nil {
		op.fail(errors.Join(upstreamErr, flushErr))
		return
	}
	op.timer.Stop()
	op.closed.Store(true)
	op.logger.Debug("upstream failed", zap.Error(err))
	op.downstream.Error(upstreamErr)
}

func (op *bufferOperator[T]) onComplete() {
	if op.closed.Load() {
		return
	}
	if err := op.drain(TriggerComplete); err != nil {
		op.fail(err)
		return
	}
	if op.closed.Load() {
		return
	}
	op.timer.Stop()
	op.closed.Store(true)
	op.logger.Debug("upstream completed")
	op.downstream.Complete()
}

// close shuts the operator down with a final drain. Idempotent.
func (op *bufferOperator[T]) close() {
	if !op.closed.CompareAndSwap(false, true) {
		return
	}
	if err := op.drain(TriggerClose); err != nil {
		op.downstream.Error(err)
	}
	op.timer.Stop()
	op.buffer = nil
}

// fail routes an error through the operator's error path.
func (op *bufferOperator[T]) fail(err error) {
	op.closed.Store(true)
	op.timer.Stop()
	op.buffer = nil
	op.downstream.Error(err)
}
