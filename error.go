package batchz

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration is returned by constructors when the buffer size or
// time frame cannot drive an operator. The operator is never started.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// UpstreamError wraps a failure signaled by the producer of a stream.
// It is forwarded downstream after any pending batch has been flushed.
type UpstreamError struct {
	// Err is the error the producer signaled.
	Err error

	// Operator names the operator that forwarded the error.
	Operator string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream error: %v", e.Operator, e.Err)
}

// Unwrap returns the producer's error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// DeliveryError reports that the downstream consumer rejected a batch.
// The operator routes it through its own error path and closes.
type DeliveryError struct {
	Err      error
	Operator string
	Size     int
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: delivering batch of %d failed: %v", e.Operator, e.Size, e.Err)
}

// Unwrap returns the consumer's error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// StreamError represents an error that occurred during channel based stream
// processing. It captures both the item that caused the error and the error
// itself.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type StreamError[T any] struct {
	// Item is the original item that caused the processing error.
	Item T

	// Err is the underlying error that occurred during processing.
	Err error

	// ProcessorName identifies which processor generated the error.
	ProcessorName string

	// Timestamp records when the error occurred.
	Timestamp time.Time
}

// NewStreamError creates a new StreamError with the current timestamp.
func NewStreamError[T any](item T, err error, processorName string) *StreamError[T] {
	return &StreamError[T]{
		Item:          item,
		Err:           err,
		ProcessorName: processorName,
		Timestamp:     time.Now(),
	}
}

// String returns a human-readable representation of the error.
func (se *StreamError[T]) String() string {
	return fmt.Sprintf("StreamError[%s]: %v (item: %v, time: %s)",
		se.ProcessorName, se.Err, se.Item, se.Timestamp.Format(time.RFC3339))
}

// Unwrap returns the underlying error, enabling error wrapping chains.
func (se *StreamError[T]) Unwrap() error {
	return se.Err
}

// Error implements the error interface.
func (se *StreamError[T]) Error() string {
	return se.String()
}
