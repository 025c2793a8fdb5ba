package batchz

import (
	"fmt"

	"go.uber.org/zap"
)

// Tap calls fn for every value of src and passes the value through
// unchanged. It is meant for logging, metrics and debugging.
//
// A panic in fn is recovered and logged on logger so an observer never
// breaks the stream. A nil logger discards the report.
//
// Example:
//
//	traced := batchz.Tap(events, func(e Event) {
//		logger.Debug("event", zap.String("id", e.ID))
//	}, logger)
func Tap[T any](src Observable[T], fn func(T), logger *zap.Logger) Observable[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Create(func(downstream Subscriber[T]) {
		src.SubscribeWith(&relay[T, T]{
			Subscriber: downstream,
			next: func(v T) error {
				func() {
					defer func() {
						if r := recover(); r != nil {
							logger.Error("tap side effect panicked", zap.String("panic", fmt.Sprint(r)))
						}
					}()
					fn(v)
				}()
				return downstream.Next(v)
			},
		})
	})
}
