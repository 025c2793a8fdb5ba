package batchz

// Filter passes through only the values for which predicate returns true.
// The predicate should be pure; it runs on the producer's goroutine.
//
// Example:
//
//	positive := batchz.Filter(numbers, func(n int) bool { return n > 0 })
func Filter[T any](src Observable[T], predicate func(T) bool) Observable[T] {
	return Create(func(downstream Subscriber[T]) {
		src.SubscribeWith(&relay[T, T]{
			Subscriber: downstream,
			next: func(v T) error {
				if !predicate(v) {
					return nil
				}
				return downstream.Next(v)
			},
		})
	})
}
