package batchz

// Map transforms every value of src with fn. Errors and completion pass
// through unchanged.
//
// Example:
//
//	lengths := batchz.Map(words, func(s string) int { return len(s) })
func Map[In, Out any](src Observable[In], fn func(In) Out) Observable[Out] {
	return Create(func(downstream Subscriber[Out]) {
		src.SubscribeWith(&relay[In, Out]{
			Subscriber: downstream,
			next: func(v In) error {
				return downstream.Next(fn(v))
			},
		})
	})
}
