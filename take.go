package batchz

// Take emits the first count values of src and then completes, cancelling
// src. A count of zero or less completes without subscribing to src.
//
// Example:
//
//	// Ten ticks, then done
//	ten := batchz.Take(batchz.Interval(time.Second, batchz.RealClock), 10)
func Take[T any](src Observable[T], count int) Observable[T] {
	return Create(func(downstream Subscriber[T]) {
		if count <= 0 {
			downstream.Complete()
			return
		}

		taken := 0
		src.SubscribeWith(&relay[T, T]{
			Subscriber: downstream,
			next: func(v T) error {
				if err := downstream.Next(v); err != nil {
					return err
				}
				taken++
				if taken >= count {
					downstream.Complete()
				}
				return nil
			},
		})
	})
}
