package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"

	batchz "github.com/zoobzio/batchz"
)

func TestCollectResultsWithTimeout(t *testing.T) {
	t.Run("collects all results before channel close", func(t *testing.T) {
		ch := make(chan batchz.Result[int], 3)
		ch <- batchz.NewSuccess(1)
		ch <- batchz.NewSuccess(2)
		ch <- batchz.NewSuccess(3)
		close(ch)

		results := CollectResultsWithTimeout(t, ch, 100*time.Millisecond)

		if len(results) != 3 {
			t.Errorf("expected 3 results, got %d", len(results))
		}
	})

	t.Run("returns on timeout", func(t *testing.T) {
		ch := make(chan batchz.Result[int])
		// Channel never sends or closes

		results := CollectResultsWithTimeout(t, ch, 50*time.Millisecond)

		if len(results) != 0 {
			t.Errorf("expected 0 results on timeout, got %d", len(results))
		}
	})

	t.Run("collects mixed success and error results", func(t *testing.T) {
		ch := make(chan batchz.Result[string], 3)
		ch <- batchz.NewSuccess("ok")
		ch <- batchz.NewError("bad", errors.New("test error"), "test")
		ch <- batchz.NewSuccess("also ok")
		close(ch)

		results := CollectResultsWithTimeout(t, ch, 100*time.Millisecond)

		if len(results) != 3 {
			t.Errorf("expected 3 results, got %d", len(results))
		}

		successCount := 0
		errorCount := 0
		for _, r := range results {
			if r.IsSuccess() {
				successCount++
			} else {
				errorCount++
			}
		}

		if successCount != 2 {
			t.Errorf("expected 2 successes, got %d", successCount)
		}
		if errorCount != 1 {
			t.Errorf("expected 1 error, got %d", errorCount)
		}
	})
}

func TestCollectValues(t *testing.T) {
	t.Run("collects only successful values", func(t *testing.T) {
		ch := make(chan batchz.Result[int], 4)
		ch <- batchz.NewSuccess(1)
		ch <- batchz.NewError(0, errors.New("error"), "test")
		ch <- batchz.NewSuccess(2)
		ch <- batchz.NewSuccess(3)
		close(ch)

		values := CollectValues(t, ch, 100*time.Millisecond)

		if len(values) != 3 {
			t.Errorf("expected 3 values, got %d", len(values))
		}

		expected := []int{1, 2, 3}
		for i, v := range values {
			if v != expected[i] {
				t.Errorf("value %d: expected %d, got %d", i, expected[i], v)
			}
		}
	})

	t.Run("returns empty slice when all errors", func(t *testing.T) {
		ch := make(chan batchz.Result[int], 2)
		ch <- batchz.NewError(0, errors.New("error1"), "test")
		ch <- batchz.NewError(0, errors.New("error2"), "test")
		close(ch)

		values := CollectValues(t, ch, 100*time.Millisecond)

		if len(values) != 0 {
			t.Errorf("expected 0 values, got %d", len(values))
		}
	})
}

func TestSendValues(t *testing.T) {
	t.Run("sends values as success results", func(t *testing.T) {
		values := []string{"a", "b", "c"}
		ch := SendValues(t, values)

		collected := CollectResultsWithTimeout(t, ch, 100*time.Millisecond)

		if len(collected) != 3 {
			t.Errorf("expected 3 results, got %d", len(collected))
		}

		for i, r := range collected {
			if !r.IsSuccess() {
				t.Errorf("result %d: expected success", i)
				continue
			}
			if r.Value() != values[i] {
				t.Errorf("result %d: expected %q, got %q", i, values[i], r.Value())
			}
		}
	})

	t.Run("returns closed channel", func(t *testing.T) {
		ch := SendValues(t, []int{1})

		// Drain the channel
		<-ch

		// Should be closed
		_, ok := <-ch
		if ok {
			t.Error("expected channel to be closed")
		}
	})
}

func TestRecorder(t *testing.T) {
	t.Run("records notifications in order", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		rec := NewRecorder[int](clock)

		_ = rec.Next(1)
		clock.Advance(10 * time.Millisecond)
		_ = rec.Next(2)
		rec.Complete()

		events := rec.Events()
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		kinds := []string{events[0].Kind, events[1].Kind, events[2].Kind}
		if kinds[0] != KindNext || kinds[1] != KindNext || kinds[2] != KindComplete {
			t.Errorf("unexpected kinds %v", kinds)
		}
		if got := events[1].At.Sub(events[0].At); got != 10*time.Millisecond {
			t.Errorf("expected events 10ms apart, got %v", got)
		}
		if rec.Completions() != 1 {
			t.Errorf("expected 1 completion, got %d", rec.Completions())
		}
	})

	t.Run("fails the configured Next", func(t *testing.T) {
		sinkErr := errors.New("sink full")
		rec := NewRecorder[string](clockz.NewFakeClock()).FailNext(2, sinkErr)

		if err := rec.Next("a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := rec.Next("b"); !errors.Is(err, sinkErr) {
			t.Errorf("expected %v, got %v", sinkErr, err)
		}
		if values := rec.Values(); len(values) != 1 || values[0] != "a" {
			t.Errorf("expected [a], got %v", values)
		}
	})

	t.Run("records errors", func(t *testing.T) {
		boom := errors.New("boom")
		rec := NewRecorder[int](clockz.NewFakeClock())
		rec.Error(boom)

		if !errors.Is(rec.Err(), boom) {
			t.Errorf("expected %v, got %v", boom, rec.Err())
		}
	})

	t.Run("waits for values from another goroutine", func(t *testing.T) {
		rec := NewRecorder[int](clockz.NewFakeClock())
		go func() {
			for i := 0; i < 3; i++ {
				_ = rec.Next(i)
			}
		}()

		values := rec.WaitForValues(t, 3, time.Second)
		if len(values) != 3 {
			t.Errorf("expected 3 values, got %v", values)
		}
	})
}

func TestSource(t *testing.T) {
	t.Run("pushes into the subscriber", func(t *testing.T) {
		src := NewSource[int]()
		if src.Subscribed() {
			t.Fatal("expected a fresh source to be unsubscribed")
		}
		rec := NewRecorder[int](clockz.NewFakeClock())
		sub := src.Observable().Subscribe(rec)
		if !src.Subscribed() {
			t.Fatal("expected source to be subscribed")
		}

		if err := src.Next(7); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		src.Complete()

		if values := rec.Values(); len(values) != 1 || values[0] != 7 {
			t.Errorf("expected [7], got %v", values)
		}
		if !src.Closed() || !sub.Closed() {
			t.Error("expected source and subscription closed after Complete")
		}
	})

	t.Run("panics without a subscriber", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewSource[int]().Complete()
	})
}
