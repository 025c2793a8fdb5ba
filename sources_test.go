package batchz_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/zoobzio/clockz"

	batchz "github.com/zoobzio/batchz"
	bt "github.com/zoobzio/batchz/testing"
)

func TestFrom(t *testing.T) {
	rec := bt.NewRecorder[int](clockz.NewFakeClock())
	sub := batchz.From(1, 2, 3).Subscribe(rec)

	if got := rec.Values(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if rec.Completions() != 1 {
		t.Errorf("expected 1 completion, got %d", rec.Completions())
	}
	if !sub.Closed() {
		t.Error("expected subscription closed after completion")
	}
}

func TestFrom_StopsOnDownstreamFailure(t *testing.T) {
	sinkErr := errors.New("sink full")
	rec := bt.NewRecorder[int](clockz.NewFakeClock()).FailNext(2, sinkErr)
	batchz.From(1, 2, 3).Subscribe(rec)

	if got := rec.Values(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected [1], got %v", got)
	}
	if rec.Completions() != 0 {
		t.Error("expected no completion after a failed delivery")
	}
}

func TestEmpty(t *testing.T) {
	rec := bt.NewRecorder[string](clockz.NewFakeClock())
	batchz.Empty[string]().Subscribe(rec)

	events := rec.Events()
	if len(events) != 1 || events[0].Kind != bt.KindComplete {
		t.Errorf("expected a single completion, got %v", events)
	}
}

func TestThrow(t *testing.T) {
	boom := errors.New("boom")
	rec := bt.NewRecorder[string](clockz.NewFakeClock())
	sub := batchz.Throw[string](boom).Subscribe(rec)

	if !errors.Is(rec.Err(), boom) {
		t.Errorf("expected %v, got %v", boom, rec.Err())
	}
	<-sub.Done()
	if !errors.Is(sub.Err(), boom) {
		t.Errorf("expected subscription error %v, got %v", boom, sub.Err())
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	rec := bt.NewRecorder[int](clockz.NewFakeClock())
	sub := batchz.FromChannel(context.Background(), ch).Subscribe(rec)

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("stream did not complete")
	}
	if got := rec.Values(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if rec.Completions() != 1 {
		t.Errorf("expected 1 completion, got %d", rec.Completions())
	}
}

func TestFromChannel_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan int)

	rec := bt.NewRecorder[int](clockz.NewFakeClock())
	sub := batchz.FromChannel(ctx, ch).Subscribe(rec)

	ch <- 1
	rec.WaitForValues(t, 1, time.Second)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("stream did not terminate")
	}
	if !errors.Is(sub.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", sub.Err())
	}
}

func TestFromChannel_Unsubscribe(t *testing.T) {
	ch := make(chan int)

	rec := bt.NewRecorder[int](clockz.NewFakeClock())
	sub := batchz.FromChannel(context.Background(), ch).Subscribe(rec)
	sub.Unsubscribe()

	select {
	case ch <- 1:
		// The reader may race the teardown once; the value must not arrive.
	case <-time.After(20 * time.Millisecond):
	}
	if len(rec.Events()) != 0 {
		t.Errorf("expected no notifications after cancel, got %v", rec.Events())
	}
}

func TestInterval(t *testing.T) {
	clock := clockz.NewFakeClock()
	rec := bt.NewRecorder[int](clock)
	sub := batchz.Interval(100*time.Millisecond, clock).Subscribe(rec)
	defer sub.Unsubscribe()

	for i := 1; i <= 3; i++ {
		clock.Advance(100 * time.Millisecond)
		clock.BlockUntilReady()
		rec.WaitForValues(t, i, time.Second)
	}

	if got := rec.Values(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("expected [0 1 2], got %v", got)
	}
	if rec.Completions() != 0 {
		t.Error("interval must not complete on its own")
	}
}

func TestInterval_Unsubscribe(t *testing.T) {
	clock := clockz.NewFakeClock()
	rec := bt.NewRecorder[int](clock)
	sub := batchz.Interval(10*time.Millisecond, clock).Subscribe(rec)

	clock.Advance(10 * time.Millisecond)
	clock.BlockUntilReady()
	rec.WaitForValues(t, 1, time.Second)
	sub.Unsubscribe()

	clock.Advance(100 * time.Millisecond)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)

	if got := rec.Values(); len(got) != 1 {
		t.Errorf("expected a single tick before cancel, got %v", got)
	}
}
