package audio

import (
	"context"
	"math"
	"reflect"
	"runtime"
	"testing"
)

func TestEventBufferTime(t *testing.T) {
	buf := newEventBuffer(8)
	buf.push(stepEvent{time: 2})
	buf.push(stepEvent{time: 3})

	var events []stepEvent
	buf.iter(2, func(ev stepEvent) {
		events = append(events, ev)
	})
	if want, got := 0, len(events); want != got {
		t.Errorf("expected zero events, got %v", got)
	}

	buf.iter(4, func(ev stepEvent) {
		events = append(events, ev)
	})
	if want, got := 2, len(events); want != got {
		t.Errorf("expected %v events, got %v", want, got)
	}
}

func TestEventBufferFull(t *testing.T) {
	buf := newEventBuffer(2)
	if !buf.push(stepEvent{step: 1}) || !buf.push(stepEvent{step: 2}) {
		t.Fatal("push failed on a buffer with free slots")
	}
	if buf.push(stepEvent{step: 3}) {
		t.Error("push succeeded on a full buffer")
	}
	var steps []int
	buf.iter(math.Inf(1), func(ev stepEvent) { steps = append(steps, ev.step) })
	if want, got := []int{1, 2}, steps; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong steps: want %v, got %v", want, got)
	}
}

func TestEventBuffer(t *testing.T) {
	buf := newEventBuffer(8)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var events []stepEvent
	go func() {
		for {
			select {
			case <-ctx.Done():
				buf.iter(math.Inf(1), func(ev stepEvent) {
					events = append(events, ev)
				})
				done <- struct{}{}
				return
			default:
				buf.iter(math.Inf(1), func(ev stepEvent) {
					events = append(events, ev)
				})
				runtime.Gosched()
			}
		}
	}()

	const numEvents = 100_000
	for n := 0; n < numEvents; n++ {
		for !buf.push(stepEvent{step: n}) {
			runtime.Gosched()
		}
	}

	cancel()
	<-done

	if len(events) != numEvents {
		t.Errorf("wrong number of events: want %v, got %v", numEvents, len(events))
	}

	prev := -1
	for _, ev := range events {
		if want, got := prev+1, ev.step; want != got {
			t.Errorf("discontinuous event step: want: %v, got %v", want, ev.step)
		}
		prev++
	}
}

func TestStepNotifierWaitsForClock(t *testing.T) {
	clock := &fakeClock{}
	n := NewStepNotifier(clock)
	var steps []int
	n.SetCallback(func(step int) { steps = append(steps, step) })

	n.Notify(0.5, 0)
	n.Notify(0.625, 1)

	n.Flush()
	if len(steps) != 0 {
		t.Fatalf("delivered steps before their time: %v", steps)
	}
	clock.now = 0.6
	n.Flush()
	if want, got := []int{0}, steps; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong steps: want %v, got %v", want, got)
	}
	clock.now = 1
	n.Flush()
	if want, got := []int{0, 1}, steps; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong steps: want %v, got %v", want, got)
	}
}

func TestStepNotifierDropsWhenFull(t *testing.T) {
	n := NewStepNotifier(&fakeClock{})
	for i := 0; i < 70; i++ {
		n.Notify(float64(i), i%16)
	}
	if want, got := uint64(6), n.Dropped(); want != got {
		t.Errorf("dropped: want %v, got %v", want, got)
	}
}

func TestStepNotifierDiscard(t *testing.T) {
	clock := &fakeClock{}
	n := NewStepNotifier(clock)
	var steps []int
	n.SetCallback(func(step int) { steps = append(steps, step) })

	n.Notify(0.5, 3)
	n.Notify(0.625, 4)
	n.Discard()
	n.Notify(1, 0)

	clock.now = 2
	n.Flush()
	if want, got := []int{0}, steps; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong steps: want %v, got %v", want, got)
	}
}
