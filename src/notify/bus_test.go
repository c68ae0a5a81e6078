package notify

import (
	"errors"
	"sync"
	"testing"

	"elevsim/src/types"
)

func TestPublishReachesAllObservers(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	var got []int
	for i := range 3 {
		if err := bus.Subscribe(func(ev types.StepEvent) {
			mu.Lock()
			got = append(got, i*100+ev.Floor)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Subscribe returned %v", err)
		}
	}

	bus.Publish(types.StepEvent{CarID: 1, Floor: 7, Target: 9, Power: 2})

	expected := []int{7, 107, 207}
	if len(got) != len(expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("delivery %d = %d, expected %d", i, got[i], expected[i])
		}
	}
}

func TestSubscribeNil(t *testing.T) {
	if err := NewBus().Subscribe(nil); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("Subscribe(nil) = %v, expected ErrInvalidArgument", err)
	}
}

func TestPanickingObserverIsIsolated(t *testing.T) {
	bus := NewBus()
	calls := 0
	_ = bus.Subscribe(func(types.StepEvent) { panic("render failed") })
	_ = bus.Subscribe(func(types.StepEvent) { calls++ })

	bus.Publish(types.StepEvent{CarID: 0, Floor: 1})
	bus.Publish(types.StepEvent{CarID: 0, Floor: 2})

	if calls != 2 {
		t.Errorf("second observer called %d times, expected 2", calls)
	}
}

func TestSubscribeChanDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch := bus.SubscribeChan(2)
	for floor := range 5 {
		bus.Publish(types.StepEvent{Floor: floor})
	}

	if first := <-ch; first.Floor != 0 {
		t.Errorf("first buffered floor = %d, expected 0", first.Floor)
	}
	if second := <-ch; second.Floor != 1 {
		t.Errorf("second buffered floor = %d, expected 1", second.Floor)
	}
	if bus.Dropped() != 3 {
		t.Errorf("Dropped() = %d, expected 3", bus.Dropped())
	}
}

func TestCloseEndsChannelSubscribers(t *testing.T) {
	bus := NewBus()
	ch := bus.SubscribeChan(4)
	bus.Publish(types.StepEvent{Floor: 3})
	bus.Close()
	bus.Close()

	var floors []int
	for ev := range ch {
		floors = append(floors, ev.Floor)
	}
	if len(floors) != 1 || floors[0] != 3 {
		t.Errorf("drained %v, expected [3]", floors)
	}

	// publishing after Close must not panic on the closed channel
	bus.Publish(types.StepEvent{Floor: 4})
	if _, ok := <-bus.SubscribeChan(1); ok {
		t.Errorf("SubscribeChan after Close returned an open channel")
	}
}
