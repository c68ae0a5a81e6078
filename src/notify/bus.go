// Package notify fans movement steps out to any number of subscribers.
package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"elevsim/src/types"
)

type Bus struct {
	mu        sync.RWMutex
	observers []types.Observer
	chans     []chan types.StepEvent
	closed    bool
	dropped   atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(observer types.Observer) error {
	if observer == nil {
		return types.ErrInvalidArgument
	}
	b.mu.Lock()
	b.observers = append(b.observers, observer)
	b.mu.Unlock()
	return nil
}

// SubscribeChan returns a buffered channel receiving every event. Sends never block:
// when the buffer is full the event is dropped and counted. The channel is closed by
// Close; subscribing to a closed bus returns an already closed channel.
func (b *Bus) SubscribeChan(buffer int) <-chan types.StepEvent {
	ch := make(chan types.StepEvent, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.chans = append(b.chans, ch)
	return ch
}

// Publish delivers ev to every subscriber on the calling goroutine. A panicking
// observer is logged and skipped.
func (b *Bus) Publish(ev types.StepEvent) {
	b.mu.RLock()
	observers := b.observers
	b.mu.RUnlock()

	for _, observer := range observers {
		deliver(observer, ev)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.chans {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close closes every channel handed out by SubscribeChan. Observers stay registered.
// Calling Close more than once is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.chans {
		close(ch)
	}
	b.chans = nil
}

func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func deliver(observer types.Observer, ev types.StepEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Observer panicked", "car", ev.CarID, "floor", ev.Floor, "panic", r)
		}
	}()
	observer(ev)
}
