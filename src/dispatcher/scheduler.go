package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"elevsim/src/config"
	"elevsim/src/types"
)

// Start launches the scheduling loop. Starting a running system is a no-op; starting a
// system that was shut down returns ErrShutdown.
func (s *System) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.stopped {
		return types.ErrShutdown
	}
	if s.running {
		return nil
	}
	s.running = true
	s.wg.Add(1)
	go s.run()
	slog.Info("Dispatcher started", "cars", s.CarCount(), "floors", s.FloorCount())
	return nil
}

// Shutdown stops the scheduling loop. Moves already in flight run to completion; use Wait
// to block until they have. Calling Shutdown more than once is a no-op.
func (s *System) Shutdown() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.quit)
	slog.Info("Dispatcher shutting down")
}

// Wait blocks until the loop has exited and every move it launched has finished. Before
// Start it returns at once. After Shutdown it also closes every SubscribeChan channel.
func (s *System) Wait() {
	s.wg.Wait()
	s.lifeMu.Lock()
	stopped := s.stopped
	s.lifeMu.Unlock()
	if stopped {
		s.bus.Close()
	}
}

// Drain blocks until every queue is empty, nothing is in flight and every car is idle.
func (s *System) Drain(ctx context.Context) error {
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()
	for {
		if s.settled() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *System) settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.cars {
		if e.inFlight || len(e.stops) > 0 || !e.car.IsIdle() {
			return false
		}
	}
	return true
}

// run sweeps all cars, then sleeps until a queue or in-flight marker changes. The ticker
// catches cars that became idle through a direct MoveTo.
func (s *System) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			slog.Debug("Scheduling loop stopped")
			return
		default:
		}

		s.sweep()

		select {
		case <-s.quit:
			slog.Debug("Scheduling loop stopped")
			return
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// sweep claims every idle car with pending stops: it pops the next floor and marks the car
// in flight under the same lock, then moves the car on its own goroutine.
func (s *System) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.cars {
		if e.inFlight || !e.car.IsIdle() {
			continue
		}
		floor, ok := e.popLocked()
		if !ok {
			continue
		}
		e.inFlight = true
		s.dispatch(e, floor)
	}
}

func (s *System) dispatch(e *carEntry, floor int) {
	trip := uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		slog.Debug("Trip started", "trip", trip, "car", e.car.ID(), "from", e.car.Floor(), "floor", floor)
		if err := e.car.MoveTo(floor); err != nil {
			slog.Error("Trip failed", "trip", trip, "car", e.car.ID(), "floor", floor, "err", err)
		} else {
			slog.Debug("Trip finished", "trip", trip, "car", e.car.ID(), "floor", floor, "power", e.car.PowerUsed())
		}
		s.release(e)
	}()
}

// release clears the in-flight marker and wakes the loop.
func (s *System) release(e *carEntry) {
	s.mu.Lock()
	e.inFlight = false
	s.mu.Unlock()
	s.signal()
}

func (s *System) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
