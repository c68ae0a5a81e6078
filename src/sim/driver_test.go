package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"elevsim/src/dispatcher"
	"elevsim/src/elev"
	"elevsim/src/types"
)

const testTimeout = 5 * time.Second

// fakeSystem serves every hall call with one car after refusing the first busy calls.
type fakeSystem struct {
	car *elev.Car

	mu       sync.Mutex
	busy     int
	calls    []types.Direction
	requests []int
}

func newFakeSystem(t *testing.T, capacity, busy int) *fakeSystem {
	t.Helper()
	fs := &fakeSystem{busy: busy}
	car, err := elev.NewCar(0, capacity, fs, elev.WithStepDelay(0))
	if err != nil {
		t.Fatalf("NewCar returned %v", err)
	}
	fs.car = car
	return fs
}

func (fs *fakeSystem) call(floor int, dir types.Direction) (*elev.Car, error) {
	fs.mu.Lock()
	fs.calls = append(fs.calls, dir)
	if fs.busy > 0 {
		fs.busy--
		fs.mu.Unlock()
		return nil, fmt.Errorf("%w: floor %d", types.ErrNoAvailableCar, floor)
	}
	fs.mu.Unlock()
	return fs.car, fs.car.MoveTo(floor)
}

func (fs *fakeSystem) CallUp(floor int) (*elev.Car, error)   { return fs.call(floor, types.DirUp) }
func (fs *fakeSystem) CallDown(floor int) (*elev.Car, error) { return fs.call(floor, types.DirDown) }
func (fs *fakeSystem) MinFloor() int                         { return 0 }
func (fs *fakeSystem) MaxFloor() int                         { return 20 }
func (fs *fakeSystem) Publish(types.StepEvent)               {}

func (fs *fakeSystem) RequestStops(carID int, floors ...int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requests = append(fs.requests, floors...)
	return nil
}

func TestTravelRetriesUntilCarFree(t *testing.T) {
	fs := newFakeSystem(t, 10, 3)
	drv := NewDriver(fs, WithRetryDelay(time.Millisecond))

	if err := drv.Travel(context.Background(), 4, 1); err != nil {
		t.Fatalf("Travel returned %v", err)
	}
	stats := drv.Stats()
	if stats.Retries != 3 || stats.Served != 1 {
		t.Errorf("stats = %+v, expected 3 retries and 1 served", stats)
	}
	if len(fs.calls) != 4 || fs.calls[3] != types.DirDown {
		t.Errorf("hall calls = %v, expected four down calls", fs.calls)
	}
	if fs.car.Floor() != 4 || fs.car.Capacity() != 1 {
		t.Errorf("car at %d with %d aboard, expected floor 4 with 1", fs.car.Floor(), fs.car.Capacity())
	}
	if len(fs.requests) != 1 || fs.requests[0] != 1 {
		t.Errorf("cabin requests = %v, expected [1]", fs.requests)
	}
}

func TestTravelStopsRetryingOnCancel(t *testing.T) {
	fs := newFakeSystem(t, 10, 1<<30)
	drv := NewDriver(fs, WithRetryDelay(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := drv.Travel(ctx, 2, 9); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Travel = %v, expected DeadlineExceeded", err)
	}
	if drv.Stats().Served != 0 {
		t.Errorf("passenger served while every car was busy")
	}
}

func TestTravelFullCar(t *testing.T) {
	fs := newFakeSystem(t, 1, 0)
	if err := fs.car.AddPersons(1); err != nil {
		t.Fatalf("AddPersons returned %v", err)
	}
	drv := NewDriver(fs)

	if err := drv.Travel(context.Background(), 3, 8); err != nil {
		t.Fatalf("Travel returned %v", err)
	}
	if stats := drv.Stats(); stats.Refused != 1 || stats.Served != 0 {
		t.Errorf("stats = %+v, expected 1 refused", stats)
	}
	if len(fs.requests) != 0 {
		t.Errorf("refused passenger requested %v", fs.requests)
	}
	if fs.calls[0] != types.DirUp {
		t.Errorf("3 -> 8 issued a %v call, expected up", fs.calls[0])
	}
}

func TestPickTripDistinctFloors(t *testing.T) {
	fs := newFakeSystem(t, 10, 0)
	drv := NewDriver(fs, WithSeed(7))
	for range 500 {
		origin, dest := drv.pickTrip()
		if origin == dest {
			t.Fatalf("pickTrip returned %d twice", origin)
		}
		if origin < 0 || origin > 20 || dest < 0 || dest > 20 {
			t.Fatalf("pickTrip returned %d -> %d outside [0, 20]", origin, dest)
		}
	}
}

func TestRunFeedsSchedulingLoop(t *testing.T) {
	s, err := dispatcher.New(0, 20)
	if err != nil {
		t.Fatalf("New returned %v", err)
	}
	for id, floor := range []int{0, 20} {
		if _, err := s.NewCar(id, 100, elev.WithStartFloor(floor), elev.WithStepDelay(0)); err != nil {
			t.Fatalf("NewCar returned %v", err)
		}
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start returned %v", err)
	}
	defer s.Shutdown()

	const trips = 12
	drv := NewDriver(s,
		WithTrips(trips),
		WithInterval(time.Millisecond),
		WithRetryDelay(time.Millisecond),
		WithSeed(1))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := drv.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if err := s.Drain(ctx); err != nil {
		t.Fatalf("Drain returned %v", err)
	}

	stats := drv.Stats()
	if stats.Served != trips || stats.Failed != 0 {
		t.Errorf("stats = %+v, expected %d served", stats, trips)
	}
	aboard := 0
	for _, state := range s.Snapshots() {
		aboard += state.Capacity
		if state.Phase != types.Idle {
			t.Errorf("car %d still %v after Drain", state.ID, state.Phase)
		}
	}
	if aboard != trips {
		t.Errorf("%d persons aboard, expected %d", aboard, trips)
	}
	if s.TotalPowerConsumed() == 0 {
		t.Errorf("no power used after %d trips", trips)
	}
}

type singleFloor struct{ fakeSystem }

func (*singleFloor) MaxFloor() int { return 0 }

func TestRunRejectsSingleFloor(t *testing.T) {
	drv := NewDriver(&singleFloor{})
	if err := drv.Run(context.Background()); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("Run on a one-floor building = %v, expected ErrInvalidArgument", err)
	}
}
