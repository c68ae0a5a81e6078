package dispatcher

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"elevsim/src/elev"
	"elevsim/src/notify"
	"elevsim/src/types"
)

// System owns the cars of one building, their stop queues and the scheduling loop.
// It is the elev.Panel every car is created against.
type System struct {
	minFloor int
	maxFloor int
	bus      *notify.Bus

	// mu guards the registry, every stop queue and every in-flight marker.
	mu   sync.Mutex
	cars []*carEntry
	byID map[int]*carEntry

	lifeMu  sync.Mutex
	running bool
	stopped bool
	quit    chan struct{}
	wake    chan struct{}
	wg      sync.WaitGroup
}

func New(minFloor, maxFloor int) (*System, error) {
	if minFloor > maxFloor {
		return nil, fmt.Errorf("%w: min floor %d > max floor %d", types.ErrInvalidArgument, minFloor, maxFloor)
	}
	return &System{
		minFloor: minFloor,
		maxFloor: maxFloor,
		bus:      notify.NewBus(),
		byID:     make(map[int]*carEntry),
		quit:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}, nil
}

// NewCar creates a car on this system and registers it.
func (s *System) NewCar(id, maxCapacity int, opts ...elev.Option) (*elev.Car, error) {
	car, err := elev.NewCar(id, maxCapacity, s, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.AddCar(car); err != nil {
		return nil, err
	}
	return car, nil
}

// AddCar registers a car created with s as its panel.
func (s *System) AddCar(car *elev.Car) error {
	if car == nil {
		return fmt.Errorf("%w: nil car", types.ErrInvalidArgument)
	}
	if !car.BelongsTo(s) {
		return fmt.Errorf("%w: car %d was created for another dispatcher", types.ErrInvalidArgument, car.ID())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[car.ID()]; exists {
		return fmt.Errorf("%w: car %d already registered", types.ErrInvalidArgument, car.ID())
	}
	e := &carEntry{car: car}
	s.cars = append(s.cars, e)
	s.byID[car.ID()] = e
	slog.Debug("Car registered", "car", car.ID(), "floor", car.Floor())
	return nil
}

// SelectNearest returns the idle car with an empty queue closest to floor, or false if
// every car is busy.
func (s *System) SelectNearest(floor int) (*elev.Car, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.selectNearestLocked(floor)
	if e == nil {
		return nil, false
	}
	return e.car, true
}

// CallUp is a hall call from a passenger heading up. It blocks until the chosen car has
// arrived at floor and returns it, or fails with ErrNoAvailableCar.
func (s *System) CallUp(floor int) (*elev.Car, error) {
	if err := s.checkFloor(floor); err != nil {
		return nil, err
	}
	return s.call(floor, types.DirUp)
}

// CallDown is CallUp for a passenger heading down.
func (s *System) CallDown(floor int) (*elev.Car, error) {
	if err := s.checkFloor(floor); err != nil {
		return nil, err
	}
	return s.call(floor, types.DirDown)
}

func (s *System) call(floor int, dir types.Direction) (*elev.Car, error) {
	s.mu.Lock()
	e := s.selectNearestLocked(floor)
	if e == nil {
		s.mu.Unlock()
		slog.Warn("No car available for hall call", "floor", floor, "dir", dir)
		return nil, fmt.Errorf("%w: hall call %s at floor %d", types.ErrNoAvailableCar, dir, floor)
	}
	// Claim the car so the scheduling loop leaves it alone while it answers the call.
	e.inFlight = true
	e.dir = dir
	s.mu.Unlock()

	slog.Info("Hall call assigned", "floor", floor, "dir", dir, "car", e.car.ID(), "from", e.car.Floor())
	err := e.car.MoveTo(floor)
	s.release(e)
	if err != nil {
		return nil, err
	}
	return e.car, nil
}

func (s *System) RequestStop(carID, floor int) error {
	return s.RequestStops(carID, floor)
}

// RequestStops queues cabin requests for a car, ordered by the direction of the last hall
// call that car served.
func (s *System) RequestStops(carID int, floors ...int) error {
	return s.enqueue(carID, floors, func(e *carEntry) types.Direction { return e.dir })
}

// RequestStopsDir queues cabin requests ordered by dir: ascending for DirUp, descending otherwise.
func (s *System) RequestStopsDir(carID int, dir types.Direction, floors ...int) error {
	return s.enqueue(carID, floors, func(*carEntry) types.Direction { return dir })
}

func (s *System) enqueue(carID int, floors []int, direction func(*carEntry) types.Direction) error {
	if len(floors) == 0 {
		return fmt.Errorf("%w: car %d empty stop list", types.ErrInvalidArgument, carID)
	}
	for _, floor := range floors {
		if err := s.checkFloor(floor); err != nil {
			return err
		}
	}

	s.mu.Lock()
	e, ok := s.byID[carID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: unknown car %d", types.ErrInvalidArgument, carID)
	}
	dir := direction(e)
	e.enqueueLocked(floors, dir)
	pending := len(e.stops)
	s.mu.Unlock()

	slog.Debug("Stops queued", "car", carID, "floors", floors, "dir", dir, "pending", pending)
	s.signal()
	return nil
}

// Publish fans a car's step event out to all subscribers.
func (s *System) Publish(ev types.StepEvent) {
	s.bus.Publish(ev)
}

func (s *System) Subscribe(observer types.Observer) error {
	return s.bus.Subscribe(observer)
}

func (s *System) SubscribeChan(buffer int) <-chan types.StepEvent {
	return s.bus.SubscribeChan(buffer)
}

func (s *System) MinFloor() int   { return s.minFloor }
func (s *System) MaxFloor() int   { return s.maxFloor }
func (s *System) FloorCount() int { return s.maxFloor - s.minFloor + 1 }

func (s *System) CarCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cars)
}

func (s *System) TotalPowerConsumed() int {
	total := 0
	for _, car := range s.Cars() {
		total += car.PowerUsed()
	}
	return total
}

func (s *System) Car(id int) (*elev.Car, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return e.car, true
}

// Cars returns the registered cars in registration order.
func (s *System) Cars() []*elev.Car {
	s.mu.Lock()
	defer s.mu.Unlock()
	cars := make([]*elev.Car, 0, len(s.cars))
	for _, e := range s.cars {
		cars = append(cars, e.car)
	}
	return cars
}

// Snapshots returns the state of every car in registration order.
func (s *System) Snapshots() []elev.CarState {
	cars := s.Cars()
	states := make([]elev.CarState, 0, len(cars))
	for _, car := range cars {
		states = append(states, car.Snapshot())
	}
	return states
}

// Stops returns a deep copy of every car's pending queue.
func (s *System) Stops() map[int][]int {
	s.mu.Lock()
	queues := make(map[int][]int, len(s.cars))
	for id, e := range s.byID {
		queues[id] = e.stops
	}
	clone := make(map[int][]int, len(queues))
	err := deepcopy.Copy(&clone, queues)
	s.mu.Unlock()
	if err != nil {
		slog.Error("Copying stop queues failed", "err", err)
		return nil
	}
	return clone
}

func (s *System) checkFloor(floor int) error {
	if floor < s.minFloor || floor > s.maxFloor {
		return fmt.Errorf("%w: floor %d not in [%d, %d]", types.ErrOutOfRange, floor, s.minFloor, s.maxFloor)
	}
	return nil
}
