package elev

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"elevsim/src/config"
	"elevsim/src/types"
)

// Panel is the dispatch surface a car belongs to. Cars forward cabin requests and step
// events through it and take their floor bounds from it.
type Panel interface {
	RequestStops(carID int, floors ...int) error
	Publish(ev types.StepEvent)
	MinFloor() int
	MaxFloor() int
}

// CarState is a point-in-time copy of a car.
type CarState struct {
	ID          int
	Floor       int
	Target      int
	Capacity    int
	MaxCapacity int
	Power       int
	Phase       types.MovementPhase
}

type Car struct {
	id          int
	maxCapacity int
	panel       Panel
	stepDelay   time.Duration

	// moveMu serializes MoveTo calls on the same car.
	moveMu sync.Mutex

	mu       sync.RWMutex
	floor    int
	target   int
	capacity int
	power    int
	phase    types.MovementPhase
}

type Option func(*Car)

func WithStartFloor(floor int) Option {
	return func(c *Car) {
		c.floor = floor
		c.target = floor
	}
}

func WithStepDelay(d time.Duration) Option {
	return func(c *Car) { c.stepDelay = d }
}

// NewCar creates an idle, empty car at the panel's lowest floor unless WithStartFloor says otherwise.
func NewCar(id, maxCapacity int, panel Panel, opts ...Option) (*Car, error) {
	if panel == nil {
		return nil, fmt.Errorf("%w: car %d has no panel", types.ErrInvalidArgument, id)
	}
	if maxCapacity <= 0 {
		return nil, fmt.Errorf("%w: car %d max capacity %d", types.ErrInvalidArgument, id, maxCapacity)
	}
	c := &Car{
		id:          id,
		maxCapacity: maxCapacity,
		panel:       panel,
		stepDelay:   config.StepDelay,
		floor:       panel.MinFloor(),
		target:      panel.MinFloor(),
		phase:       types.Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.checkFloor(c.floor); err != nil {
		return nil, err
	}
	if c.stepDelay < 0 {
		return nil, fmt.Errorf("%w: negative step delay %s", types.ErrInvalidArgument, c.stepDelay)
	}
	slog.Debug("Car initialized", "car", id, "floor", c.floor, "maxCapacity", maxCapacity)
	return c, nil
}

// MoveTo drives the car to target one step at a time, publishing a StepEvent after every
// step and sleeping the step delay before the next. It blocks until the car has arrived.
func (c *Car) MoveTo(target int) error {
	if err := c.checkFloor(target); err != nil {
		return err
	}
	c.moveMu.Lock()
	defer c.moveMu.Unlock()

	c.mu.Lock()
	c.target = target
	from := c.floor
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if c.floor == target {
			power := c.power
			c.mu.Unlock()
			if from != target {
				slog.Debug("Car arrived", "car", c.id, "from", from, "floor", target, "power", power)
			}
			return nil
		}
		s := nextStep(c.phase, c.floor, target)
		c.phase = s.Phase
		c.floor = s.Floor
		c.power += s.Cost
		ev := types.StepEvent{CarID: c.id, Floor: c.floor, Target: target, Power: c.power}
		c.mu.Unlock()

		c.panel.Publish(ev)
		time.Sleep(c.stepDelay)
	}
}

func (c *Car) AddPersons(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || c.capacity+n > c.maxCapacity {
		return fmt.Errorf("%w: car %d cannot take %d persons (%d/%d aboard)",
			types.ErrInvalidArgument, c.id, n, c.capacity, c.maxCapacity)
	}
	c.capacity += n
	return nil
}

func (c *Car) RequestStop(floor int) error {
	return c.RequestStops(floor)
}

// RequestStops forwards cabin requests to the panel. A car never queues its own stops.
func (c *Car) RequestStops(floors ...int) error {
	if len(floors) == 0 {
		return fmt.Errorf("%w: car %d empty stop list", types.ErrInvalidArgument, c.id)
	}
	return c.panel.RequestStops(c.id, floors...)
}

// BelongsTo reports whether the car was created against p.
func (c *Car) BelongsTo(p Panel) bool { return c.panel == p }

func (c *Car) ID() int          { return c.id }
func (c *Car) MaxCapacity() int { return c.maxCapacity }

func (c *Car) Floor() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.floor
}

func (c *Car) Target() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

func (c *Car) Capacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity
}

func (c *Car) PowerUsed() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.power
}

func (c *Car) Phase() types.MovementPhase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *Car) IsFull() bool  { return c.Capacity() >= c.maxCapacity }
func (c *Car) IsEmpty() bool { return c.Capacity() == 0 }
func (c *Car) IsIdle() bool  { return c.Phase() == types.Idle }

// Snapshot returns a consistent copy of the car's state.
func (c *Car) Snapshot() CarState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CarState{
		ID:          c.id,
		Floor:       c.floor,
		Target:      c.target,
		Capacity:    c.capacity,
		MaxCapacity: c.maxCapacity,
		Power:       c.power,
		Phase:       c.phase,
	}
}

func (c *Car) checkFloor(floor int) error {
	lo, hi := c.panel.MinFloor(), c.panel.MaxFloor()
	if floor < lo || floor > hi {
		return fmt.Errorf("%w: car %d floor %d not in [%d, %d]", types.ErrOutOfRange, c.id, floor, lo, hi)
	}
	return nil
}
