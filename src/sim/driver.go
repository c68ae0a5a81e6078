// Package sim generates passenger traffic: hall calls in both directions, boarding and
// the cabin request each passenger makes once aboard.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"elevsim/src/elev"
	"elevsim/src/types"
)

// Dispatcher is the part of the dispatch surface a passenger uses.
type Dispatcher interface {
	CallUp(floor int) (*elev.Car, error)
	CallDown(floor int) (*elev.Car, error)
	MinFloor() int
	MaxFloor() int
}

type Stats struct {
	Served  uint64 // boarded and requested a stop
	Refused uint64 // car arrived full
	Retries uint64 // hall calls repeated after ErrNoAvailableCar
	Failed  uint64
}

type Driver struct {
	system   Dispatcher
	interval time.Duration
	retry    time.Duration
	trips    int
	rng      *rand.Rand

	wg      sync.WaitGroup
	served  atomic.Uint64
	refused atomic.Uint64
	retries atomic.Uint64
	failed  atomic.Uint64
}

type Option func(*Driver)

// WithInterval sets the time between new passengers.
func WithInterval(d time.Duration) Option {
	return func(drv *Driver) { drv.interval = d }
}

// WithRetryDelay sets how long a passenger waits before repeating a hall call nobody took.
func WithRetryDelay(d time.Duration) Option {
	return func(drv *Driver) { drv.retry = d }
}

// WithTrips limits the number of passengers. Zero means no limit.
func WithTrips(n int) Option {
	return func(drv *Driver) { drv.trips = n }
}

func WithSeed(seed uint64) Option {
	return func(drv *Driver) { drv.rng = rand.New(rand.NewPCG(seed, seed)) }
}

func NewDriver(system Dispatcher, opts ...Option) *Driver {
	drv := &Driver{
		system:   system,
		interval: time.Second,
		retry:    500 * time.Millisecond,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(drv)
	}
	return drv
}

// Run spawns a passenger every interval until ctx is done or the trip limit is reached,
// then waits for every spawned passenger to finish.
func (drv *Driver) Run(ctx context.Context) error {
	if drv.system.MinFloor() == drv.system.MaxFloor() {
		return fmt.Errorf("%w: a single floor has no trips", types.ErrInvalidArgument)
	}
	slog.Info("Simulation started", "interval", drv.interval, "trips", drv.trips)
	defer drv.wg.Wait()

	ticker := time.NewTicker(max(drv.interval, time.Millisecond))
	defer ticker.Stop()

	for spawned := 0; drv.trips == 0 || spawned < drv.trips; spawned++ {
		origin, dest := drv.pickTrip()
		drv.wg.Add(1)
		go func() {
			defer drv.wg.Done()
			if err := drv.Travel(ctx, origin, dest); err != nil && ctx.Err() == nil {
				slog.Warn("Passenger gave up", "from", origin, "to", dest, "err", err)
			}
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Travel calls a car to origin in the direction of dest, retrying while every car is busy.
// Once the car arrives the passenger boards and requests dest from inside the cabin.
func (drv *Driver) Travel(ctx context.Context, origin, dest int) error {
	if origin == dest {
		return types.ErrInvalidArgument
	}
	call := drv.system.CallUp
	if dest < origin {
		call = drv.system.CallDown
	}

	for {
		car, err := call(origin)
		switch {
		case errors.Is(err, types.ErrNoAvailableCar):
			drv.retries.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(drv.retry):
			}
			continue
		case err != nil:
			drv.failed.Add(1)
			return err
		}

		if err := car.AddPersons(1); err != nil {
			drv.refused.Add(1)
			slog.Info("Car full, passenger left behind", "car", car.ID(), "floor", origin)
			return nil
		}
		if err := car.RequestStop(dest); err != nil {
			drv.failed.Add(1)
			return err
		}
		drv.served.Add(1)
		slog.Debug("Passenger boarded", "car", car.ID(), "from", origin, "to", dest)
		return nil
	}
}

func (drv *Driver) Stats() Stats {
	return Stats{
		Served:  drv.served.Load(),
		Refused: drv.refused.Load(),
		Retries: drv.retries.Load(),
		Failed:  drv.failed.Load(),
	}
}

// pickTrip draws two distinct floors of a building with at least two. Only called from Run.
func (drv *Driver) pickTrip() (int, int) {
	lo, hi := drv.system.MinFloor(), drv.system.MaxFloor()
	n := hi - lo + 1
	origin := lo + drv.rng.IntN(n)
	dest := lo + drv.rng.IntN(n-1)
	if dest >= origin {
		dest++
	}
	return origin, dest
}
