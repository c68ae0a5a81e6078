package dispatcher

import (
	"math"

	"elevsim/src/elev"
	"elevsim/src/utils"
)

// cost of sending car to floor: the floors it has to travel plus one.
func cost(car *elev.Car, floor int) int {
	return utils.Abs(car.Floor()-floor) + 1
}

// selectNearestLocked picks the candidate with the lowest cost. A candidate is idle, has an
// empty queue and nothing in flight. Ties go to the car registered first. Caller holds s.mu.
func (s *System) selectNearestLocked(floor int) *carEntry {
	var best *carEntry
	lowest := math.MaxInt
	for _, e := range s.cars {
		if e.inFlight || len(e.stops) > 0 || !e.car.IsIdle() {
			continue
		}
		if c := cost(e.car, floor); c < lowest {
			best = e
			lowest = c
		}
	}
	return best
}
