// Contains the movement state machine for a single car.
package elev

import (
	"elevsim/src/config"
	"elevsim/src/types"
)

// step is the outcome of one discrete move: the new phase, the new floor and the power spent.
type step struct {
	Phase types.MovementPhase
	Floor int
	Cost  int
}

// nextStep applies one row of the transition table to (phase, floor) on the way to target.
// From Idle the car only picks its slow phase; every other phase moves one floor.
func nextStep(phase types.MovementPhase, floor, target int) step {
	switch phase {
	case types.Idle:
		if target-floor < 0 {
			return step{Phase: types.SlowDown, Floor: floor}
		}
		return step{Phase: types.SlowUp, Floor: floor}

	case types.SlowUp:
		floor++
		return step{Phase: slowPhase(target-floor, types.SlowUp, types.Up), Floor: floor, Cost: config.PowerStartStop}

	case types.SlowDown:
		floor--
		return step{Phase: slowPhase(floor-target, types.SlowDown, types.Down), Floor: floor, Cost: config.PowerStartStop}

	case types.Up:
		floor++
		next := types.SlowUp
		if target-floor > 1 {
			next = types.Up
		}
		return step{Phase: next, Floor: floor, Cost: config.PowerContinuous}

	case types.Down:
		floor--
		next := types.SlowDown
		if floor-target > 1 {
			next = types.Down
		}
		return step{Phase: next, Floor: floor, Cost: config.PowerContinuous}
	}
	return step{Phase: types.Idle, Floor: floor}
}

// slowPhase decides what follows a slow step given the distance still to travel.
func slowPhase(remaining int, slow, fast types.MovementPhase) types.MovementPhase {
	switch {
	case remaining == 1:
		return slow
	case remaining > 1:
		return fast
	default:
		return types.Idle
	}
}

// PowerFor returns the power a car spends moving from one floor to another starting from Idle.
func PowerFor(from, to int) int {
	phase, floor, power := types.Idle, from, 0
	for floor != to {
		s := nextStep(phase, floor, to)
		phase, floor = s.Phase, s.Floor
		power += s.Cost
	}
	return power
}
