package dispatcher

import (
	"elevsim/src/types"
)

// sortFloors returns a sorted copy of floors: ascending for up-bound calls, descending otherwise.
func sortFloors(floors []int, dir types.Direction) []int {
	sorted := make([]int, len(floors))
	copy(sorted, floors)
	less := func(a, b int) bool { return a > b }
	if dir == types.DirUp {
		less = func(a, b int) bool { return a < b }
	}
	// Insertion sort, stable and batches are a handful of floors.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && less(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

// enqueueLocked sorts one batch and appends it to the car's queue. Batches are sorted on their
// own, so the queue is a series of sorted runs rather than one sorted list. Caller holds s.mu.
func (e *carEntry) enqueueLocked(floors []int, dir types.Direction) {
	e.stops = append(e.stops, sortFloors(floors, dir)...)
}

// popLocked removes and returns the next stop. Caller holds s.mu.
func (e *carEntry) popLocked() (int, bool) {
	if len(e.stops) == 0 {
		return 0, false
	}
	floor := e.stops[0]
	e.stops = e.stops[1:]
	return floor, true
}
