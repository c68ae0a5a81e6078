package dispatcher

import (
	"elevsim/src/elev"
	"elevsim/src/types"
)

// carEntry is the registry record for one car. All fields except car are guarded by System.mu.
type carEntry struct {
	car *elev.Car
	// stops is the pending queue, served front to back.
	stops []int
	// dir is the direction of the last hall call this car served. It orders cabin requests
	// that arrive without an explicit direction.
	dir types.Direction
	// inFlight is set while a move runs on the car's behalf.
	inFlight bool
}
