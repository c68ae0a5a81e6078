package config

import "time"

const (
	DefaultMinFloor = 0
	DefaultMaxFloor = 20
	DefaultCapacity = 10
	DefaultNumCars  = 4

	PowerStartStop  = 2
	PowerContinuous = 1

	StepDelay    = 250 * time.Millisecond
	PollInterval = 25 * time.Millisecond
)
