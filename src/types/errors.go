package types

import "errors"

var (
	ErrOutOfRange      = errors.New("floor out of range")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoAvailableCar  = errors.New("no available car")
	ErrShutdown        = errors.New("dispatcher shut down")
)
