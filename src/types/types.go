package types

type MovementPhase int

const (
	Idle MovementPhase = iota
	SlowUp
	Up
	SlowDown
	Down
)

func (p MovementPhase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case SlowUp:
		return "SlowUp"
	case Up:
		return "Up"
	case SlowDown:
		return "SlowDown"
	case Down:
		return "Down"
	}
	return "Unknown"
}

// Direction of a hall call. The zero value means no call has been made yet.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "Up"
	case DirDown:
		return "Down"
	}
	return "None"
}

// StepEvent is emitted after every discrete step of a move.
type StepEvent struct {
	CarID  int
	Floor  int
	Target int
	Power  int
}

// Observer receives step events. It is called on the goroutine that moves the car.
type Observer func(StepEvent)
