package simconsts

import (
	"errors"
	"fmt"
)

// Timings are in frames, one frame being 0.1 simulated seconds.
const (
	FramesPerSecond = 10

	DEFAULT_F2F_TIME         = 100
	DEFAULT_PICKUP_DURATION  = 30
	DEFAULT_DROPOFF_DURATION = 30
	DEFAULT_ARRIVAL_INTERVAL = 30
	DEFAULT_RUNTIME          = 36000

	DEFAULT_NUM_FLOORS    = 10
	DEFAULT_NUM_ELEVATORS = 1
	DEFAULT_START_FLOOR   = 1

	// Capacity value meaning no passenger limit.
	Unbounded = 0
)

var (
	ErrDirectionReversal    = errors.New("cannot reverse an idle direction")
	ErrDoubleInitialization = errors.New("field already set")
)

type Dirn int

const (
	Down Dirn = -1
	Idle Dirn = 0
	Up   Dirn = 1
)

func (d Dirn) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Idle:
		return "Idle"
	default:
		return "Undefined"
	}
}

func (d Dirn) Reverse() (Dirn, error) {
	switch d {
	case Up:
		return Down, nil
	case Down:
		return Up, nil
	default:
		return Idle, fmt.Errorf("reverse %v: %w", d, ErrDirectionReversal)
	}
}

// Toward returns the direction of travel from one floor to another, Idle if equal.
func Toward(from, to int) Dirn {
	switch {
	case to > from:
		return Up
	case to < from:
		return Down
	default:
		return Idle
	}
}

// Ahead reports whether floor lies strictly beyond from when travelling in d.
func (d Dirn) Ahead(from, floor int) bool {
	switch d {
	case Up:
		return floor > from
	case Down:
		return floor < from
	default:
		return false
	}
}

type ElevatorBehaviour int

const (
	Stopped ElevatorBehaviour = iota // 0
	Moving
	Servicing
)

func (eb ElevatorBehaviour) String() string {
	switch eb {
	case Stopped:
		return "EB_Stopped"
	case Moving:
		return "EB_Moving"
	case Servicing:
		return "EB_Servicing"
	default:
		return "EB_UNDEFINED"
	}
}
