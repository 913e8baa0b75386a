package simevent

import (
	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

type SimEvent struct {
	At simclock.Time
	//Golang doesnt support union types,
	//so we have to pass any of the below
	//structs
	Value any
}

// Sink receives every event in the order it happened.
type Sink func(SimEvent)

type CallGeneratedEvent struct {
	Call *call.Call
}

type CallSelectedEvent struct {
	Call     *call.Call
	Elevator int
}

type RecalibratedEvent struct {
	Call     *call.Call
	Elevator int
	Deferred bool
}

type PickUpEvent struct {
	Call     *call.Call
	Elevator int
	Floor    int
	Load     int
}

type DropOffEvent struct {
	Call     *call.Call
	Elevator int
	Floor    int
	Load     int
}

// CapacityFullEvent reports calls left waiting because the elevator was full.
type CapacityFullEvent struct {
	Elevator int
	Floor    int
	Left     int
}

type DirectionSwitchEvent struct {
	Elevator int
	Floor    int
	From     simconsts.Dirn
	To       simconsts.Dirn
}

type RepositionEvent struct {
	Elevator int
	Floor    int
	Target   int
}

type IdleEvent struct {
	Elevator int
	Floor    int
}

func (e *SimEvent) EventType() string {
	switch e.Value.(type) {
	case CallGeneratedEvent:
		return "CallGeneratedEvent"
	case CallSelectedEvent:
		return "CallSelectedEvent"
	case RecalibratedEvent:
		return "RecalibratedEvent"
	case PickUpEvent:
		return "PickUpEvent"
	case DropOffEvent:
		return "DropOffEvent"
	case CapacityFullEvent:
		return "CapacityFullEvent"
	case DirectionSwitchEvent:
		return "DirectionSwitchEvent"
	case RepositionEvent:
		return "RepositionEvent"
	case IdleEvent:
		return "IdleEvent"
	default:
		return "UnknownEvent"
	}
}

// Discard is a Sink that drops every event.
func Discard(SimEvent) {}

// Fanout returns a Sink delivering each event to every sink in order.
func Fanout(sinks ...Sink) Sink {
	return func(event SimEvent) {
		for _, sink := range sinks {
			if sink != nil {
				sink(event)
			}
		}
	}
}
