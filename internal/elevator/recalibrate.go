package elevator

import (
	"fmt"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simevent"
)

// recalibrate routes every call waiting in the inbox to the active or the
// deferred map.
func (e *Elevator) recalibrate(now simclock.Time) error {
	calls := e.inbox
	e.inbox = nil
	for _, c := range calls {
		deferred, err := e.route(now, c)
		if err != nil {
			return fmt.Errorf("elevator %d at floor %d: %w", e.id, e.position, err)
		}
		Log.Debug().Msgf("Elevator %d recalibrated for call %d (deferred=%v)", e.id, c.ID, deferred)
		e.emit(now, simevent.RecalibratedEvent{Call: c, Elevator: e.id, Deferred: deferred})
	}
	return nil
}

// route places c and reports whether it had to wait for a reversal.
func (e *Elevator) route(now simclock.Time, c *call.Call) (bool, error) {
	switch {
	case e.direction == simconsts.Idle:
		if err := e.active.RegisterPickup(c); err != nil {
			return false, err
		}
		e.direction = c.Direction
		if c.Direction.Ahead(c.Origin, e.position) {
			e.beginReposition(now, c.Origin)
		}
		return false, nil

	case c.Direction != e.direction:
		return true, e.deferred.RegisterPickup(c)

	case e.repositioning:
		if err := e.active.RegisterPickup(c); err != nil {
			return false, err
		}
		if e.direction.Ahead(c.Origin, e.turnaround) {
			e.turnaround = c.Origin
		}
		return false, nil

	case e.reachable(c.Origin):
		return false, e.active.RegisterPickup(c)

	default:
		return true, e.deferred.RegisterPickup(c)
	}
}

// reachable reports whether floor still lies on the current sweep. Between
// floors the floor just left no longer counts.
func (e *Elevator) reachable(floor int) bool {
	if e.direction.Ahead(e.position, floor) {
		return true
	}
	return !e.inTransit && floor == e.position
}

// swapMaps runs once the active map is exhausted: the deferred map becomes
// active and the direction reverses. Calls the reversed sweep cannot carry
// go back to the deferred map; if that leaves nothing, the elevator sweeps
// in the same direction again.
func (e *Elevator) swapMaps(now simclock.Time) error {
	previous := e.direction
	reversed, err := previous.Reverse()
	if err != nil {
		return fmt.Errorf("elevator %d at floor %d: %w", e.id, e.position, err)
	}

	e.active, e.deferred = e.deferred, e.active
	waiting := e.active.TakePickups(previous)

	sweep := reversed
	target := e.deferred
	if e.active.IsEmpty() {
		sweep = previous
		target = e.active
	}
	for _, c := range waiting {
		if err := target.RegisterPickup(c); err != nil {
			return fmt.Errorf("elevator %d at floor %d: %w", e.id, e.position, err)
		}
	}

	e.direction = sweep
	if sweep != previous {
		Log.Debug().Msgf("Elevator %d switched directions at floor %d", e.id, e.position)
		e.emit(now, simevent.DirectionSwitchEvent{Elevator: e.id, Floor: e.position, From: previous, To: sweep})
	}

	if start, ok := e.sweepStart(); ok && sweep.Ahead(start, e.position) {
		e.beginReposition(now, start)
	}
	return nil
}

// sweepStart returns the pickup furthest behind in the service direction.
func (e *Elevator) sweepStart() (int, bool) {
	pickups, _ := e.active.Calls()
	if len(pickups) == 0 {
		return 0, false
	}
	// Calls lists pickups by ascending floor
	if e.direction == simconsts.Up {
		return pickups[0].Origin, true
	}
	return pickups[len(pickups)-1].Origin, true
}
