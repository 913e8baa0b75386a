package elevator

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

// Status is a detached view of an elevator. Calls in it are copies and can
// be kept after the simulation moves on.
type Status struct {
	ID            int
	Floor         int
	Direction     simconsts.Dirn
	Behaviour     simconsts.ElevatorBehaviour
	Load          int
	Capacity      int
	Repositioning bool
	Turnaround    int

	ActivePickups   []*call.Call
	ActiveDropoffs  []*call.Call
	DeferredPickups []*call.Call

	// handed over but not yet routed to a map
	Unrouted []*call.Call
}

func (e *Elevator) Snapshot() (Status, error) {
	activePickups, activeDropoffs := e.active.Calls()
	deferredPickups, _ := e.deferred.Calls()

	live := Status{
		ID:              e.id,
		Floor:           e.position,
		Direction:       e.direction,
		Behaviour:       e.behaviour,
		Load:            e.capacityUsed,
		Capacity:        e.capacityMax,
		Repositioning:   e.repositioning,
		Turnaround:      e.turnaround,
		ActivePickups:   activePickups,
		ActiveDropoffs:  activeDropoffs,
		DeferredPickups: deferredPickups,
		Unrouted:        e.inbox,
	}

	var snap Status
	if err := deepcopy.Copy(&snap, &live); err != nil {
		return Status{}, fmt.Errorf("elevator %d snapshot: %w", e.id, err)
	}
	return snap, nil
}
