// Package servicemap keeps the pickups and dropoffs an elevator still owes,
// keyed by floor, and answers the SCAN question of where to stop next.
package servicemap

import (
	"errors"
	"fmt"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

var (
	ErrOutOfRange          = errors.New("floor outside service range")
	ErrInvalidServiceRange = errors.New("invalid service range")
)

// Range is bounded by two turnaround floors; only floors strictly between
// Low and High are served.
type Range struct {
	Low  int
	High int
}

func NewRange(low, high int) (Range, error) {
	if high-low < 2 {
		return Range{}, fmt.Errorf("(%d, %d) has no serviceable floor: %w", low, high, ErrInvalidServiceRange)
	}
	return Range{Low: low, High: high}, nil
}

// Contains reports whether floor is a serviceable interior floor.
func (r Range) Contains(floor int) bool {
	return r.Low < floor && floor < r.High
}

func (r Range) String() string {
	return fmt.Sprintf("(%d, %d)", r.Low, r.High)
}

type ServiceMap struct {
	bounds   Range
	pickups  map[int][]*call.Call
	dropoffs map[int][]*call.Call
	count    int
}

func New(bounds Range) *ServiceMap {
	return &ServiceMap{
		bounds:   bounds,
		pickups:  make(map[int][]*call.Call),
		dropoffs: make(map[int][]*call.Call),
	}
}

func (m *ServiceMap) check(floor int) error {
	if !m.bounds.Contains(floor) {
		return fmt.Errorf("floor %d not in %v: %w", floor, m.bounds, ErrOutOfRange)
	}
	return nil
}

// RegisterPickup queues c at its origin. Both ends of the trip must be
// serviceable, so a bad call is caught here rather than mid-traversal.
func (m *ServiceMap) RegisterPickup(c *call.Call) error {
	if err := m.check(c.Origin); err != nil {
		return fmt.Errorf("pickup for call %d: %w", c.ID, err)
	}
	if err := m.check(c.Destination); err != nil {
		return fmt.Errorf("pickup for call %d: %w", c.ID, err)
	}
	m.pickups[c.Origin] = append(m.pickups[c.Origin], c)
	m.count++
	return nil
}

func (m *ServiceMap) registerDropoff(c *call.Call) error {
	if err := m.check(c.Destination); err != nil {
		return fmt.Errorf("dropoff for call %d: %w", c.ID, err)
	}
	m.dropoffs[c.Destination] = append(m.dropoffs[c.Destination], c)
	m.count++
	return nil
}

// Arrive services floor: it removes and returns the dropoffs due here, then
// moves at most room pickups into the dropoff slots of their destinations.
// Pickups that did not fit stay queued at floor. A negative room means no limit.
func (m *ServiceMap) Arrive(floor int, room int) (dropped, boarded []*call.Call, err error) {
	if err = m.check(floor); err != nil {
		return nil, nil, err
	}

	dropped = m.dropoffs[floor]
	delete(m.dropoffs, floor)
	m.count -= len(dropped)

	waiting := m.pickups[floor]
	n := len(waiting)
	if room >= 0 && room < n {
		n = room
	}
	boarded = waiting[:n:n]
	for _, c := range boarded {
		if err = m.registerDropoff(c); err != nil {
			return dropped, nil, err
		}
		m.count--
	}
	if n == len(waiting) {
		delete(m.pickups, floor)
	} else {
		m.pickups[floor] = waiting[n:]
	}
	return dropped, boarded, nil
}

// Withdraw removes and returns the pickups still queued at floor.
func (m *ServiceMap) Withdraw(floor int) []*call.Call {
	waiting := m.pickups[floor]
	delete(m.pickups, floor)
	m.count -= len(waiting)
	return waiting
}

// TakePickups removes and returns every queued pickup travelling in dir,
// ordered by floor and then by arrival.
func (m *ServiceMap) TakePickups(dir simconsts.Dirn) []*call.Call {
	var taken []*call.Call
	for floor := m.bounds.Low + 1; floor < m.bounds.High; floor++ {
		waiting, ok := m.pickups[floor]
		if !ok {
			continue
		}
		var kept []*call.Call
		for _, c := range waiting {
			if c.Direction == dir {
				taken = append(taken, c)
			} else {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(m.pickups, floor)
		} else {
			m.pickups[floor] = kept
		}
	}
	m.count -= len(taken)
	return taken
}

// NextStop returns the nearest floor strictly beyond floor in dir that has a
// pickup or dropoff. Boundary floors are never returned.
func (m *ServiceMap) NextStop(floor int, dir simconsts.Dirn) (int, bool) {
	if dir != simconsts.Up && dir != simconsts.Down {
		return 0, false
	}
	for f := floor + int(dir); m.bounds.Contains(f); f += int(dir) {
		if m.HasWork(f) {
			return f, true
		}
	}
	return 0, false
}

func (m *ServiceMap) HasWork(floor int) bool {
	return len(m.pickups[floor]) > 0 || len(m.dropoffs[floor]) > 0
}

func (m *ServiceMap) IsEmpty() bool {
	return m.count == 0
}

// Len returns the number of queued pickups and dropoffs.
func (m *ServiceMap) Len() int {
	return m.count
}

func (m *ServiceMap) Pickups(floor int) []*call.Call {
	return append([]*call.Call(nil), m.pickups[floor]...)
}

func (m *ServiceMap) Dropoffs(floor int) []*call.Call {
	return append([]*call.Call(nil), m.dropoffs[floor]...)
}

// Calls lists every call the map owns, pickups first, each ordered by floor.
func (m *ServiceMap) Calls() (pickups, dropoffs []*call.Call) {
	for floor := m.bounds.Low + 1; floor < m.bounds.High; floor++ {
		pickups = append(pickups, m.pickups[floor]...)
		dropoffs = append(dropoffs, m.dropoffs[floor]...)
	}
	return pickups, dropoffs
}
