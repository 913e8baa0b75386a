package elevator

import (
	"errors"
	"fmt"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
	"github.com/shoyo-inokuchi/elevator-playground/internal/servicemap"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simevent"
)

var Log = logger.GetLogger()

var (
	ErrCapacityExceeded  = errors.New("elevator capacity exceeded")
	ErrCapacityUnderflow = errors.New("nobody on elevator to drop off")
	ErrBoundaryOverrun   = errors.New("pending calls beyond the service range")
	ErrInvalidParams     = errors.New("invalid elevator parameters")
)

type Params struct {
	ID              int
	Range           servicemap.Range
	StartFloor      int
	Capacity        int // simconsts.Unbounded for no limit
	F2FTime         simclock.Time
	PickupDuration  simclock.Time
	DropoffDuration simclock.Time
	Events          simevent.Sink
}

// Elevator serves the calls handed to it with SCAN. All of its state is
// mutated by its own clock process only; other processes talk to it through
// HandleCall.
type Elevator struct {
	id     int
	bounds servicemap.Range

	position  int
	direction simconsts.Dirn
	behaviour simconsts.ElevatorBehaviour
	inTransit bool

	// While repositioning the elevator travels against its service
	// direction to turnaround without serving anyone.
	repositioning bool
	turnaround    int

	capacityUsed int
	capacityMax  int

	active   *servicemap.ServiceMap
	deferred *servicemap.ServiceMap
	inbox    []*call.Call

	f2fTime         simclock.Time
	pickupDuration  simclock.Time
	dropoffDuration simclock.Time

	events simevent.Sink
	clock  *simclock.Clock
	proc   *simclock.Process
}

func New(params Params) (*Elevator, error) {
	bounds, err := servicemap.NewRange(params.Range.Low, params.Range.High)
	if err != nil {
		return nil, fmt.Errorf("elevator %d: %w", params.ID, err)
	}
	if !bounds.Contains(params.StartFloor) {
		return nil, fmt.Errorf("elevator %d start floor %d: %w", params.ID, params.StartFloor, servicemap.ErrOutOfRange)
	}
	if params.Capacity < 0 {
		return nil, fmt.Errorf("elevator %d capacity %d: %w", params.ID, params.Capacity, ErrInvalidParams)
	}
	if params.F2FTime <= 0 || params.PickupDuration < 0 || params.DropoffDuration < 0 {
		return nil, fmt.Errorf("elevator %d timings: %w", params.ID, ErrInvalidParams)
	}

	events := params.Events
	if events == nil {
		events = simevent.Discard
	}

	return &Elevator{
		id:              params.ID,
		bounds:          bounds,
		position:        params.StartFloor,
		direction:       simconsts.Idle,
		behaviour:       simconsts.Stopped,
		capacityMax:     params.Capacity,
		active:          servicemap.New(bounds),
		deferred:        servicemap.New(bounds),
		f2fTime:         params.F2FTime,
		pickupDuration:  params.PickupDuration,
		dropoffDuration: params.DropoffDuration,
		events:          events,
	}, nil
}

// Start registers the service loop with clock. An elevator runs on one
// clock only.
func (e *Elevator) Start(clock *simclock.Clock) error {
	if e.proc != nil {
		return fmt.Errorf("elevator %d already started: %w", e.id, simconsts.ErrDoubleInitialization)
	}
	e.clock = clock
	e.proc = clock.Go(fmt.Sprintf("elevator-%d", e.id), e.run)
	return nil
}

// HandleCall assigns c to the elevator. The elevator is interrupted at once
// and recalibrates before doing anything else.
func (e *Elevator) HandleCall(c *call.Call) {
	e.inbox = append(e.inbox, c)
	if e.proc != nil {
		e.clock.Interrupt(e.proc)
	}
}

func (e *Elevator) ID() int                                { return e.id }
func (e *Elevator) Position() int                          { return e.position }
func (e *Elevator) Direction() simconsts.Dirn              { return e.direction }
func (e *Elevator) Behaviour() simconsts.ElevatorBehaviour { return e.behaviour }
func (e *Elevator) CapacityUsed() int                      { return e.capacityUsed }

func (e *Elevator) emit(now simclock.Time, value any) {
	e.events(simevent.SimEvent{At: now, Value: value})
}

func (e *Elevator) run(p *simclock.Process) error {
	for {
		if err := e.recalibrate(p.Now()); err != nil {
			return err
		}

		if e.repositioning && e.position == e.turnaround {
			e.repositioning = false
		}

		if !e.repositioning && e.active.HasWork(e.position) {
			if err := e.service(p); err != nil {
				return err
			}
			continue
		}

		if heading, ok := e.heading(); ok {
			if err := e.hop(p, heading); err != nil {
				return err
			}
			continue
		}

		if !e.active.IsEmpty() {
			return fmt.Errorf("elevator %d at floor %d going %v with %d active calls: %w",
				e.id, e.position, e.direction, e.active.Len(), ErrBoundaryOverrun)
		}

		if e.deferred.IsEmpty() {
			e.goIdle(p.Now())
			p.Passivate()
			continue
		}

		if err := e.swapMaps(p.Now()); err != nil {
			return err
		}
	}
}

// heading returns the direction of the next hop, if any.
func (e *Elevator) heading() (simconsts.Dirn, bool) {
	if e.repositioning {
		return simconsts.Toward(e.position, e.turnaround), true
	}
	if _, ok := e.active.NextStop(e.position, e.direction); ok {
		return e.direction, true
	}
	return simconsts.Idle, false
}

// hop moves one floor. New calls arriving mid-transit are recalibrated
// against the floor just left, then the remainder of the hop is completed.
func (e *Elevator) hop(p *simclock.Process, heading simconsts.Dirn) error {
	next := e.position + int(heading)
	if !e.bounds.Contains(next) {
		return fmt.Errorf("elevator %d moving %v from floor %d: %w", e.id, heading, e.position, ErrBoundaryOverrun)
	}

	e.behaviour = simconsts.Moving
	e.inTransit = true
	err := e.pause(p, e.f2fTime)
	e.inTransit = false
	if err != nil {
		return err
	}
	e.position = next
	return nil
}

// pause waits for d, recalibrating on every interrupt.
func (e *Elevator) pause(p *simclock.Process, d simclock.Time) error {
	for d > 0 {
		start := p.Now()
		err := p.Wait(d)
		d -= p.Now() - start
		if errors.Is(err, simclock.ErrInterrupted) {
			if err := e.recalibrate(p.Now()); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Elevator) room() int {
	if e.capacityMax == simconsts.Unbounded {
		return -1
	}
	return e.capacityMax - e.capacityUsed
}

// service drops off and picks up at the current floor. Calls that do not fit
// are moved to the deferred map and picked up on a later visit.
func (e *Elevator) service(p *simclock.Process) error {
	e.behaviour = simconsts.Servicing
	floor := e.position

	dropped, boarded, err := e.active.Arrive(floor, e.room())
	if err != nil {
		return fmt.Errorf("elevator %d: %w", e.id, err)
	}

	if left := e.active.Withdraw(floor); len(left) > 0 {
		for _, c := range left {
			if err := e.deferred.RegisterPickup(c); err != nil {
				return fmt.Errorf("elevator %d: %w", e.id, err)
			}
		}
		e.emit(p.Now(), simevent.CapacityFullEvent{Elevator: e.id, Floor: floor, Left: len(left)})
	}

	for _, c := range dropped {
		if err := e.dropOff(c, p.Now()); err != nil {
			return err
		}
		if err := e.pause(p, e.dropoffDuration); err != nil {
			return err
		}
	}
	for _, c := range boarded {
		if err := e.pickUp(c, p.Now()); err != nil {
			return err
		}
		if err := e.pause(p, e.pickupDuration); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elevator) pickUp(c *call.Call, now simclock.Time) error {
	if c.Origin != e.position {
		return fmt.Errorf("elevator %d at floor %d picking up call %d from floor %d: %w",
			e.id, e.position, c.ID, c.Origin, servicemap.ErrOutOfRange)
	}
	if e.capacityMax != simconsts.Unbounded && e.capacityUsed >= e.capacityMax {
		return fmt.Errorf("elevator %d at floor %d, call %d: %w", e.id, e.position, c.ID, ErrCapacityExceeded)
	}
	if err := c.PickedUp(now); err != nil {
		return fmt.Errorf("elevator %d: %w", e.id, err)
	}
	e.capacityUsed++
	e.emit(now, simevent.PickUpEvent{Call: c, Elevator: e.id, Floor: e.position, Load: e.capacityUsed})
	return nil
}

func (e *Elevator) dropOff(c *call.Call, now simclock.Time) error {
	if e.capacityUsed == 0 {
		return fmt.Errorf("elevator %d at floor %d, call %d: %w", e.id, e.position, c.ID, ErrCapacityUnderflow)
	}
	if err := c.Complete(now); err != nil {
		return fmt.Errorf("elevator %d: %w", e.id, err)
	}
	e.capacityUsed--
	e.emit(now, simevent.DropOffEvent{Call: c, Elevator: e.id, Floor: e.position, Load: e.capacityUsed})
	return nil
}

func (e *Elevator) goIdle(now simclock.Time) {
	e.behaviour = simconsts.Stopped
	if e.direction != simconsts.Idle {
		e.direction = simconsts.Idle
		e.emit(now, simevent.IdleEvent{Elevator: e.id, Floor: e.position})
	}
}

func (e *Elevator) beginReposition(now simclock.Time, target int) {
	e.repositioning = true
	e.turnaround = target
	e.emit(now, simevent.RepositionEvent{Elevator: e.id, Floor: e.position, Target: target})
}
