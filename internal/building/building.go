package building

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/elevator"
	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
	"github.com/shoyo-inokuchi/elevator-playground/internal/servicemap"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simevent"
)

var Log = logger.GetLogger()

var (
	ErrNoElevators      = errors.New("building has no elevators")
	ErrTooFewFloors     = errors.New("building needs at least two floors")
	ErrInvalidArrival   = errors.New("invalid arrival interval")
	ErrUnknownSelection = errors.New("unknown selection policy")
)

// Dispatcher turns generated calls into elevator assignments.
type Dispatcher interface {
	GenerateCall(now simclock.Time) (*call.Call, error)
	SelectElevator(c *call.Call) *elevator.Elevator
	ProcessCall(c *call.Call, e *elevator.Elevator) error
}

type SelectionPolicy int

const (
	FirstElevator SelectionPolicy = iota
	RandomElevator
)

func (s SelectionPolicy) String() string {
	switch s {
	case FirstElevator:
		return "first"
	case RandomElevator:
		return "random"
	default:
		return "undefined"
	}
}

func ParseSelectionPolicy(name string) (SelectionPolicy, error) {
	switch name {
	case "", "first":
		return FirstElevator, nil
	case "random":
		return RandomElevator, nil
	default:
		return FirstElevator, fmt.Errorf("%q: %w", name, ErrUnknownSelection)
	}
}

type Params struct {
	NumFloors    int
	NumElevators int
	StartFloor   int
	Capacity     int
	Seed         int64
	Selection    SelectionPolicy

	F2FTime         simclock.Time
	PickupDuration  simclock.Time
	DropoffDuration simclock.Time
	ArrivalMin      simclock.Time
	ArrivalMax      simclock.Time

	// Events receives everything the building and its elevators report,
	// after the building's own bookkeeping.
	Events simevent.Sink
}

// Building owns the elevators, generates calls at random floors and keeps
// the history the session report is computed from.
type Building struct {
	numFloors  int
	elevators  []*elevator.Elevator
	selection  SelectionPolicy
	rng        *rand.Rand
	ids        *call.IDAllocator
	arrivalMin simclock.Time
	arrivalMax simclock.Time

	history     []*call.Call
	completed   []*call.Call
	floorQueues map[int]int

	events simevent.Sink
}

var _ Dispatcher = (*Building)(nil)

func New(params Params) (*Building, error) {
	if params.NumElevators < 1 {
		return nil, ErrNoElevators
	}
	if params.NumFloors < 2 {
		return nil, fmt.Errorf("%d floors: %w", params.NumFloors, ErrTooFewFloors)
	}
	if params.ArrivalMin < 0 || params.ArrivalMax < params.ArrivalMin {
		return nil, fmt.Errorf("[%d, %d]: %w", params.ArrivalMin, params.ArrivalMax, ErrInvalidArrival)
	}

	b := &Building{
		numFloors:   params.NumFloors,
		selection:   params.Selection,
		rng:         rand.New(rand.NewSource(params.Seed)),
		ids:         call.NewIDAllocator(),
		arrivalMin:  params.ArrivalMin,
		arrivalMax:  params.ArrivalMax,
		floorQueues: make(map[int]int, params.NumFloors),
		events:      simevent.Fanout(params.Events),
	}
	for floor := 1; floor <= params.NumFloors; floor++ {
		b.floorQueues[floor] = 0
	}

	// floors 0 and n+1 are the turnaround boundaries
	bounds, err := servicemap.NewRange(0, params.NumFloors+1)
	if err != nil {
		return nil, fmt.Errorf("building with %d floors: %w", params.NumFloors, err)
	}
	sink := simevent.Fanout(b.observe, params.Events)
	for id := 0; id < params.NumElevators; id++ {
		e, err := elevator.New(elevator.Params{
			ID:              id,
			Range:           bounds,
			StartFloor:      params.StartFloor,
			Capacity:        params.Capacity,
			F2FTime:         params.F2FTime,
			PickupDuration:  params.PickupDuration,
			DropoffDuration: params.DropoffDuration,
			Events:          sink,
		})
		if err != nil {
			return nil, err
		}
		b.elevators = append(b.elevators, e)
	}
	return b, nil
}

// Start launches every elevator and the call generator on clock.
func (b *Building) Start(clock *simclock.Clock) error {
	for _, e := range b.elevators {
		if err := e.Start(clock); err != nil {
			return err
		}
	}
	clock.Go("call-generator", b.generate)
	Log.Debug().Msgf("Building started with %d floors and %d elevators", b.numFloors, len(b.elevators))
	return nil
}

func (b *Building) generate(p *simclock.Process) error {
	for {
		if err := p.Wait(b.interArrival()); err != nil {
			return err
		}
		c, err := b.GenerateCall(p.Now())
		if err != nil {
			return err
		}
		if err := b.ProcessCall(c, b.SelectElevator(c)); err != nil {
			return err
		}
	}
}

func (b *Building) interArrival() simclock.Time {
	spread := int64(b.arrivalMax - b.arrivalMin)
	if spread == 0 {
		return b.arrivalMin
	}
	return b.arrivalMin + simclock.Time(b.rng.Int63n(spread+1))
}

// GenerateCall creates a call between two distinct floors drawn uniformly
// from the building.
func (b *Building) GenerateCall(now simclock.Time) (*call.Call, error) {
	origin := 1 + b.rng.Intn(b.numFloors)
	destination := 1 + b.rng.Intn(b.numFloors-1)
	if destination >= origin {
		destination++
	}
	c, err := call.New(b.ids.Allocate(), origin, destination, now)
	if err != nil {
		return nil, err
	}
	b.history = append(b.history, c)
	b.floorQueues[c.Origin]++
	b.events(simevent.SimEvent{At: now, Value: simevent.CallGeneratedEvent{Call: c}})
	return c, nil
}

func (b *Building) SelectElevator(c *call.Call) *elevator.Elevator {
	switch b.selection {
	case RandomElevator:
		return b.elevators[b.rng.Intn(len(b.elevators))]
	default:
		return b.elevators[0]
	}
}

func (b *Building) ProcessCall(c *call.Call, e *elevator.Elevator) error {
	if e == nil {
		return fmt.Errorf("call %d: %w", c.ID, ErrNoElevators)
	}
	b.events(simevent.SimEvent{At: c.CreatedAt, Value: simevent.CallSelectedEvent{Call: c, Elevator: e.ID()}})
	e.HandleCall(c)
	return nil
}

// observe keeps the building's books from elevator events.
func (b *Building) observe(event simevent.SimEvent) {
	switch ev := event.Value.(type) {
	case simevent.PickUpEvent:
		b.floorQueues[ev.Floor]--
	case simevent.DropOffEvent:
		b.completed = append(b.completed, ev.Call)
	}
}

func (b *Building) Elevators() []*elevator.Elevator {
	return b.elevators
}

func (b *Building) NumFloors() int {
	return b.numFloors
}

// History returns every generated call in generation order.
func (b *Building) History() []*call.Call {
	return append([]*call.Call(nil), b.history...)
}

// Completed returns the delivered calls in delivery order.
func (b *Building) Completed() []*call.Call {
	return append([]*call.Call(nil), b.completed...)
}

// Waiting returns the number of calls waiting for pickup at floor.
func (b *Building) Waiting(floor int) int {
	return b.floorQueues[floor]
}

func (b *Building) Status() ([]elevator.Status, error) {
	statuses := make([]elevator.Status, 0, len(b.elevators))
	for _, e := range b.elevators {
		status, err := e.Snapshot()
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
