package elevator

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
	"github.com/shoyo-inokuchi/elevator-playground/internal/servicemap"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simevent"
)

func TestMain(m *testing.M) {
	logger.GetLoggerConfigured(zerolog.Disabled)
	os.Exit(m.Run())
}

type recorder struct {
	events []simevent.SimEvent
}

func (r *recorder) sink(e simevent.SimEvent) {
	r.events = append(r.events, e)
}

func (r *recorder) ofType(eventType string) []simevent.SimEvent {
	var out []simevent.SimEvent
	for _, e := range r.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestElevator(t *testing.T, start, capacity int, rec *recorder) *Elevator {
	t.Helper()
	e, err := New(Params{
		ID:         1,
		Range:      servicemap.Range{Low: 0, High: 11},
		StartFloor: start,
		Capacity:   capacity,
		F2FTime:    100,
		Events:     rec.sink,
	})
	if err != nil {
		t.Fatalf("New() = %v, expected nil", err)
	}
	return e
}

func newTestCall(t *testing.T, id, origin, destination int, at simclock.Time) *call.Call {
	t.Helper()
	c, err := call.New(id, origin, destination, at)
	if err != nil {
		t.Fatalf("call.New() = %v, expected nil", err)
	}
	return c
}

func handleAt(clk *simclock.Clock, at simclock.Time, e *Elevator, c *call.Call) {
	clk.Go("injector", func(p *simclock.Process) error {
		if err := p.Wait(at - p.Now()); err != nil {
			return err
		}
		e.HandleCall(c)
		return nil
	})
}

func expectTimes(t *testing.T, c *call.Call, pickedUp, completed simclock.Time) {
	t.Helper()
	if c.PickedUpAt == nil || *c.PickedUpAt != pickedUp {
		t.Errorf("call %d PickedUpAt = %v, expected %v", c.ID, c.PickedUpAt, pickedUp)
	}
	if c.CompletedAt == nil || *c.CompletedAt != completed {
		t.Errorf("call %d CompletedAt = %v, expected %v", c.ID, c.CompletedAt, completed)
	}
	if !c.Done {
		t.Errorf("call %d not done", c.ID)
	}
}

func TestSingleCall(t *testing.T) {
	rec := &recorder{}
	clk := simclock.New()
	e := newTestElevator(t, 1, simconsts.Unbounded, rec)
	if err := e.Start(clk); err != nil {
		t.Fatalf("Start() = %v, expected nil", err)
	}

	c := newTestCall(t, 1, 3, 8, 0)
	e.HandleCall(c)

	if err := clk.Run(context.Background(), 1000); err != nil {
		t.Fatalf("Run() = %v, expected nil", err)
	}
	defer clk.Close()

	expectTimes(t, c, 200, 700)
	if *c.WaitTime != 200 || *c.ProcessTime != 700 {
		t.Errorf("WaitTime = %v, ProcessTime = %v, expected 200 and 700", *c.WaitTime, *c.ProcessTime)
	}
	if e.Position() != 8 || e.Direction() != simconsts.Idle || e.Behaviour() != simconsts.Stopped {
		t.Errorf("elevator at %d going %v (%v), expected idle at 8", e.Position(), e.Direction(), e.Behaviour())
	}
	if e.CapacityUsed() != 0 {
		t.Errorf("CapacityUsed() = %d, expected 0", e.CapacityUsed())
	}
	if len(rec.ofType("IdleEvent")) != 1 {
		t.Errorf("got %d IdleEvents, expected 1", len(rec.ofType("IdleEvent")))
	}
}

func TestOppositeCallDeferredUntilReversal(t *testing.T) {
	rec := &recorder{}
	clk := simclock.New()
	e := newTestElevator(t, 2, simconsts.Unbounded, rec)
	_ = e.Start(clk)

	up := newTestCall(t, 1, 2, 9, 0)
	down := newTestCall(t, 2, 4, 1, 50)
	e.HandleCall(up)
	handleAt(clk, 50, e, down)

	if err := clk.Run(context.Background(), 2000); err != nil {
		t.Fatalf("Run() = %v, expected nil", err)
	}
	defer clk.Close()

	expectTimes(t, up, 0, 700)
	expectTimes(t, down, 1200, 1500)

	recal := rec.ofType("RecalibratedEvent")
	if len(recal) != 2 || !recal[1].Value.(simevent.RecalibratedEvent).Deferred {
		t.Errorf("expected the second call to be deferred, got %v", recal)
	}
	switches := rec.ofType("DirectionSwitchEvent")
	if len(switches) != 1 {
		t.Fatalf("got %d DirectionSwitchEvents, expected 1", len(switches))
	}
	sw := switches[0].Value.(simevent.DirectionSwitchEvent)
	if switches[0].At != 700 || sw.Floor != 9 || sw.From != simconsts.Up || sw.To != simconsts.Down {
		t.Errorf("DirectionSwitchEvent = %+v at %v, expected Up to Down at floor 9, t=700", sw, switches[0].At)
	}
}

func TestRepositionExtendsTurnaround(t *testing.T) {
	rec := &recorder{}
	clk := simclock.New()
	e := newTestElevator(t, 8, simconsts.Unbounded, rec)
	_ = e.Start(clk)

	first := newTestCall(t, 1, 3, 6, 0)
	second := newTestCall(t, 2, 2, 5, 150)
	e.HandleCall(first)
	handleAt(clk, 150, e, second)

	if err := clk.Run(context.Background(), 2000); err != nil {
		t.Fatalf("Run() = %v, expected nil", err)
	}
	defer clk.Close()

	expectTimes(t, second, 600, 900)
	expectTimes(t, first, 700, 1000)

	if n := len(rec.ofType("RepositionEvent")); n != 1 {
		t.Errorf("got %d RepositionEvents, expected 1", n)
	}
	if n := len(rec.ofType("DirectionSwitchEvent")); n != 0 {
		t.Errorf("got %d DirectionSwitchEvents, expected none", n)
	}
}

func TestRepositionWithoutInterference(t *testing.T) {
	clk := simclock.New()
	e := newTestElevator(t, 8, simconsts.Unbounded, &recorder{})
	_ = e.Start(clk)

	c := newTestCall(t, 1, 3, 6, 0)
	e.HandleCall(c)

	if err := clk.Run(context.Background(), 2000); err != nil {
		t.Fatalf("Run() = %v, expected nil", err)
	}
	defer clk.Close()

	expectTimes(t, c, 500, 800)
}

func TestCapacityLeavesCallsQueued(t *testing.T) {
	rec := &recorder{}
	clk := simclock.New()
	e := newTestElevator(t, 1, 1, rec)
	_ = e.Start(clk)

	first := newTestCall(t, 1, 3, 6, 0)
	second := newTestCall(t, 2, 3, 6, 0)
	e.HandleCall(first)
	e.HandleCall(second)

	if err := clk.Run(context.Background(), 3000); err != nil {
		t.Fatalf("Run() = %v, expected nil", err)
	}
	defer clk.Close()

	expectTimes(t, first, 200, 500)
	expectTimes(t, second, 800, 1100)

	full := rec.ofType("CapacityFullEvent")
	if len(full) != 1 {
		t.Fatalf("got %d CapacityFullEvents, expected 1", len(full))
	}
	if ev := full[0].Value.(simevent.CapacityFullEvent); ev.Floor != 3 || ev.Left != 1 {
		t.Errorf("CapacityFullEvent = %+v, expected 1 left at floor 3", ev)
	}
	for _, ev := range rec.ofType("PickUpEvent") {
		if load := ev.Value.(simevent.PickUpEvent).Load; load > 1 {
			t.Errorf("load reached %d with capacity 1", load)
		}
	}
}

func TestBoardingDurations(t *testing.T) {
	clk := simclock.New()
	e, err := New(Params{
		ID:              1,
		Range:           servicemap.Range{Low: 0, High: 11},
		StartFloor:      1,
		F2FTime:         100,
		PickupDuration:  30,
		DropoffDuration: 30,
	})
	if err != nil {
		t.Fatalf("New() = %v, expected nil", err)
	}
	_ = e.Start(clk)

	c := newTestCall(t, 1, 3, 8, 0)
	e.HandleCall(c)

	if err := clk.Run(context.Background(), 2000); err != nil {
		t.Fatalf("Run() = %v, expected nil", err)
	}
	defer clk.Close()

	// Boarding takes 30 frames before the elevator leaves floor 3.
	expectTimes(t, c, 200, 730)
}

func TestCallBeyondRangeStopsRun(t *testing.T) {
	clk := simclock.New()
	e := newTestElevator(t, 1, simconsts.Unbounded, &recorder{})
	_ = e.Start(clk)

	e.HandleCall(&call.Call{ID: 1, Origin: 5, Destination: 11, Direction: simconsts.Up})

	err := clk.Run(context.Background(), 1000)
	defer clk.Close()
	if !errors.Is(err, servicemap.ErrOutOfRange) {
		t.Errorf("Run() = %v, expected %v", err, servicemap.ErrOutOfRange)
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name      string
		inTransit bool
		origin    int
		dest      int
		deferred  bool
	}{
		{"ahead same direction", false, 7, 9, false},
		{"behind same direction", false, 3, 6, true},
		{"opposite direction", false, 6, 2, true},
		{"current floor while stopped", false, 5, 8, false},
		{"current floor while leaving", true, 5, 8, true},
	}

	for _, tt := range tests {
		e := newTestElevator(t, 5, simconsts.Unbounded, &recorder{})
		e.direction = simconsts.Up
		e.inTransit = tt.inTransit

		deferred, err := e.route(0, newTestCall(t, 1, tt.origin, tt.dest, 0))
		if err != nil {
			t.Fatalf("%s: route() = %v, expected nil", tt.name, err)
		}
		if deferred != tt.deferred {
			t.Errorf("%s: deferred = %v, expected %v", tt.name, deferred, tt.deferred)
		}
		if (e.deferred.Len() == 1) != tt.deferred {
			t.Errorf("%s: deferred map holds %d calls", tt.name, e.deferred.Len())
		}
	}
}

func TestRouteIdleAdoptsCallDirection(t *testing.T) {
	e := newTestElevator(t, 8, simconsts.Unbounded, &recorder{})

	if _, err := e.route(0, newTestCall(t, 1, 3, 6, 0)); err != nil {
		t.Fatalf("route() = %v, expected nil", err)
	}
	if e.direction != simconsts.Up || !e.repositioning || e.turnaround != 3 {
		t.Errorf("direction %v repositioning %v turnaround %d, expected Up towards 3", e.direction, e.repositioning, e.turnaround)
	}

	if _, err := e.route(0, newTestCall(t, 2, 1, 4, 0)); err != nil {
		t.Fatalf("route() = %v, expected nil", err)
	}
	if e.turnaround != 1 {
		t.Errorf("turnaround = %d, expected 1", e.turnaround)
	}
	if e.active.Len() != 2 {
		t.Errorf("active map holds %d calls, expected 2", e.active.Len())
	}
}

func TestCapacityInvariants(t *testing.T) {
	e := newTestElevator(t, 3, 1, &recorder{})
	e.capacityUsed = 1

	c := newTestCall(t, 1, 3, 6, 0)
	if err := e.pickUp(c, 10); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("pickUp() on a full elevator = %v, expected %v", err, ErrCapacityExceeded)
	}
	if e.capacityUsed != 1 || c.PickedUpAt != nil {
		t.Errorf("rejected pickUp() changed state: load %d, PickedUpAt %v", e.capacityUsed, c.PickedUpAt)
	}

	e.capacityUsed = 0
	if err := e.dropOff(c, 10); !errors.Is(err, ErrCapacityUnderflow) {
		t.Errorf("dropOff() on an empty elevator = %v, expected %v", err, ErrCapacityUnderflow)
	}
	if c.Done {
		t.Errorf("rejected dropOff() completed the call")
	}
}

func TestNewValidation(t *testing.T) {
	base := Params{ID: 1, Range: servicemap.Range{Low: 0, High: 11}, StartFloor: 1, F2FTime: 100}

	badRange := base
	badRange.Range = servicemap.Range{Low: 0, High: 1}
	if _, err := New(badRange); !errors.Is(err, servicemap.ErrInvalidServiceRange) {
		t.Errorf("New() with range (0, 1) = %v, expected %v", err, servicemap.ErrInvalidServiceRange)
	}

	badStart := base
	badStart.StartFloor = 11
	if _, err := New(badStart); !errors.Is(err, servicemap.ErrOutOfRange) {
		t.Errorf("New() starting on a boundary = %v, expected %v", err, servicemap.ErrOutOfRange)
	}

	badCapacity := base
	badCapacity.Capacity = -1
	if _, err := New(badCapacity); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("New() with negative capacity = %v, expected %v", err, ErrInvalidParams)
	}

	badTiming := base
	badTiming.F2FTime = 0
	if _, err := New(badTiming); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("New() with zero floor time = %v, expected %v", err, ErrInvalidParams)
	}
}

func TestStartTwice(t *testing.T) {
	clk := simclock.New()
	defer clk.Close()
	e := newTestElevator(t, 1, simconsts.Unbounded, &recorder{})

	if err := e.Start(clk); err != nil {
		t.Fatalf("Start() = %v, expected nil", err)
	}
	if err := e.Start(clk); !errors.Is(err, simconsts.ErrDoubleInitialization) {
		t.Errorf("second Start() = %v, expected %v", err, simconsts.ErrDoubleInitialization)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	e := newTestElevator(t, 1, simconsts.Unbounded, &recorder{})
	c := newTestCall(t, 1, 3, 8, 0)
	if _, err := e.route(0, c); err != nil {
		t.Fatalf("route() = %v, expected nil", err)
	}

	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() = %v, expected nil", err)
	}
	if snap.Floor != 1 || snap.Direction != simconsts.Up || len(snap.ActivePickups) != 1 {
		t.Fatalf("Snapshot() = %+v, expected one active pickup going Up from floor 1", snap)
	}
	if snap.ActivePickups[0] == c {
		t.Fatalf("Snapshot() shares call pointers with the elevator")
	}

	snap.ActivePickups[0].Origin = 9
	if c.Origin != 3 {
		t.Errorf("mutating the snapshot changed the live call origin to %d", c.Origin)
	}
}

func TestPendingWorkBehindTopFloorStopsRun(t *testing.T) {
	clk := simclock.New()
	e := newTestElevator(t, 10, simconsts.Unbounded, &recorder{})
	e.direction = simconsts.Up
	if err := e.active.RegisterPickup(newTestCall(t, 1, 3, 5, 0)); err != nil {
		t.Fatalf("RegisterPickup() = %v, expected nil", err)
	}
	_ = e.Start(clk)

	err := clk.Run(context.Background(), 1000)
	defer clk.Close()
	if !errors.Is(err, ErrBoundaryOverrun) {
		t.Fatalf("Run() = %v, expected %v", err, ErrBoundaryOverrun)
	}
	if msg := err.Error(); !strings.Contains(msg, "elevator 1") || !strings.Contains(msg, "floor 10") {
		t.Errorf("Run() error %q does not name the elevator and floor", msg)
	}
}

func TestHopOntoBoundaryStopsRun(t *testing.T) {
	clk := simclock.New()
	e := newTestElevator(t, 10, simconsts.Unbounded, &recorder{})
	e.direction = simconsts.Down
	e.repositioning = true
	e.turnaround = 12
	if err := e.active.RegisterPickup(newTestCall(t, 1, 9, 2, 0)); err != nil {
		t.Fatalf("RegisterPickup() = %v, expected nil", err)
	}
	_ = e.Start(clk)

	err := clk.Run(context.Background(), 1000)
	defer clk.Close()
	if !errors.Is(err, ErrBoundaryOverrun) {
		t.Fatalf("Run() = %v, expected %v", err, ErrBoundaryOverrun)
	}
	if !strings.Contains(err.Error(), "from floor 10") {
		t.Errorf("Run() error %q does not name the floor", err)
	}
	if e.Position() != 10 {
		t.Errorf("Position() = %d, expected the elevator to stay on floor 10", e.Position())
	}
}
