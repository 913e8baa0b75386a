package building

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shoyo-inokuchi/elevator-playground/internal/simevent"
)

// StatusLogger returns a sink printing one status line per event, stamped
// with the simulation time.
func StatusLogger(log *zerolog.Logger) simevent.Sink {
	return func(event simevent.SimEvent) {
		level, msg := statusLine(event)
		log.WithLevel(level).Str("t", event.At.String()).Msg(msg)
	}
}

func statusLine(event simevent.SimEvent) (zerolog.Level, string) {
	switch ev := event.Value.(type) {
	case simevent.CallGeneratedEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Generate] call %d: floor %d to %d", ev.Call.ID, ev.Call.Origin, ev.Call.Destination)
	case simevent.CallSelectedEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Select] call %d: Elevator %d", ev.Call.ID, ev.Elevator)
	case simevent.PickUpEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Pick up] Elevator %d at floor %d: call %d, load %d", ev.Elevator, ev.Floor, ev.Call.ID, ev.Load)
	case simevent.DropOffEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Drop off] Elevator %d at floor %d: call %d, load %d", ev.Elevator, ev.Floor, ev.Call.ID, ev.Load)
	case simevent.CapacityFullEvent:
		return zerolog.WarnLevel, fmt.Sprintf("[Full] Elevator %d at floor %d left %d calls waiting", ev.Elevator, ev.Floor, ev.Left)
	case simevent.DirectionSwitchEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Switch] Elevator %d at floor %d: %v to %v", ev.Elevator, ev.Floor, ev.From, ev.To)
	case simevent.RepositionEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Reposition] Elevator %d at floor %d heading to floor %d", ev.Elevator, ev.Floor, ev.Target)
	case simevent.IdleEvent:
		return zerolog.InfoLevel, fmt.Sprintf("[Idle] Elevator %d at floor %d", ev.Elevator, ev.Floor)
	case simevent.RecalibratedEvent:
		return zerolog.DebugLevel, fmt.Sprintf("[Recalibrate] Elevator %d: call %d deferred=%v", ev.Elevator, ev.Call.ID, ev.Deferred)
	default:
		return zerolog.DebugLevel, fmt.Sprintf("[%s]", event.EventType())
	}
}
