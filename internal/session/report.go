package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shoyo-inokuchi/elevator-playground/internal/call"
	"github.com/shoyo-inokuchi/elevator-playground/internal/elevator"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

var ErrAlreadyRun = errors.New("session already run")

// Report summarises a finished session. Times are in simulated seconds.
type Report struct {
	Name       string
	RunID      uuid.UUID
	Elapsed    simclock.Time
	Generated  int
	Completed  int
	AvgWait    float64
	MaxWait    float64
	AvgProcess float64
	MaxProcess float64

	// where each elevator stood when the session ended
	Elevators []elevator.Status
}

// AbortError is returned when a session stops on a process error or a
// cancelled context. It carries the elevator states at that moment.
type AbortError struct {
	Session   string
	At        simclock.Time
	Elevators []elevator.Status
	Err       error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("session %s aborted at %v: %v", e.Session, e.At, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// DescribeStatus renders one elevator status as a single log line.
func DescribeStatus(status elevator.Status) string {
	capacity := "unbounded"
	if status.Capacity != simconsts.Unbounded {
		capacity = strconv.Itoa(status.Capacity)
	}
	return fmt.Sprintf("Elevator %d at floor %d going %v (%v), load %d/%s, pickups %s, dropoffs %s, deferred %s, unrouted %s",
		status.ID, status.Floor, status.Direction, status.Behaviour, status.Load, capacity,
		callIDs(status.ActivePickups), callIDs(status.ActiveDropoffs),
		callIDs(status.DeferredPickups), callIDs(status.Unrouted))
}

func callIDs(calls []*call.Call) string {
	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, strconv.Itoa(c.ID))
	}
	return "[" + strings.Join(ids, " ") + "]"
}

// NewReport computes the statistics over the done calls in history.
func NewReport(name string, runID uuid.UUID, elapsed simclock.Time, history []*call.Call) Report {
	report := Report{
		Name:      name,
		RunID:     runID,
		Elapsed:   elapsed,
		Generated: len(history),
	}

	var totalWait, totalProcess, maxWait, maxProcess simclock.Time
	for _, c := range history {
		if !c.Done {
			continue
		}
		report.Completed++
		totalWait += *c.WaitTime
		totalProcess += *c.ProcessTime
		maxWait = max(maxWait, *c.WaitTime)
		maxProcess = max(maxProcess, *c.ProcessTime)
	}
	if report.Completed == 0 {
		return report
	}

	n := float64(report.Completed)
	report.AvgWait = totalWait.Seconds() / n
	report.MaxWait = maxWait.Seconds()
	report.AvgProcess = totalProcess.Seconds() / n
	report.MaxProcess = maxProcess.Seconds()
	return report
}

func (r Report) CompletionRate() string {
	return fmt.Sprintf("%d/%d", r.Completed, r.Generated)
}

// Log writes the report the way the session prints its results.
func (r Report) Log(log *zerolog.Logger) {
	log.Info().
		Str("session", r.Name).
		Str("run", r.RunID.String()).
		Str("t", r.Elapsed.String()).
		Msg("RESULTS")
	log.Info().Msgf("Average wait time    = %.1f s", r.AvgWait)
	log.Info().Msgf("Maximum wait time    = %.1f s", r.MaxWait)
	log.Info().Msgf("Completion rate      = %s", r.CompletionRate())
	log.Info().Msgf("Average process time = %.1f s", r.AvgProcess)
	log.Info().Msgf("Maximum process time = %.1f s", r.MaxProcess)
	for _, status := range r.Elevators {
		log.Info().Msg(DescribeStatus(status))
	}
}
