// Package session wires a clock and a building together from a
// configuration, runs them for the configured duration and reports on the
// calls the building completed.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xyproto/randomstring"

	"github.com/shoyo-inokuchi/elevator-playground/internal/building"
	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconfig"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simevent"
)

const NAME_DEFAULT_LEN = 10

type Session struct {
	Name  string
	RunID uuid.UUID

	cfg      simconfig.Config
	clock    *simclock.Clock
	building *building.Building
	log      zerolog.Logger
	ran      bool
}

// New validates cfg and builds the simulation. Every event is written as a
// status line and then passed to events, which may be nil.
func New(cfg simconfig.Config, events simevent.Sink) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	selection, err := building.ParseSelectionPolicy(cfg.Selection)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = randomstring.EnglishFrequencyString(NAME_DEFAULT_LEN)
	}
	runID := uuid.New()
	log := logger.Component("session").With().Str("run", runID.String()).Logger()

	b, err := building.New(building.Params{
		NumFloors:       cfg.NumFloors,
		NumElevators:    cfg.NumElevators,
		StartFloor:      cfg.StartFloor,
		Capacity:        cfg.Capacity,
		Seed:            cfg.Seed,
		Selection:       selection,
		F2FTime:         cfg.F2FTime,
		PickupDuration:  cfg.PickupDuration,
		DropoffDuration: cfg.DropoffDuration,
		ArrivalMin:      cfg.ArrivalMin,
		ArrivalMax:      cfg.ArrivalMax,
		Events:          simevent.Fanout(building.StatusLogger(&log), events),
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", name, err)
	}

	return &Session{
		Name:     name,
		RunID:    runID,
		cfg:      cfg,
		clock:    simclock.New(),
		building: b,
		log:      log,
	}, nil
}

func (s *Session) Building() *building.Building {
	return s.building
}

// Run simulates the configured duration once and reports on it. The
// session's processes are terminated before Run returns.
func (s *Session) Run(ctx context.Context) (Report, error) {
	if s.ran {
		return Report{}, fmt.Errorf("session %s: %w", s.Name, ErrAlreadyRun)
	}
	s.ran = true
	defer s.clock.Close()

	if err := s.building.Start(s.clock); err != nil {
		return Report{}, fmt.Errorf("session %s: %w", s.Name, err)
	}

	s.log.Info().Msgf("BEGINNING SESSION %s with %d floors and %d elevators",
		s.Name, s.building.NumFloors(), len(s.building.Elevators()))
	if err := s.clock.Run(ctx, s.cfg.Duration); err != nil {
		return Report{}, s.abort(err)
	}
	s.log.Info().Str("t", s.clock.Now().String()).Msgf("ENDING SESSION %s", s.Name)

	report := NewReport(s.Name, s.RunID, s.clock.Now(), s.building.History())
	statuses, err := s.building.Status()
	if err != nil {
		return Report{}, fmt.Errorf("session %s: %w", s.Name, err)
	}
	report.Elevators = statuses
	return report, nil
}

// abort logs where every elevator stood when the run failed.
func (s *Session) abort(err error) error {
	now := s.clock.Now()
	s.log.Error().Str("t", now.String()).Err(err).Msgf("Session %s aborted", s.Name)

	statuses, statusErr := s.building.Status()
	if statusErr != nil {
		s.log.Warn().Err(statusErr).Msg("Could not snapshot elevators")
	}
	for _, status := range statuses {
		s.log.Error().Str("t", now.String()).Msg(DescribeStatus(status))
	}
	return &AbortError{Session: s.Name, At: now, Elevators: statuses, Err: err}
}
