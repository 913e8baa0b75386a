package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
	"github.com/shoyo-inokuchi/elevator-playground/internal/session"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconfig"
)

var Logger = logger.GetLoggerConfigured(zerolog.InfoLevel)

func main() {
	if err := run(os.Args[1:]); err != nil {
		Logger.Error().Err(err).Msg("Session failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := simconfig.ProcessCmdArgs(args)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.GetLoggerConfigured(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, err := session.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("could not set up session: %w", err)
	}

	Logger.Info().Msgf("Starting session %s (%d floors, %d elevators, seed %d)",
		sess.Name, cfg.NumFloors, cfg.NumElevators, cfg.Seed)

	report, err := sess.Run(ctx)
	if err != nil {
		return err
	}
	report.Log(Logger)
	return nil
}
