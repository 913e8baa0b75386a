package simconfig

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
)

// ProcessCmdArgs builds the run configuration: defaults, then the YAML file
// given by -config, then the .env file given by -env, then any explicit flag.
func ProcessCmdArgs(args []string) (Config, error) {
	flags := flag.NewFlagSet("elevsim", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	help := flags.Bool("help", false, "Show Help Window")
	version := flags.Bool("version", false, "Show Version")
	configPath := flags.String("config", "", "Read settings from a YAML file")
	envPath := flags.String("env", "", "Read ELEVSIM_* overrides from a .env file")

	// flags override the files only when given
	def := Default()
	name := flags.String("name", "", "Set the session name. Defaults to random string")
	floors := flags.Int("floors", def.NumFloors, "Number of floors")
	elevators := flags.Int("elevators", def.NumElevators, "Number of elevators")
	capacity := flags.Int("capacity", def.Capacity, "Passengers per elevator, 0 for no limit")
	duration := flags.Int64("duration", int64(def.Duration), "Simulated frames to run, 10 frames per second")
	seed := flags.Int64("seed", def.Seed, "Random seed")
	selection := flags.String("selection", def.Selection, "Elevator selection policy: first or random")
	logLevel := flags.String("loglevel", def.LogLevel, "Log level: debug, info, warn, error or disabled")

	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}

	if *version {
		fmt.Println("Version:", GetGitHash())
		os.Exit(0)
	}

	if *help {
		fmt.Println("Usage: ./elevsim [OPTIONS]")
		fmt.Println("SCAN elevator dispatch simulator")
		fmt.Println()
		fmt.Println("Options:")
		flags.SetOutput(os.Stdout)
		flags.PrintDefaults()
		os.Exit(0)
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.Load(*configPath); err != nil {
			return Config{}, err
		}
	}
	if *envPath != "" {
		if err := cfg.ApplyEnv(*envPath); err != nil {
			return Config{}, err
		}
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *name
		case "floors":
			cfg.NumFloors = *floors
		case "elevators":
			cfg.NumElevators = *elevators
		case "capacity":
			cfg.Capacity = *capacity
		case "duration":
			cfg.Duration = simclock.Time(*duration)
		case "seed":
			cfg.Seed = *seed
		case "selection":
			cfg.Selection = *selection
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
