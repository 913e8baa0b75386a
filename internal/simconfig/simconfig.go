package simconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

var Log = logger.GetLogger()

var ErrInvalidConfig = errors.New("invalid configuration")

//go:generate sh -c "printf %s $(git rev-parse HEAD) > githash.txt"
//go:embed githash.txt
var gitHash string

func GetGitHash() string {
	return strings.TrimSpace(gitHash)
}

// Timings are in frames.
type Config struct {
	Name            string        `yaml:"name"`
	NumFloors       int           `yaml:"num_floors"`
	NumElevators    int           `yaml:"num_elevators"`
	Capacity        int           `yaml:"capacity"`
	StartFloor      int           `yaml:"start_floor"`
	Duration        simclock.Time `yaml:"duration"`
	Seed            int64         `yaml:"seed"`
	F2FTime         simclock.Time `yaml:"f2f_time"`
	PickupDuration  simclock.Time `yaml:"pickup_duration"`
	DropoffDuration simclock.Time `yaml:"dropoff_duration"`
	ArrivalMin      simclock.Time `yaml:"arrival_min"`
	ArrivalMax      simclock.Time `yaml:"arrival_max"`
	Selection       string        `yaml:"selection"`
	LogLevel        string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		NumFloors:       simconsts.DEFAULT_NUM_FLOORS,
		NumElevators:    simconsts.DEFAULT_NUM_ELEVATORS,
		Capacity:        simconsts.Unbounded,
		StartFloor:      simconsts.DEFAULT_START_FLOOR,
		Duration:        simconsts.DEFAULT_RUNTIME,
		Seed:            1,
		F2FTime:         simconsts.DEFAULT_F2F_TIME,
		PickupDuration:  simconsts.DEFAULT_PICKUP_DURATION,
		DropoffDuration: simconsts.DEFAULT_DROPOFF_DURATION,
		ArrivalMin:      simconsts.DEFAULT_ARRIVAL_INTERVAL,
		ArrivalMax:      simconsts.DEFAULT_ARRIVAL_INTERVAL,
		Selection:       "first",
		LogLevel:        "info",
	}
}

// Load reads a YAML file on top of cfg. Keys missing from the file keep
// their current values.
func (cfg *Config) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}
	Log.Debug().Msgf("Loaded config from %s", path)
	return nil
}

const envPrefix = "ELEVSIM_"

// ApplyEnv overrides cfg with the ELEVSIM_* keys of a .env file.
func (cfg *Config) ApplyEnv(path string) error {
	envFile, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	ints := map[string]*int{
		"NUM_FLOORS":    &cfg.NumFloors,
		"NUM_ELEVATORS": &cfg.NumElevators,
		"CAPACITY":      &cfg.Capacity,
		"START_FLOOR":   &cfg.StartFloor,
	}
	times := map[string]*simclock.Time{
		"DURATION":         &cfg.Duration,
		"F2F_TIME":         &cfg.F2FTime,
		"PICKUP_DURATION":  &cfg.PickupDuration,
		"DROPOFF_DURATION": &cfg.DropoffDuration,
		"ARRIVAL_MIN":      &cfg.ArrivalMin,
		"ARRIVAL_MAX":      &cfg.ArrivalMax,
	}
	strs := map[string]*string{
		"NAME":      &cfg.Name,
		"SELECTION": &cfg.Selection,
		"LOG_LEVEL": &cfg.LogLevel,
	}

	for key, value := range envFile {
		name, ok := strings.CutPrefix(key, envPrefix)
		if !ok {
			continue
		}
		switch {
		case ints[name] != nil:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", key, value, ErrInvalidConfig)
			}
			*ints[name] = n
		case times[name] != nil:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", key, value, ErrInvalidConfig)
			}
			*times[name] = simclock.Time(n)
		case strs[name] != nil:
			*strs[name] = value
		case name == "SEED":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", key, value, ErrInvalidConfig)
			}
			cfg.Seed = n
		default:
			Log.Warn().Msgf("Ignoring unknown setting %s in %s", key, path)
		}
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.NumFloors < 2:
		return fmt.Errorf("num_floors %d is below 2: %w", cfg.NumFloors, ErrInvalidConfig)
	case cfg.NumElevators < 1:
		return fmt.Errorf("num_elevators %d: %w", cfg.NumElevators, ErrInvalidConfig)
	case cfg.Capacity < 0:
		return fmt.Errorf("capacity %d: %w", cfg.Capacity, ErrInvalidConfig)
	case cfg.StartFloor < 1 || cfg.StartFloor > cfg.NumFloors:
		return fmt.Errorf("start_floor %d outside 1..%d: %w", cfg.StartFloor, cfg.NumFloors, ErrInvalidConfig)
	case cfg.Duration <= 0:
		return fmt.Errorf("duration %d: %w", cfg.Duration, ErrInvalidConfig)
	case cfg.F2FTime <= 0:
		return fmt.Errorf("f2f_time %d: %w", cfg.F2FTime, ErrInvalidConfig)
	case cfg.PickupDuration < 0 || cfg.DropoffDuration < 0:
		return fmt.Errorf("boarding durations %d/%d: %w", cfg.PickupDuration, cfg.DropoffDuration, ErrInvalidConfig)
	case cfg.ArrivalMin <= 0 || cfg.ArrivalMax < cfg.ArrivalMin:
		return fmt.Errorf("arrival interval [%d, %d]: %w", cfg.ArrivalMin, cfg.ArrivalMax, ErrInvalidConfig)
	}
	switch cfg.Selection {
	case "first", "random":
	default:
		return fmt.Errorf("selection %q: %w", cfg.Selection, ErrInvalidConfig)
	}
	return nil
}
