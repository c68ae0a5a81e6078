package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "ELEVSIM_CONFIG"
	EnvLogLevel   = "ELEVSIM_LOG_LEVEL"
	EnvStepDelay  = "ELEVSIM_STEP_DELAY"
)

type CarConfig struct {
	ID         int `yaml:"id"`
	Capacity   int `yaml:"capacity"`
	StartFloor int `yaml:"start_floor"`
}

// Config describes one building: its floor range, the step pacing and the car roster.
type Config struct {
	MinFloor  int           `yaml:"min_floor"`
	MaxFloor  int           `yaml:"max_floor"`
	StepDelay time.Duration `yaml:"step_delay"`
	LogLevel  string        `yaml:"log_level"`
	LogFile   string        `yaml:"log_file"`
	Cars      []CarConfig   `yaml:"cars"`
}

func Default() Config {
	cfg := Config{
		MinFloor:  DefaultMinFloor,
		MaxFloor:  DefaultMaxFloor,
		StepDelay: StepDelay,
		LogLevel:  "info",
	}
	for id := range DefaultNumCars {
		cfg.Cars = append(cfg.Cars, CarConfig{ID: id, Capacity: DefaultCapacity, StartFloor: DefaultMinFloor})
	}
	return cfg
}

// Load reads a YAML config file on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	slog.Debug("Config loaded", "path", path, "cars", len(cfg.Cars), "min", cfg.MinFloor, "max", cfg.MaxFloor)
	return cfg, nil
}

// LoadEnv reads a .env file (missing file is not an error) and returns the values it
// and the process environment hold for the ELEVSIM_* keys.
func LoadEnv(path string) (map[string]string, error) {
	env := make(map[string]string)
	if path != "" {
		fileEnv, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, key := range []string{EnvConfigPath, EnvLogLevel, EnvStepDelay} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides config fields from ELEVSIM_* values.
func (cfg *Config) ApplyEnv(env map[string]string) error {
	if level, ok := env[EnvLogLevel]; ok && level != "" {
		cfg.LogLevel = level
	}
	if delay, ok := env[EnvStepDelay]; ok && delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStepDelay, err)
		}
		cfg.StepDelay = d
	}
	return nil
}

func (cfg Config) Validate() error {
	if cfg.MinFloor > cfg.MaxFloor {
		return fmt.Errorf("invalid config: min floor (%d) > max floor (%d)", cfg.MinFloor, cfg.MaxFloor)
	}
	if cfg.StepDelay < 0 {
		return fmt.Errorf("invalid config: negative step delay %s", cfg.StepDelay)
	}
	seen := make(map[int]bool)
	for _, car := range cfg.Cars {
		if seen[car.ID] {
			return fmt.Errorf("invalid config: duplicate car id %d", car.ID)
		}
		seen[car.ID] = true
		if car.Capacity <= 0 {
			return fmt.Errorf("invalid config: car %d has capacity %d", car.ID, car.Capacity)
		}
		if car.StartFloor < cfg.MinFloor || car.StartFloor > cfg.MaxFloor {
			return fmt.Errorf("invalid config: car %d starts at floor %d outside [%d, %d]",
				car.ID, car.StartFloor, cfg.MinFloor, cfg.MaxFloor)
		}
	}
	return nil
}

func (cfg Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
