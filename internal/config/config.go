// Package config loads server configuration from file, environment and
// command-line flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/memorank/internal/curriculum"
	"github.com/conorfennell/memorank/internal/fsrs"
)

// envPrefix namespaces environment variables, e.g. MEMORANK_LISTEN.
// A double underscore nests: MEMORANK_FSRS__DESIRED_RETENTION.
const envPrefix = "MEMORANK_"

// Config is the full runtime configuration.
type Config struct {
	DB           string        `koanf:"db" validate:"required"`
	Listen       string        `koanf:"listen" validate:"required"`
	BatchSize    int           `koanf:"batch_size" validate:"gt=0,lte=100"`
	SyncInterval time.Duration `koanf:"sync_interval" validate:"gte=0"`
	Curriculum   []string      `koanf:"curriculum"`
	FSRS         FSRS          `koanf:"fsrs"`
}

// FSRS is the scheduler tuning section.
type FSRS struct {
	DesiredRetention float64         `koanf:"desired_retention" validate:"gt=0,lte=1"`
	MaximumInterval  int             `koanf:"maximum_interval" validate:"gte=0"`
	DisableFuzzing   bool            `koanf:"disable_fuzzing"`
	LearningSteps    []time.Duration `koanf:"learning_steps"`
	RelearningSteps  []time.Duration `koanf:"relearning_steps"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		DB:           "memorank.db",
		Listen:       ":8080",
		BatchSize:    curriculum.DefaultBatchSize,
		SyncInterval: 30 * time.Minute,
		FSRS: FSRS{
			DesiredRetention: 0.9,
			MaximumInterval:  36500,
		},
	}
}

// Load layers the config file (if any), MEMORANK_* environment variables and
// the given flag set over the defaults, then validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flag config: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envToKey maps MEMORANK_FSRS__DESIRED_RETENTION to fsrs.desired_retention.
func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SchedulerConfig converts the tuning section into an engine config.
func (c *Config) SchedulerConfig() fsrs.Config {
	return fsrs.Config{
		DesiredRetention: c.FSRS.DesiredRetention,
		MaximumInterval:  c.FSRS.MaximumInterval,
		DisableFuzzing:   c.FSRS.DisableFuzzing,
		LearningSteps:    c.FSRS.LearningSteps,
		RelearningSteps:  c.FSRS.RelearningSteps,
	}
}

// Order builds the curriculum ranking from the configured category list.
func (c *Config) Order() curriculum.Order {
	return curriculum.OrderFromList(c.Curriculum)
}
