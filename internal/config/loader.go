package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if ACCOLADE_CONFIG is set
//  3. env (prefix ACCOLADE_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ACCOLADE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ACCOLADE_ADDR, ACCOLADE_QUEUE_CAPACITY, ...
	// Map env keys like ACCOLADE_QUEUE_CAPACITY -> queue_capacity (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ACCOLADE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "accolade_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.QueueCapacity <= 0:
		return fmt.Errorf("%w: queue_capacity must be positive", ErrInvalidConfig)
	case cfg.BatchIntervalMS <= 0:
		return fmt.Errorf("%w: batch_interval_ms must be positive", ErrInvalidConfig)
	case cfg.BatchDrainLimit <= 0:
		return fmt.Errorf("%w: batch_drain_limit must be positive", ErrInvalidConfig)
	case cfg.RateLimitPerSec <= 0:
		return fmt.Errorf("%w: rate_limit_per_sec must be positive", ErrInvalidConfig)
	case cfg.NotificationMaxActive <= 0:
		return fmt.Errorf("%w: notification_max_active must be positive", ErrInvalidConfig)
	case cfg.ReinitMaxAttempts < 0:
		return fmt.Errorf("%w: reinit_max_attempts must not be negative", ErrInvalidConfig)
	case cfg.RewardGlobalMultiplier <= 0:
		return fmt.Errorf("%w: reward_global_multiplier must be positive", ErrInvalidConfig)
	case cfg.RewardBonusChance < 0 || cfg.RewardBonusChance > 1:
		return fmt.Errorf("%w: reward_bonus_chance must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}
