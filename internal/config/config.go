// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...Option) initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file, and environment vars.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// QueueCapacity bounds the in-memory event ingestion queue.
	QueueCapacity int `koanf:"queue_capacity"`

	// BatchIntervalMS sets the accumulated interval between batch drains.
	BatchIntervalMS int `koanf:"batch_interval_ms"`

	// BatchDrainLimit caps how many events one batch drain may take.
	BatchDrainLimit int `koanf:"batch_drain_limit"`

	// RateLimitPerSec caps admissions per (event type, player) pair.
	RateLimitPerSec float64 `koanf:"rate_limit_per_sec"`

	// BlockedEventTypes lists event types the filter rejects outright.
	BlockedEventTypes []string `koanf:"blocked_event_types"`

	// NotificationMaxActive bounds concurrently displaying notifications.
	NotificationMaxActive int `koanf:"notification_max_active"`

	// NotificationPendingCapacity bounds the pending notification queue.
	NotificationPendingCapacity int `koanf:"notification_pending_capacity"`

	// NotificationDisplayMS sets how long a notification is shown.
	NotificationDisplayMS int `koanf:"notification_display_ms"`

	// NotificationDedupeMS sets the duplicate-suppression window.
	NotificationDedupeMS int `koanf:"notification_dedupe_ms"`

	// HealthCheckIntervalSec sets the accumulated interval between
	// orchestrator health sweeps.
	HealthCheckIntervalSec int `koanf:"health_check_interval_sec"`

	// ReinitMaxAttempts bounds reinitialization retries for a failed stage.
	ReinitMaxAttempts int `koanf:"reinit_max_attempts"`

	// ReinitTimeoutMS bounds each reinitialization attempt.
	ReinitTimeoutMS int `koanf:"reinit_timeout_ms"`

	// CommandQueueSize bounds the orchestrator command queue.
	CommandQueueSize int `koanf:"command_queue_size"`

	// CommandsPerTick caps how many queued commands one tick drains.
	CommandsPerTick int `koanf:"commands_per_tick"`

	// SaveIntervalSec sets the accumulated interval between periodic saves.
	SaveIntervalSec int `koanf:"save_interval_sec"`

	// SnapshotPath enables file persistence when non-empty; otherwise
	// state lives in memory only.
	SnapshotPath string `koanf:"snapshot_path"`

	// AchievementsPath points to a YAML file of extra achievement
	// definitions layered on top of the built-in set.
	AchievementsPath string `koanf:"achievements_path"`

	// RewardGlobalMultiplier scales every computed reward.
	RewardGlobalMultiplier float64 `koanf:"reward_global_multiplier"`

	// RewardBonusChance sets the probability of a critical reward roll.
	RewardBonusChance float64 `koanf:"reward_bonus_chance"`
}

// New creates a Config populated with production defaults.
func New() *Config {
	c := &Config{
		LogLevel:                    "info",
		Addr:                        ":8090",
		QueueCapacity:               1000,
		BatchIntervalMS:             100,
		BatchDrainLimit:             50,
		RateLimitPerSec:             10,
		BlockedEventTypes:           []string{"debug_event", "test_event"},
		NotificationMaxActive:       3,
		NotificationPendingCapacity: 100,
		NotificationDisplayMS:       4000,
		NotificationDedupeMS:        10_000,
		HealthCheckIntervalSec:      30,
		ReinitMaxAttempts:           3,
		ReinitTimeoutMS:             5000,
		CommandQueueSize:            64,
		CommandsPerTick:             16,
		SaveIntervalSec:             60,
		SnapshotPath:                "",
		AchievementsPath:            "",
		RewardGlobalMultiplier:      1.0,
		RewardBonusChance:           0.05,
	}
	return c
}
