// Package types contains common read shapes used across the application
package types

import "time"

// ProgressEntry mirrors the shape returned by progress queries.
type ProgressEntry struct {
	PlayerID      string     `json:"player_id"`
	AchievementID string     `json:"achievement_id"`
	Current       float64    `json:"current"`
	Target        float64    `json:"target"`
	Completed     bool       `json:"completed"`
	StartedAt     time.Time  `json:"started_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// PlayerTotals aggregates a player's lifetime reward outcomes. Derived from
// progress and reward history; not a source of truth.
type PlayerTotals struct {
	PlayerID       string  `json:"player_id"`
	CompletedCount int     `json:"completed_count"`
	TotalPoints    int     `json:"total_points"`
	TotalValue     float64 `json:"total_value"`
}

// RewardEntry mirrors one reward bundle in a player's history.
type RewardEntry struct {
	BundleID      string    `json:"bundle_id"`
	AchievementID string    `json:"achievement_id"`
	Currency      int64     `json:"currency"`
	Experience    int64     `json:"experience"`
	ItemCount     int       `json:"item_count"`
	Bonus         bool      `json:"bonus"`
	TotalValue    float64   `json:"total_value"`
	ComputedAt    time.Time `json:"computed_at"`
}

// StageHealth mirrors one stage's health snapshot.
type StageHealth struct {
	Stage        string    `json:"stage"`
	Healthy      bool      `json:"healthy"`
	State        string    `json:"state"`
	LastActivity time.Time `json:"last_activity"`
}
