package model

import "time"

// ItemReward is one item slot inside a reward bundle.
type ItemReward struct {
	ID       string
	Quantity int
	Rarity   Rarity
}

// RewardBundle is the computed payout for one completion.
// Immutable once computed; produced exactly once per (player, achievement).
type RewardBundle struct {
	ID            string // uuid
	AchievementID string
	PlayerID      string
	Currency      int64
	Experience    int64
	Items         []ItemReward
	Bonus         bool
	TotalValue    float64
	ComputedAt    time.Time
}
