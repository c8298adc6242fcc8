package model

import "time"

// ProgressKey identifies one (player, achievement) progress record.
// A dedicated value type keeps lookups O(1) without nested maps.
type ProgressKey struct {
	PlayerID      string
	AchievementID string
}

// Progress accumulates a player's value toward one achievement target.
// Created lazily on the first matching event. Current is monotonically
// non-decreasing until completion and frozen at the target afterwards.
type Progress struct {
	Key         ProgressKey
	Current     float64
	StartedAt   time.Time
	UpdatedAt   time.Time
	Completed   bool
	CompletedAt time.Time
}

// Apply adds value to the record, completing and freezing it at target when
// the threshold is reached. Returns true on the first (and only) transition
// to completed. Calls after completion are no-ops, as are non-positive
// values: Current never decreases, even for events that bypass the HTTP
// boundary's validation.
func (p *Progress) Apply(value float64, target float64, now time.Time) bool {
	if p.Completed || value <= 0 {
		return false
	}
	p.Current += value
	p.UpdatedAt = now
	if p.Current >= target {
		p.Current = target
		p.Completed = true
		p.CompletedAt = now
		return true
	}
	return false
}
