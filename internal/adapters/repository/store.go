// Package repository defines the persistence boundary for achievement
// state: progress snapshots and per-player reward history.
package repository

import (
	"context"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// Snapshot is the durable view of the pipeline's mutable state. Recognition
// profiles are not persisted; they are rebuilt from completed progress
// records against the catalog on restore.
type Snapshot struct {
	SavedAt  time.Time            `json:"saved_at"`
	Progress []model.Progress     `json:"progress"`
	Rewards  []model.RewardBundle `json:"rewards"`
}

// Store provides read/write access to achievement persistence.
type Store interface {
	// SaveSnapshot atomically replaces the stored snapshot.
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	// LoadSnapshot returns the last saved snapshot.
	// Returns ErrNoSnapshot when nothing has been saved yet.
	LoadSnapshot(ctx context.Context) (Snapshot, error)

	// AppendReward records a computed reward bundle for later queries.
	AppendReward(ctx context.Context, bundle model.RewardBundle) error

	// RewardHistory returns a player's reward bundles, most recent first,
	// capped at limit. Returns ErrInvalidLimit when limit is not positive.
	RewardHistory(ctx context.Context, playerID string, limit int) ([]model.RewardBundle, error)
}
