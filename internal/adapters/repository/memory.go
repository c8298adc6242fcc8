package repository

import (
	"context"
	"sync"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// MemoryStore keeps the snapshot and reward history in process memory.
// The default backend; state does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	snap     Snapshot
	hasSnap  bool
	byPlayer map[string][]model.RewardBundle
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byPlayer: make(map[string][]model.RewardBundle),
	}
}

// SaveSnapshot atomically replaces the stored snapshot.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.hasSnap = true
	return nil
}

// LoadSnapshot returns the last saved snapshot.
func (s *MemoryStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSnap {
		return Snapshot{}, ErrNoSnapshot
	}
	return s.snap, nil
}

// AppendReward records a computed reward bundle.
func (s *MemoryStore) AppendReward(_ context.Context, bundle model.RewardBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPlayer[bundle.PlayerID] = append(s.byPlayer[bundle.PlayerID], bundle)
	return nil
}

// RewardHistory returns a player's reward bundles, most recent first.
func (s *MemoryStore) RewardHistory(_ context.Context, playerID string, limit int) ([]model.RewardBundle, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byPlayer[playerID]
	n := len(history)
	if limit > n {
		limit = n
	}
	out := make([]model.RewardBundle, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}
