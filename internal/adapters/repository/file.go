package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

const defaultFileMode = 0o644

// FileStore persists the snapshot as a JSON document on disk. Writes go
// through a temp file and rename so a crash mid-save never corrupts the
// previous snapshot. Reward history rides inside the snapshot; appends are
// buffered in memory until the next save.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	mode     os.FileMode
	snap     Snapshot
	hasSnap  bool
	byPlayer map[string][]model.RewardBundle
}

// FileOption applies a configuration option to the FileStore.
type FileOption func(*FileStore)

// WithFileMode sets the permission bits for the snapshot file.
func WithFileMode(mode os.FileMode) FileOption {
	return func(s *FileStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}

// NewFileStore creates a file-backed store at path, loading the existing
// snapshot if one is present.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		mode:     defaultFileMode,
		byPlayer: make(map[string][]model.RewardBundle),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run, nothing to load.
	case err != nil:
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	default:
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
		}
		s.snap = snap
		s.hasSnap = true
		for _, b := range snap.Rewards {
			s.byPlayer[b.PlayerID] = append(s.byPlayer[b.PlayerID], b)
		}
	}
	return s, nil
}

// SaveSnapshot writes the snapshot to disk atomically.
func (s *FileStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fold the buffered reward history into the document being written.
	snap.Rewards = nil
	for _, bundles := range s.byPlayer {
		snap.Rewards = append(snap.Rewards, bundles...)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	s.snap = snap
	s.hasSnap = true
	return nil
}

// LoadSnapshot returns the last saved snapshot.
func (s *FileStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSnap {
		return Snapshot{}, ErrNoSnapshot
	}
	return s.snap, nil
}

// AppendReward buffers a reward bundle for the next save.
func (s *FileStore) AppendReward(_ context.Context, bundle model.RewardBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPlayer[bundle.PlayerID] = append(s.byPlayer[bundle.PlayerID], bundle)
	return nil
}

// RewardHistory returns a player's reward bundles, most recent first.
func (s *FileStore) RewardHistory(_ context.Context, playerID string, limit int) ([]model.RewardBundle, error) {
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
