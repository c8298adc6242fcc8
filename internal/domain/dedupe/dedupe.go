// Package dedupe defines the interface for duplicate-signal suppression.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Default deduper configuration constants.
const (
	defaultWindow  = 10 * time.Second
	defaultMaxSize = 10000
)

// Deduper records recently seen IDs so redundant completion signals fire a
// downstream effect at most once per window.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen inside the window
	// and records it if not. Returns true if id is a duplicate, false if it
	// was newly recorded. This is the ONLY method for deduplication -
	// thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID, allowing it to fire again immediately. Used
	// when a downstream effect was suppressed-then-failed and must retry.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a timestamp map and lazy eviction.
// Entries expire after the window; when the map outgrows maxSize the expired
// entries are swept, and if everything is still live the oldest entry is
// evicted so the bound holds.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	window  time.Duration
	maxSize int
	now     func() time.Time
	size    atomic.Int64
}

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithWindow sets how long an ID suppresses duplicates.
func WithWindow(window time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if window > 0 {
			d.window = window
		}
	}
}

// WithMaxSize bounds the number of IDs kept in memory.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		if now != nil {
			d.now = now
		}
	}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		window:  defaultWindow,
		maxSize: defaultMaxSize,
		now:     time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]time.Time)

	return d
}

// SeenAndRecord atomically checks whether id was seen inside the window and
// records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, exists := d.seen[id]; exists && now.Sub(at) < d.window {
		return true // duplicate within window
	}

	if len(d.seen) >= d.maxSize {
		d.evictLocked(now)
	}

	if _, exists := d.seen[id]; !exists {
		d.size.Add(1)
	}
	d.seen[id] = now
	return false
}

// Unrecord removes an ID, allowing it to fire again immediately.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// evictLocked sweeps expired entries, falling back to evicting the oldest
// live entry when nothing has expired. Must be called with d.mu held.
func (d *inMemoryDeduper) evictLocked(now time.Time) {
	removed := 0
	for id, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, id)
			removed++
		}
	}
	if removed == 0 && len(d.seen) > 0 {
		var oldestID string
		var oldestAt time.Time
		for id, at := range d.seen {
			if oldestID == "" || at.Before(oldestAt) {
				oldestID, oldestAt = id, at
			}
		}
		delete(d.seen, oldestID)
		removed = 1
	}
	d.size.Add(int64(-removed))
}

// Size returns the current number of tracked IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
