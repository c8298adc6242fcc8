// Package filter applies the admission policy for gameplay events before
// they reach the ingestion queue: a block-set of discarded event types and a
// per (event type, player) rate limiter for high-frequency producers.
//
// Rejection is a policy decision, not an error. It is silent to the caller
// and surfaced only through counters.
package filter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Default filter configuration constants.
const (
	defaultMaxEventsPerSecond = 10.0
	defaultMaxLimiterEntries  = 10000
)

// limiterKey identifies one rate-limiter bucket.
type limiterKey struct {
	EventType string
	PlayerID  string
}

// EventFilter rejects blocked or too-frequent events.
type EventFilter struct {
	blocked     map[string]struct{}
	minSpacing  time.Duration
	maxEntries  int
	now         func() time.Time
	mu          sync.Mutex
	lastAdmit   map[limiterKey]time.Time
	numBlocked  atomic.Uint64
	numLimited  atomic.Uint64
	numAdmitted atomic.Uint64
}

// Option applies a configuration option to the EventFilter.
type Option func(*EventFilter)

// WithBlockedTypes sets the event types discarded outright.
func WithBlockedTypes(types ...string) Option {
	return func(f *EventFilter) {
		for _, t := range types {
			f.blocked[t] = struct{}{}
		}
	}
}

// WithMaxEventsPerSecond sets the per (type, player) admission rate.
// Minimum spacing between admitted events is 1/rate seconds.
func WithMaxEventsPerSecond(rate float64) Option {
	return func(f *EventFilter) {
		if rate > 0 {
			f.minSpacing = time.Duration(float64(time.Second) / rate)
		}
	}
}

// WithMaxLimiterEntries bounds the rate-limiter bookkeeping map.
func WithMaxLimiterEntries(n int) Option {
	return func(f *EventFilter) {
		if n > 0 {
			f.maxEntries = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *EventFilter) {
		if now != nil {
			f.now = now
		}
	}
}

// New creates an event filter with configuration options.
func New(opts ...Option) *EventFilter {
	f := &EventFilter{
		blocked:    make(map[string]struct{}),
		minSpacing: time.Duration(float64(time.Second) / defaultMaxEventsPerSecond),
		maxEntries: defaultMaxLimiterEntries,
		now:        time.Now,
		lastAdmit:  make(map[limiterKey]time.Time),
	}

	// Apply all options
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Admit reports whether the event passes the admission policy.
// Rejections increment counters and nothing else.
func (f *EventFilter) Admit(_ context.Context, e model.GameEvent) bool { //nolint:gocritic // hugeParam: events are passed by value throughout the pipeline
	if _, isBlocked := f.blocked[e.Type]; isBlocked {
		f.numBlocked.Add(1)
		metrics.RecordEventBlocked()
		return false
	}

	now := f.now()
	key := limiterKey{EventType: e.Type, PlayerID: e.PlayerID}

	f.mu.Lock()
	defer f.mu.Unlock()

	if last, seen := f.lastAdmit[key]; seen && now.Sub(last) < f.minSpacing {
		f.numLimited.Add(1)
		metrics.RecordEventRateLimited()
		return false
	}

	if len(f.lastAdmit) >= f.maxEntries {
		f.pruneLocked(now)
	}
	f.lastAdmit[key] = now
	f.numAdmitted.Add(1)
	return true
}

// pruneLocked drops buckets idle long enough that they can no longer limit
// anything. Must be called with f.mu held.
func (f *EventFilter) pruneLocked(now time.Time) {
	for key, last := range f.lastAdmit {
		if now.Sub(last) >= f.minSpacing {
			delete(f.lastAdmit, key)
		}
	}
}

// Blocked returns the number of events rejected by the block-set.
func (f *EventFilter) Blocked() uint64 { return f.numBlocked.Load() }

// RateLimited returns the number of events rejected by the rate limiter.
func (f *EventFilter) RateLimited() uint64 { return f.numLimited.Load() }

// Admitted returns the number of events that passed the policy.
func (f *EventFilter) Admitted() uint64 { return f.numAdmitted.Load() }
