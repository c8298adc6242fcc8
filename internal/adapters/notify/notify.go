// Package notify queues completion notifications for the presentation
// layer: a bounded pending queue in rarity-priority order feeding a bounded
// set of concurrently displaying notifications.
//
// Lifecycle transitions (Queued -> Displaying -> Completed) are driven by a
// per-tick elapsed/duration check, never by timers, and transition
// callbacks are the only integration point exposed to presentation.
package notify

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chimeralabs/accolade/internal/domain/dedupe"
	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/logger"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Default notification configuration constants.
const (
	defaultPendingCapacity = 100
	defaultMaxActive       = 3
	defaultDisplayDuration = 4 * time.Second
	defaultDedupeWindow    = 10 * time.Second
)

// TransitionCallback observes every lifecycle transition. Callbacks run on the
// ticking goroutine and must not block.
type TransitionCallback func(n model.Notification)

// pendingItem is one queued notification plus its stable-ordering sequence.
type pendingItem struct {
	notification model.Notification
	seq          uint64
}

// pendingHeap is a max-heap by priority; ties break by enqueue order.
type pendingHeap []*pendingItem

func (h pendingHeap) Len() int { return len(h) }
func (h pendingHeap) Less(i, j int) bool {
	if h[i].notification.Priority != h[j].notification.Priority {
		return h[i].notification.Priority > h[j].notification.Priority
	}
	return h[i].seq < h[j].seq
}
func (h pendingHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *pendingHeap) Push(x any)        { *h = append(*h, x.(*pendingItem)) }
func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// activeItem tracks display progress for one active notification.
type activeItem struct {
	notification model.Notification
	elapsed      time.Duration
}

// Queue is the bounded notification queue plus active set.
type Queue struct {
	mu sync.Mutex

	pending  pendingHeap
	active   []*activeItem
	seq      uint64
	degraded bool

	pendingCapacity int
	maxActive       int
	displayDuration time.Duration

	deduper  dedupe.Deduper
	callback TransitionCallback
	now      func() time.Time
	logger   logger.Logger
}

// Option applies a configuration option to the Queue.
type Option func(*Queue)

// WithPendingCapacity bounds the pending queue.
func WithPendingCapacity(capacity int) Option {
	return func(q *Queue) {
		if capacity > 0 {
			q.pendingCapacity = capacity
		}
	}
}

// WithMaxActive bounds the concurrently displaying set.
func WithMaxActive(maxActive int) Option {
	return func(q *Queue) {
		if maxActive > 0 {
			q.maxActive = maxActive
		}
	}
}

// WithDisplayDuration sets how long a notification stays in Displaying.
func WithDisplayDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.displayDuration = d
		}
	}
}

// WithDedupeWindow sets the duplicate-suppression window.
func WithDedupeWindow(window time.Duration) Option {
	return func(q *Queue) {
		if window > 0 {
			q.deduper = dedupe.NewInMemoryDeduper(dedupe.WithWindow(window))
		}
	}
}

// WithTransitionCallback registers the presentation-layer callback.
func WithTransitionCallback(cb TransitionCallback) Option {
	return func(q *Queue) {
		if cb != nil {
			q.callback = cb
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger sets a custom logger for the queue.
func WithLogger(l logger.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// New creates a notification queue with configuration options.
func New(opts ...Option) *Queue {
	q := &Queue{
		pendingCapacity: defaultPendingCapacity,
		maxActive:       defaultMaxActive,
		displayDuration: defaultDisplayDuration,
		deduper:         dedupe.NewInMemoryDeduper(dedupe.WithWindow(defaultDedupeWindow)),
		now:             time.Now,
		logger:          logger.Get().Named("notify"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	heap.Init(&q.pending)
	return q
}

// Enqueue adds a completion notification for a player. Returns false when
// the notification was suppressed (duplicate in window), the pending queue
// is full, or the stage is degraded (fail closed for writes).
func (q *Queue) Enqueue(ctx context.Context, def model.AchievementDefinition, playerID string, bundle *model.RewardBundle) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.degraded {
		metrics.RecordNotificationDropped()
		metrics.RecordErrorByComponent("notify", "degraded")
		return false
	}

	dedupeKey := playerID + "/" + def.ID
	if q.deduper.SeenAndRecord(ctx, dedupeKey) {
		metrics.RecordNotificationDeduped()
		return false
	}

	if q.pending.Len() >= q.pendingCapacity {
		q.deduper.Unrecord(ctx, dedupeKey)
		metrics.RecordNotificationDropped()
		metrics.RecordErrorByComponent("notify", "pending_full")
		return false
	}

	n := model.Notification{
		ID:          uuid.NewString(),
		Achievement: def,
		Bundle:      bundle,
		Status:      model.NotificationQueued,
		Priority:    def.Rarity.Priority(),
		EnqueuedAt:  q.now(),
	}
	q.seq++
	heap.Push(&q.pending, &pendingItem{notification: n, seq: q.seq})

	metrics.RecordNotificationEnqueued()
	metrics.UpdateNotificationsPending(q.pending.Len())
	return true
}

// Tick advances display timers and promotes pending notifications while the
// active set has capacity. Called by the orchestrator's scheduler.
func (q *Queue) Tick(ctx context.Context, delta time.Duration) {
	q.mu.Lock()

	// Expire active notifications whose display duration elapsed.
	var completed []model.Notification
	remaining := q.active[:0]
	for _, item := range q.active {
		item.elapsed += delta
		if item.elapsed >= q.displayDuration {
			item.notification.Status = model.NotificationCompleted
			item.notification.DoneAt = q.now()
			completed = append(completed, item.notification)
			metrics.RecordNotificationCompleted()
			continue
		}
		remaining = append(remaining, item)
	}
	q.active = remaining

	// Promote in priority order while capacity allows.
	var shown []model.Notification
	for len(q.active) < q.maxActive && q.pending.Len() > 0 {
		item := heap.Pop(&q.pending).(*pendingItem)
		item.notification.Status = model.NotificationDisplaying
		item.notification.ShownAt = q.now()
		q.active = append(q.active, &activeItem{notification: item.notification})
		shown = append(shown, item.notification)
	}

	metrics.UpdateNotificationsActive(len(q.active))
	metrics.UpdateNotificationsPending(q.pending.Len())
	cb := q.callback
	q.mu.Unlock()

	// Callbacks fire outside the lock; presentation must never re-enter.
	if cb != nil {
		for _, n := range completed {
			cb(n)
		}
		for _, n := range shown {
			cb(n)
		}
	}

	if len(completed) > 0 || len(shown) > 0 {
		q.logger.Debug(ctx, "notifications ticked",
			logger.Int("completed", len(completed)),
			logger.Int("shown", len(shown)),
		)
	}
}

// Flush completes every active and pending notification immediately.
// Used on shutdown so admitted notifications are drained, not discarded.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	var completed []model.Notification
	for _, item := range q.active {
		item.notification.Status = model.NotificationCompleted
		item.notification.DoneAt = q.now()
		completed = append(completed, item.notification)
		metrics.RecordNotificationCompleted()
	}
	q.active = nil
	for q.pending.Len() > 0 {
		item := heap.Pop(&q.pending).(*pendingItem)
		item.notification.Status = model.NotificationCompleted
		item.notification.DoneAt = q.now()
		completed = append(completed, item.notification)
		metrics.RecordNotificationCompleted()
	}
	metrics.UpdateNotificationsActive(0)
	metrics.UpdateNotificationsPending(0)
	cb := q.callback
	q.mu.Unlock()

	if cb != nil {
		for _, n := range completed {
			cb(n)
		}
	}
	q.logger.Info(ctx, "notification queue flushed", logger.Int("drained", len(completed)))
}

// SetDegraded flips the fail-closed write gate.
func (q *Queue) SetDegraded(degraded bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.degraded = degraded
}

// Active returns copies of the currently displaying notifications.
func (q *Queue) Active() []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Notification, len(q.active))
	for i, item := range q.active {
		out[i] = item.notification
	}
	return out
}

// ActiveLen returns the size of the active set.
func (q *Queue) ActiveLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

// PendingLen returns the size of the pending queue.
func (q *Queue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}
