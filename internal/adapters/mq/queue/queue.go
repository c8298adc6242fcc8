// Package queue provides the bounded ingestion queue for admitted events.
//
// Producers never block: when the queue is at capacity the event is dropped
// and counted. The batch processor drains the queue on its tick.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1000
)

// Event represents the payload type flowing through the queue.
// Using the model.GameEvent type for type safety.
type Event = model.GameEvent

// Queue provides non-blocking enqueue and tick-driven drain semantics.
type Queue interface {
	// Enqueue adds an event to the queue.
	// Returns false if the queue is full and the event was dropped.
	Enqueue(ctx context.Context, e Event) bool

	// Drain removes and returns up to max events in arrival order.
	// Returns nil when the queue is empty.
	Drain(ctx context.Context, max int) []Event

	// Len returns the current number of queued events.
	Len(ctx context.Context) int

	// Dropped returns the total number of events dropped at capacity.
	Dropped() uint64

	// Close gracefully shuts down the queue.
	// After closing, no new events can be enqueued; Drain keeps working so
	// shutdown can flush events already admitted.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int
	dropped  atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Event, q.capacity)

	// Initialize metrics
	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds an event to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.dropped.Add(1)
		metrics.RecordEventDropped()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.events <- e:
		metrics.RecordEventAdmitted()
		q.observeSize()
		return true
	case <-ctx.Done():
		q.dropped.Add(1)
		metrics.RecordEventDropped()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		q.dropped.Add(1)
		metrics.RecordEventDropped()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Drain removes up to max events without blocking.
func (q *InMemoryQueue) Drain(ctx context.Context, max int) []Event {
	if max <= 0 {
		return nil
	}

	var out []Event
	for len(out) < max {
		select {
		case e, ok := <-q.events:
			if !ok {
				q.observeSize()
				return out
			}
			out = append(out, e)
		case <-ctx.Done():
			q.observeSize()
			return out
		default:
			q.observeSize()
			return out
		}
	}
	q.observeSize()
	return out
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.events)
	return size
}

// Dropped returns the total number of events dropped at capacity.
func (q *InMemoryQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the events channel; Drain still consumes whatever is buffered.
	close(q.events)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observeSize() {
	currentSize := len(q.events)
	metrics.UpdateQueueSize(currentSize)
	metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
}
