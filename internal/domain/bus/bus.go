// Package bus provides a typed publish/subscribe mechanism for gameplay
// events. Producers publish; the pipeline subscribes. The bus carries no
// logic beyond dispatch and exists so producers never hold references to
// pipeline internals.
package bus

import (
	"context"
	"sync"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// Handler receives a published event. Handlers must not block; the bus
// dispatches synchronously on the publisher's goroutine.
type Handler func(ctx context.Context, e model.GameEvent)

// EventBus dispatches gameplay events to subscribers by event type.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	byType map[string]map[int]Handler
	all    map[int]Handler
}

// New creates an empty event bus.
func New() *EventBus {
	return &EventBus{
		byType: make(map[string]map[int]Handler),
		all:    make(map[int]Handler),
	}
}

// Subscribe registers a handler for one event type and returns an
// unsubscribe function. Unsubscribing twice is harmless.
func (b *EventBus) Subscribe(eventType string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.byType[eventType] == nil {
		b.byType[eventType] = make(map[int]Handler)
	}
	b.byType[eventType][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.byType[eventType]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.byType, eventType)
			}
		}
	}
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish dispatches an event to type-specific subscribers first, then to
// catch-all subscribers. Dispatch order within a set is unspecified.
func (b *EventBus) Publish(ctx context.Context, e model.GameEvent) {
	b.mu.RLock()
	typed := make([]Handler, 0, len(b.byType[e.Type]))
	for _, h := range b.byType[e.Type] {
		typed = append(typed, h)
	}
	catchAll := make([]Handler, 0, len(b.all))
	for _, h := range b.all {
		catchAll = append(catchAll, h)
	}
	b.mu.RUnlock()

	for _, h := range typed {
		h(ctx, e)
	}
	for _, h := range catchAll {
		h(ctx, e)
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.all)
	for _, handlers := range b.byType {
		n += len(handlers)
	}
	return n
}

// Reset removes every subscription. Called on orchestrator teardown so
// restarts never leak handlers from a previous run.
func (b *EventBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType = make(map[string]map[int]Handler)
	b.all = make(map[int]Handler)
}
