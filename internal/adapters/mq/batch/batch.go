// Package batch drains the ingestion queue on a fixed tick and hands
// per-player event groups to the progress tracker. Grouping amortizes
// per-player lookups and lets downstream stages treat a batch atomically.
package batch

import (
	"context"
	"time"

	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/pkg/logger"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Default batch configuration constants.
const (
	defaultTickInterval = 100 * time.Millisecond
	defaultDrainLimit   = 50
)

// Event abstracts what the processor reads off the queue.
type Event = model.GameEvent

// Queue defines how the processor receives events.
type Queue interface {
	Drain(ctx context.Context, max int) []Event
	Len(ctx context.Context) int
}

// Sink receives one player's events, in arrival order, per tick.
type Sink interface {
	ApplyBatch(ctx context.Context, playerID string, events []Event)
}

// Processor drains the queue on its tick and groups events by player.
type Processor struct {
	queue      Queue
	sink       Sink
	interval   time.Duration
	drainLimit int

	elapsed time.Duration

	logger logger.Logger
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithTickInterval sets the drain tick interval.
func WithTickInterval(interval time.Duration) Option {
	return func(p *Processor) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithDrainLimit sets the maximum events drained per tick.
func WithDrainLimit(limit int) Option {
	return func(p *Processor) {
		if limit > 0 {
			p.drainLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the processor.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a batch processor with configuration options.
func New(queue Queue, sink Sink, opts ...Option) *Processor {
	p := &Processor{
		queue:      queue,
		sink:       sink,
		interval:   defaultTickInterval,
		drainLimit: defaultDrainLimit,
		logger:     logger.Get().Named("batch"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Tick advances the processor's accumulator by delta and drains when a full
// interval has elapsed. Called by the orchestrator's scheduler.
func (p *Processor) Tick(ctx context.Context, delta time.Duration) {
	p.elapsed += delta
	if p.elapsed < p.interval {
		return
	}
	p.elapsed = 0
	p.ProcessOnce(ctx)
}

// ProcessOnce drains up to the configured limit and dispatches per-player
// groups. Events beyond the limit wait for the next tick; queue depth is a
// backpressure signal, not an error.
func (p *Processor) ProcessOnce(ctx context.Context) int {
	start := time.Now()

	events := p.queue.Drain(ctx, p.drainLimit)
	if len(events) == 0 {
		return 0
	}

	// Group by player, preserving arrival order within each group.
	groups := make(map[string][]Event)
	order := make([]string, 0)
	for _, e := range events {
		if _, seen := groups[e.PlayerID]; !seen {
			order = append(order, e.PlayerID)
		}
		groups[e.PlayerID] = append(groups[e.PlayerID], e)
	}

	for _, playerID := range order {
		p.sink.ApplyBatch(ctx, playerID, groups[playerID])
		metrics.RecordBatchProcessed()
	}

	metrics.RecordBatchSize(len(events))
	metrics.RecordBatchLatency(float64(time.Since(start).Milliseconds()))

	p.logger.Debug(ctx, "batch processed",
		logger.Int("events", len(events)),
		logger.Int("players", len(order)),
		logger.Int("remaining", p.queue.Len(ctx)),
	)

	return len(events)
}

// Flush drains the queue to empty, dispatching every admitted event. Used on
// shutdown so admitted events are processed, not discarded.
func (p *Processor) Flush(ctx context.Context) int {
	total := 0
	for {
		n := p.ProcessOnce(ctx)
		if n == 0 {
			return total
		}
		total += n
	}
}
