// Package service provides the orchestrator that wires the achievement
// pipeline together and implements the dependencies required by the HTTP
// API.
//
// The orchestrator owns a registry of named pipeline stages, each with a
// small state machine (uninitialized -> initializing -> healthy <->
// degraded -> shutting down -> shutdown). All periodic work rides on an
// external Tick: batch drains, reward retries, notification timers, cron
// resets, health sweeps and saves accumulate elapsed time instead of
// running their own timers.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chimeralabs/accolade/internal/adapters/mq/batch"
	"github.com/chimeralabs/accolade/internal/adapters/mq/filter"
	eventqueue "github.com/chimeralabs/accolade/internal/adapters/mq/queue"
	"github.com/chimeralabs/accolade/internal/adapters/notify"
	"github.com/chimeralabs/accolade/internal/adapters/repository"
	"github.com/chimeralabs/accolade/internal/domain/bus"
	"github.com/chimeralabs/accolade/internal/domain/catalog"
	"github.com/chimeralabs/accolade/internal/domain/model"
	"github.com/chimeralabs/accolade/internal/domain/progress"
	"github.com/chimeralabs/accolade/internal/domain/recognition"
	"github.com/chimeralabs/accolade/internal/domain/reward"
	"github.com/chimeralabs/accolade/internal/domain/types"
	"github.com/chimeralabs/accolade/pkg/logger"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// Pipeline stage names, in initialization order.
const (
	StageFilter      = "filter"
	StageQueue       = "queue"
	StageBatch       = "batch"
	StageProgress    = "progress"
	StageReward      = "reward"
	StageRecognition = "recognition"
	StageNotify      = "notify"
	StagePersistence = "persistence"
)

var stageOrder = []string{
	StageFilter,
	StageQueue,
	StageBatch,
	StageProgress,
	StageReward,
	StageRecognition,
	StageNotify,
	StagePersistence,
}

// StageState is one stage's position in its lifecycle.
type StageState string

// Stage lifecycle states.
const (
	StateUninitialized StageState = "uninitialized"
	StateInitializing  StageState = "initializing"
	StateHealthy       StageState = "healthy"
	StateDegraded      StageState = "degraded"
	StateShuttingDown  StageState = "shutting_down"
	StateShutdown      StageState = "shutdown"
)

// Default orchestrator configuration constants.
const (
	defaultHealthInterval   = 30 * time.Second
	defaultSaveInterval     = 60 * time.Second
	defaultCommandQueueSize = 64
	defaultCommandsPerTick  = 16
	defaultReinitAttempts   = 3
	defaultReinitTimeout    = 5 * time.Second
	defaultRewardRetries    = 3
)

// CompletionCallback observes every completion after its reward bundle is
// computed. Callbacks run on the ticking goroutine and must not block.
type CompletionCallback func(ctx context.Context, def model.AchievementDefinition, playerID string, bundle model.RewardBundle)

// stage is one registry entry.
type stage struct {
	name         string
	state        StageState
	lastActivity time.Time
	attempts     int
	initErr      error
	probe        func(ctx context.Context) error
	reinit       func(ctx context.Context) error
}

// commandKind discriminates queued control commands.
type commandKind int

const (
	cmdRecordEvent commandKind = iota
	cmdForceSave
	cmdHealthCheck
)

type command struct {
	kind  commandKind
	event model.GameEvent
}

// pendingCompletion is a completion whose reward computation has not
// succeeded yet.
type pendingCompletion struct {
	completion progress.Completion
	attempts   int
}

// Service orchestrates the achievement pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	eventBus   *bus.EventBus
	filter     *filter.EventFilter
	eventQueue *eventqueue.InMemoryQueue
	batch      *batch.Processor
	tracker    *progress.Tracker
	calculator *reward.Calculator
	profiles   *recognition.Tracker
	notifier   *notify.Queue
	store      repository.Store
	catalog    *catalog.Catalog

	// Stage registry
	stages map[string]*stage

	// Command queue
	commands        chan command
	commandsPerTick int

	// Completion fan-out
	completions  []progress.Completion
	pendingMu    sync.Mutex
	pendingRew   []pendingCompletion
	callbacks    []CompletionCallback
	rewardTries  int
	unsubscribe  func()

	// Configuration
	queueCapacity     int
	batchInterval     time.Duration
	batchDrainLimit   int
	rateLimit         float64
	blockedTypes      []string
	maxActive         int
	pendingCapacity   int
	displayDuration   time.Duration
	dedupeWindow      time.Duration
	healthInterval    time.Duration
	saveInterval      time.Duration
	reinitAttempts    int
	reinitTimeout     time.Duration
	rewardOpts        []reward.Option
	probeOverrides    map[string]func(ctx context.Context) error
	initOverrides     map[string]func(ctx context.Context) error

	// Accumulated tick time
	healthElapsed time.Duration
	saveElapsed   time.Duration
	healthDue     bool

	// State
	started  bool
	stopping bool
	now      func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEventBus injects a shared event bus. Tests use this to publish
// directly and to reset subscriptions between scenarios.
func WithEventBus(b *bus.EventBus) Option {
	return func(s *Service) {
		if b != nil {
			s.eventBus = b
		}
	}
}

// WithStore injects the persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog injects the achievement catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithQueueCapacity bounds the event ingestion queue.
func WithQueueCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithBatchInterval sets the accumulated interval between batch drains.
func WithBatchInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.batchInterval = interval
		}
	}
}

// WithBatchDrainLimit caps how many events one batch drain may take.
func WithBatchDrainLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.batchDrainLimit = limit
		}
	}
}

// WithRateLimit caps admissions per (event type, player) pair per second.
func WithRateLimit(perSecond float64) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.rateLimit = perSecond
		}
	}
}

// WithBlockedEventTypes lists event types rejected outright.
func WithBlockedEventTypes(eventTypes ...string) Option {
	return func(s *Service) {
		s.blockedTypes = eventTypes
	}
}

// WithMaxActiveNotifications bounds concurrently displaying notifications.
func WithMaxActiveNotifications(maxActive int) Option {
	return func(s *Service) {
		if maxActive > 0 {
			s.maxActive = maxActive
		}
	}
}

// WithNotificationPendingCapacity bounds the pending notification queue.
func WithNotificationPendingCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.pendingCapacity = capacity
		}
	}
}

// WithNotificationDisplayDuration sets how long notifications are shown.
func WithNotificationDisplayDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.displayDuration = d
		}
	}
}

// WithNotificationDedupeWindow sets the duplicate-suppression window.
func WithNotificationDedupeWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.dedupeWindow = window
		}
	}
}

// WithHealthCheckInterval sets the accumulated interval between sweeps.
func WithHealthCheckInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.healthInterval = interval
		}
	}
}

// WithSaveInterval sets the accumulated interval between periodic saves.
func WithSaveInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.saveInterval = interval
		}
	}
}

// WithReinitAttempts bounds reinitialization retries for a failed stage.
func WithReinitAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts >= 0 {
			s.reinitAttempts = attempts
		}
	}
}

// WithReinitTimeout bounds each reinitialization attempt.
func WithReinitTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.reinitTimeout = timeout
		}
	}
}

// WithCommandQueueSize bounds the orchestrator command queue.
func WithCommandQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.commands = make(chan command, size)
		}
	}
}

// WithCommandsPerTick caps how many queued commands one tick drains.
func WithCommandsPerTick(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.commandsPerTick = n
		}
	}
}

// WithRewardOptions forwards options to the reward calculator.
func WithRewardOptions(opts ...reward.Option) Option {
	return func(s *Service) {
		s.rewardOpts = append(s.rewardOpts, opts...)
	}
}

// WithStageProbe overrides one stage's health probe. Tests use this to
// inject failures.
func WithStageProbe(name string, probe func(ctx context.Context) error) Option {
	return func(s *Service) {
		s.probeOverrides[name] = probe
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueCapacity:   1000,
		batchInterval:   100 * time.Millisecond,
		batchDrainLimit: 50,
		rateLimit:       10,
		maxActive:       3,
		pendingCapacity: 100,
		displayDuration: 4 * time.Second,
		dedupeWindow:    10 * time.Second,
		healthInterval:  defaultHealthInterval,
		saveInterval:    defaultSaveInterval,
		reinitAttempts:  defaultReinitAttempts,
		reinitTimeout:   defaultReinitTimeout,
		rewardTries:     defaultRewardRetries,
		commandsPerTick: defaultCommandsPerTick,
		commands:        make(chan command, defaultCommandQueueSize),
		probeOverrides:  make(map[string]func(ctx context.Context) error),
		now:             time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// trackerSink adapts the progress tracker to the batch processor's sink
// and collects completions for the fan-out step of the same tick.
type trackerSink struct {
	svc *Service
}

func (a *trackerSink) ApplyBatch(ctx context.Context, playerID string, events []batch.Event) {
	completed := a.svc.tracker.ApplyBatch(ctx, playerID, events)
	if len(completed) == 0 {
		return
	}
	a.svc.pendingMu.Lock()
	a.svc.completions = append(a.svc.completions, completed...)
	a.svc.pendingMu.Unlock()
}

// Start initializes and starts the pipeline stages in order.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting achievement service...")

	s.stages = make(map[string]*stage, len(stageOrder))
	for _, name := range stageOrder {
		s.stages[name] = &stage{name: name, state: StateUninitialized}
	}

	if s.catalog == nil {
		c, err := catalog.New(catalog.WithDefaults())
		if err != nil {
			return fmt.Errorf("build catalog: %w", err)
		}
		s.catalog = c
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.eventBus == nil {
		s.eventBus = bus.New()
	}

	now := s.now()
	for _, name := range stageOrder {
		st := s.stages[name]
		st.state = StateInitializing
		if err := s.initStage(ctx, name); err != nil {
			// A failed stage degrades instead of aborting startup; the
			// health sweep drives its bounded reinit.
			st.state = StateDegraded
			st.initErr = err
			if st.reinit == nil {
				stageName := name
				st.reinit = func(ctx context.Context) error {
					if rerr := s.initStage(ctx, stageName); rerr != nil {
						return rerr
					}
					s.stages[stageName].initErr = nil
					return nil
				}
			}
			metrics.UpdateStageHealth(name, false)
			s.logger.Error(ctx, "stage initialization failed, starting degraded",
				logger.String("stage", name),
				logger.Error(err),
			)
			continue
		}
		st.state = StateHealthy
		st.lastActivity = now
		metrics.UpdateStageHealth(name, true)
	}

	// Restore persisted progress, then rebuild recognition by replaying
	// completed records against the catalog.
	if err := s.restore(ctx); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	// Events published on the bus flow through filter and ingestion queue.
	s.unsubscribe = s.eventBus.SubscribeAll(func(ctx context.Context, e model.GameEvent) {
		if !s.filter.Admit(ctx, e) {
			return
		}
		s.eventQueue.Enqueue(ctx, e)
	})

	metrics.UpdateQueueCapacity(s.queueCapacity)
	s.healthDue = false
	s.started = true
	s.logger.Info(ctx, "achievement service started",
		logger.Int("achievements", s.catalog.Len()),
		logger.Int("queueCapacity", s.queueCapacity),
		logger.Int("trackedRecords", s.tracker.Count()),
	)
	return nil
}

// initStage builds the component behind one registry entry and installs
// its probe and reinit hooks.
func (s *Service) initStage(ctx context.Context, name string) error {
	if fault, ok := s.initOverrides[name]; ok && fault != nil {
		if err := fault(ctx); err != nil {
			return err
		}
	}

	switch name {
	case StageFilter:
		s.filter = filter.New(
			filter.WithBlockedTypes(s.blockedTypes...),
			filter.WithMaxEventsPerSecond(s.rateLimit),
		)
	case StageQueue:
		s.eventQueue = eventqueue.NewInMemoryQueue(
			eventqueue.WithCapacity(s.queueCapacity),
		)
		st := s.stages[name]
		st.probe = func(ctx context.Context) error {
			if s.eventQueue.IsClosed() {
				return errors.New("ingestion queue closed")
			}
			return nil
		}
		st.reinit = func(ctx context.Context) error {
			s.eventQueue = eventqueue.NewInMemoryQueue(
				eventqueue.WithCapacity(s.queueCapacity),
			)
			s.batch = batch.New(s.eventQueue, &trackerSink{svc: s},
				batch.WithTickInterval(s.batchInterval),
				batch.WithDrainLimit(s.batchDrainLimit),
			)
			return nil
		}
	case StageBatch:
		s.batch = batch.New(s.eventQueue, &trackerSink{svc: s},
			batch.WithTickInterval(s.batchInterval),
			batch.WithDrainLimit(s.batchDrainLimit),
		)
	case StageProgress:
		s.tracker = progress.NewTracker(s.catalog, progress.WithClock(s.now))
	case StageReward:
		opts := []reward.Option{
			reward.WithRandSource(rand.New(rand.NewSource(s.now().UnixNano()))), //nolint:gosec // gameplay randomness, not crypto
			reward.WithClock(s.now),
		}
		opts = append(opts, s.rewardOpts...)
		s.calculator = reward.NewCalculator(opts...)
	case StageRecognition:
		s.profiles = recognition.NewTracker(recognition.WithClock(s.now))
	case StageNotify:
		s.notifier = notify.New(
			notify.WithMaxActive(s.maxActive),
			notify.WithPendingCapacity(s.pendingCapacity),
			notify.WithDisplayDuration(s.displayDuration),
			notify.WithDedupeWindow(s.dedupeWindow),
			notify.WithClock(s.now),
		)
		st := s.stages[name]
		st.reinit = func(ctx context.Context) error {
			s.notifier.SetDegraded(false)
			return nil
		}
	case StagePersistence:
		st := s.stages[name]
		st.probe = func(ctx context.Context) error {
			_, err := s.store.LoadSnapshot(ctx)
			if err != nil && !errors.Is(err, repository.ErrNoSnapshot) {
				return err
			}
			return nil
		}
	default:
		return fmt.Errorf("unknown stage %q", name)
	}

	if probe, ok := s.probeOverrides[name]; ok {
		s.stages[name].probe = probe
	}
	return nil
}

// restore loads the last snapshot and replays completed records into the
// recognition tracker.
func (s *Service) restore(ctx context.Context) error {
	snap, err := s.store.LoadSnapshot(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return err
	}

	s.tracker.Restore(snap.Progress)
	for i := range snap.Progress {
		rec := &snap.Progress[i]
		if !rec.Completed {
			continue
		}
		if def := s.catalog.ByID(rec.Key.AchievementID); def != nil {
			s.profiles.RecordCompletion(ctx, def, rec.Key.PlayerID)
		}
	}
	s.logger.Info(ctx, "snapshot restored",
		logger.Int("records", len(snap.Progress)),
		logger.Any("savedAt", snap.SavedAt),
	)
	return nil
}

// Stop gracefully shuts down the pipeline: stop admitting, flush queued
// events through progress and rewards, drain notifications, save.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.stopping = true
	for _, name := range stageOrder {
		s.stages[name].state = StateShuttingDown
	}
	s.logger.Info(ctx, "stopping achievement service...")

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	_ = s.eventQueue.Close()

	// Push everything still queued through the pipeline.
	s.drainCommandsLocked(ctx, len(s.commands))
	s.batch.Flush(ctx)
	s.processCompletionsLocked(ctx)
	s.notifier.Flush(ctx)
	s.saveLocked(ctx)

	for _, name := range stageOrder {
		s.stages[name].state = StateShutdown
		metrics.UpdateStageHealth(name, false)
	}
	s.started = false
	s.stopping = false
	s.logger.Info(ctx, "achievement service stopped")
}

// RecordEvent submits a game event for asynchronous processing via the
// command queue. The event reaches the ingestion queue on the next tick.
func (s *Service) RecordEvent(ctx context.Context, e model.GameEvent) error {
	s.mu.RLock()
	started, stopping := s.started, s.stopping
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if stopping {
		return ErrShuttingDown
	}
	return s.submit(ctx, command{kind: cmdRecordEvent, event: e})
}

// ForceSave queues a snapshot save, drained on the next tick.
func (s *Service) ForceSave(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return s.submit(ctx, command{kind: cmdForceSave})
}

// ForceHealthCheck queues a health sweep, drained on the next tick.
func (s *Service) ForceHealthCheck(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return s.submit(ctx, command{kind: cmdHealthCheck})
}

func (s *Service) submit(ctx context.Context, cmd command) error {
	select {
	case s.commands <- cmd:
		metrics.UpdateCommandQueueDepth(len(s.commands))
		return nil
	default:
		metrics.RecordCommandDropped()
		s.logger.Warn(ctx, "command queue full, dropping command",
			logger.Int("kind", int(cmd.kind)),
		)
		return ErrCommandQueueFull
	}
}

// Tick advances the whole pipeline by delta. The caller owns the schedule;
// the service never runs its own timers. Health probes run after the lock
// is released so a slow probe cannot stall ingestion or queries.
func (s *Service) Tick(ctx context.Context, delta time.Duration) {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return
	}

	s.drainCommandsLocked(ctx, s.commandsPerTick)
	s.batch.Tick(ctx, delta)
	s.processCompletionsLocked(ctx)
	s.tracker.Tick(ctx, s.now())
	s.notifier.Tick(ctx, delta)

	s.healthElapsed += delta
	runHealth := s.healthDue
	s.healthDue = false
	if s.healthElapsed >= s.healthInterval {
		s.healthElapsed = 0
		runHealth = true
	}

	s.saveElapsed += delta
	if s.saveElapsed >= s.saveInterval {
		s.saveElapsed = 0
		s.saveLocked(ctx)
	}
	s.mu.Unlock()

	if runHealth {
		s.runHealthChecks(ctx)
	}
}

func (s *Service) drainCommandsLocked(ctx context.Context, limit int) {
	for i := 0; i < limit; i++ {
		select {
		case cmd := <-s.commands:
			switch cmd.kind {
			case cmdRecordEvent:
				s.eventBus.Publish(ctx, cmd.event)
			case cmdForceSave:
				s.saveLocked(ctx)
			case cmdHealthCheck:
				// Probes must not run under the lock; the sweep happens
				// at the end of this tick.
				s.healthDue = true
			}
			metrics.RecordCommandProcessed()
		default:
			metrics.UpdateCommandQueueDepth(len(s.commands))
			return
		}
	}
	metrics.UpdateCommandQueueDepth(len(s.commands))
}

// processCompletionsLocked runs the completion fan-out: failed reward
// computations from earlier ticks first, then this tick's completions in
// arrival order.
func (s *Service) processCompletionsLocked(ctx context.Context) {
	s.pendingMu.Lock()
	work := s.pendingRew
	s.pendingRew = nil
	for _, c := range s.completions {
		work = append(work, pendingCompletion{completion: c})
	}
	s.completions = nil
	s.pendingMu.Unlock()

	for _, pc := range work {
		c := pc.completion
		playerID := c.Progress.Key.PlayerID

		started := s.now()
		bundle, err := s.computeReward(ctx, c.Definition, playerID)
		if err != nil {
			metrics.RecordRewardError()
			pc.attempts++
			if pc.attempts <= s.rewardTries {
				metrics.RecordRewardRetry()
				s.pendingMu.Lock()
				s.pendingRew = append(s.pendingRew, pc)
				s.pendingMu.Unlock()
			} else {
				s.logger.Error(ctx, "reward computation abandoned",
					logger.String("achievementID", c.Definition.ID),
					logger.String("playerID", playerID),
					logger.Error(err),
				)
				metrics.RecordErrorByComponent("reward", "abandoned")
			}
			continue
		}
		metrics.RecordRewardLatency(float64(s.now().Sub(started).Milliseconds()))

		if err := s.store.AppendReward(ctx, bundle); err != nil {
			s.logger.Error(ctx, "append reward failed",
				logger.String("bundleID", bundle.ID),
				logger.Error(err),
			)
			metrics.RecordErrorByComponent("persistence", "append_reward")
		}

		s.profiles.RecordCompletion(ctx, c.Definition, playerID)
		s.notifier.Enqueue(ctx, *c.Definition, playerID, &bundle)

		s.pendingMu.Lock()
		callbacks := make([]CompletionCallback, len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.pendingMu.Unlock()
		for _, cb := range callbacks {
			cb(ctx, *c.Definition, playerID, bundle)
		}

		s.logger.Info(ctx, "achievement completed",
			logger.String("achievementID", c.Definition.ID),
			logger.String("playerID", playerID),
			logger.Int64("currency", bundle.Currency),
			logger.Int64("experience", bundle.Experience),
		)
	}
}

// computeReward guards the calculator against faults in its injected
// collaborators. The multiplier source fronts external systems, so a
// panic there must surface as a failed computation that the fan-out
// retries next tick instead of killing the tick loop.
func (s *Service) computeReward(ctx context.Context, def *model.AchievementDefinition, playerID string) (bundle model.RewardBundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRewardFault, r)
		}
	}()
	return s.calculator.Compute(ctx, def, playerID)
}

// runHealthChecks probes every stage, degrading and reinitializing as
// needed. Reinit attempts are bounded per degradation episode. Probes run
// against a snapshot of the registry without the service lock, so a slow
// store probe cannot stall the hot path; transitions and reinits reacquire
// the lock and re-check stage state against the probe results.
func (s *Service) runHealthChecks(ctx context.Context) {
	metrics.RecordHealthCheck()

	type probeTask struct {
		name    string
		initErr error
		probe   func(ctx context.Context) error
	}
	s.mu.RLock()
	tasks := make([]probeTask, 0, len(stageOrder))
	for _, name := range stageOrder {
		st := s.stages[name]
		if st.state != StateHealthy && st.state != StateDegraded {
			continue
		}
		tasks = append(tasks, probeTask{name: name, initErr: st.initErr, probe: st.probe})
	}
	s.mu.RUnlock()

	results := make(map[string]error, len(tasks))
	for _, task := range tasks {
		switch {
		case task.initErr != nil:
			results[task.name] = task.initErr
		case task.probe != nil:
			results[task.name] = task.probe(ctx)
		default:
			results[task.name] = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	for _, task := range tasks {
		name := task.name
		st := s.stages[name]
		if st.state != StateHealthy && st.state != StateDegraded {
			continue
		}

		err := results[name]
		if err == nil {
			if st.state == StateDegraded {
				s.logger.Info(ctx, "stage recovered", logger.String("stage", name))
				if name == StageNotify {
					s.notifier.SetDegraded(false)
				}
			}
			st.state = StateHealthy
			st.attempts = 0
			st.lastActivity = now
			metrics.UpdateStageHealth(name, true)
			continue
		}

		if st.state != StateDegraded {
			s.logger.Warn(ctx, "stage degraded",
				logger.String("stage", name),
				logger.Error(err),
			)
		}
		st.state = StateDegraded
		metrics.UpdateStageHealth(name, false)
		if name == StageNotify {
			s.notifier.SetDegraded(true)
		}

		if st.reinit == nil || st.attempts >= s.reinitAttempts {
			continue
		}
		st.attempts++
		metrics.RecordStageReinit(name)

		reinitCtx, cancel := context.WithTimeout(ctx, s.reinitTimeout)
		reinitErr := st.reinit(reinitCtx)
		cancel()
		if reinitErr != nil {
			s.logger.Error(ctx, "stage reinitialization failed",
				logger.String("stage", name),
				logger.Int("attempt", st.attempts),
				logger.Error(reinitErr),
			)
			continue
		}
		if st.probe == nil || st.probe(ctx) == nil {
			st.state = StateHealthy
			st.attempts = 0
			st.lastActivity = now
			metrics.UpdateStageHealth(name, true)
			if name == StageNotify {
				s.notifier.SetDegraded(false)
			}
			s.logger.Info(ctx, "stage reinitialized", logger.String("stage", name))
		}
	}
}

// saveLocked snapshots progress state to the store.
func (s *Service) saveLocked(ctx context.Context) {
	metrics.RecordSaveRequested()
	started := s.now()

	snap := repository.Snapshot{
		SavedAt:  started,
		Progress: s.tracker.Snapshot(),
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		metrics.RecordSaveError()
		s.logger.Error(ctx, "snapshot save failed", logger.Error(err))
		// Retried on the next save interval; progress stays in memory.
		return
	}
	metrics.RecordSaveLatency(float64(s.now().Sub(started).Milliseconds()))
	s.logger.Debug(ctx, "snapshot saved", logger.Int("records", len(snap.Progress)))
}

// RegisterCompletionCallback adds a callback to the completion fan-out.
func (s *Service) RegisterCompletionCallback(cb CompletionCallback) {
	if cb == nil {
		return
	}
	s.pendingMu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.pendingMu.Unlock()
}

// GetProgress returns one player's progress toward one achievement. A pair
// with no record yet reads as zero progress, matching the lazy-creation
// semantics of the tracker.
func (s *Service) GetProgress(_ context.Context, playerID, achievementID string) (types.ProgressEntry, error) {
	def := s.catalog.ByID(achievementID)
	if def == nil {
		return types.ProgressEntry{}, ErrUnknownAchievement
	}

	entry := types.ProgressEntry{
		PlayerID:      playerID,
		AchievementID: achievementID,
		Target:        def.Target,
	}
	rec, ok := s.tracker.Get(model.ProgressKey{PlayerID: playerID, AchievementID: achievementID})
	if !ok {
		return entry, nil
	}
	entry.Current = rec.Current
	entry.Completed = rec.Completed
	entry.StartedAt = rec.StartedAt
	entry.UpdatedAt = rec.UpdatedAt
	if rec.Completed {
		done := rec.CompletedAt
		entry.CompletedAt = &done
	}
	return entry, nil
}

// GetPlayerProgress returns all progress records for a player.
func (s *Service) GetPlayerProgress(_ context.Context, playerID string) []types.ProgressEntry {
	records := s.tracker.PlayerProgress(playerID)
	out := make([]types.ProgressEntry, 0, len(records))
	for i := range records {
		rec := &records[i]
		def := s.catalog.ByID(rec.Key.AchievementID)
		if def == nil {
			continue
		}
		entry := types.ProgressEntry{
			PlayerID:      playerID,
			AchievementID: rec.Key.AchievementID,
			Current:       rec.Current,
			Target:        def.Target,
			Completed:     rec.Completed,
			StartedAt:     rec.StartedAt,
			UpdatedAt:     rec.UpdatedAt,
		}
		if rec.Completed {
			done := rec.CompletedAt
			entry.CompletedAt = &done
		}
		out = append(out, entry)
	}
	return out
}

// GetPlayerTotals aggregates a player's lifetime completions and rewards.
func (s *Service) GetPlayerTotals(ctx context.Context, playerID string) types.PlayerTotals {
	totals := types.PlayerTotals{PlayerID: playerID}
	if profile, ok := s.profiles.Profile(playerID); ok {
		totals.CompletedCount = profile.CompletedCount
		totals.TotalPoints = profile.TotalPoints
	}
	history, err := s.store.RewardHistory(ctx, playerID, 1<<20)
	if err == nil {
		for i := range history {
			totals.TotalValue += history[i].TotalValue
		}
	}
	return totals
}

// GetRewardHistory returns a player's reward bundles, most recent first.
func (s *Service) GetRewardHistory(ctx context.Context, playerID string, limit int) ([]types.RewardEntry, error) {
	history, err := s.store.RewardHistory(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.RewardEntry, len(history))
	for i := range history {
		b := &history[i]
		out[i] = types.RewardEntry{
			BundleID:      b.ID,
			AchievementID: b.AchievementID,
			Currency:      b.Currency,
			Experience:    b.Experience,
			ItemCount:     len(b.Items),
			Bonus:         b.Bonus,
			TotalValue:    b.TotalValue,
			ComputedAt:    b.ComputedAt,
		}
	}
	return out, nil
}

// ListAchievements returns catalog definitions visible to a player. Secret
// achievements stay hidden until that player completes them.
func (s *Service) ListAchievements(_ context.Context, playerID string) []model.AchievementDefinition {
	visible := s.catalog.Visible(func(id string) bool {
		return s.tracker.IsCompleted(playerID, id)
	})
	out := make([]model.AchievementDefinition, len(visible))
	for i, def := range visible {
		out[i] = *def
	}
	return out
}

// GetRecognition returns a player's recognition profile.
func (s *Service) GetRecognition(_ context.Context, playerID string) (recognition.Profile, bool) {
	return s.profiles.Profile(playerID)
}

// ActiveNotifications returns the currently displaying notifications.
func (s *Service) ActiveNotifications(_ context.Context) []model.Notification {
	return s.notifier.Active()
}

// GetServiceHealth returns every stage's health snapshot in pipeline order.
func (s *Service) GetServiceHealth(_ context.Context) []types.StageHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.StageHealth, 0, len(stageOrder))
	for _, name := range stageOrder {
		st, ok := s.stages[name]
		if !ok {
			out = append(out, types.StageHealth{Stage: name, State: string(StateUninitialized)})
			continue
		}
		out = append(out, types.StageHealth{
			Stage:        name,
			Healthy:      st.state == StateHealthy,
			State:        string(st.state),
			LastActivity: st.lastActivity,
		})
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"achievements":  0,
		"queueCapacity": s.queueCapacity,
	}
	if s.catalog != nil {
		stats["achievements"] = s.catalog.Len()
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["queueDropped"] = s.eventQueue.Dropped()
		stats["trackedRecords"] = s.tracker.Count()
		stats["recognizedPlayers"] = s.profiles.Count()
		stats["activeNotifications"] = s.notifier.ActiveLen()
		stats["pendingNotifications"] = s.notifier.PendingLen()
		stats["eventsAdmitted"] = s.filter.Admitted()
		stats["eventsBlocked"] = s.filter.Blocked()
		stats["eventsRateLimited"] = s.filter.RateLimited()
		stats["commandQueueDepth"] = len(s.commands)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTrackedRecords(s.tracker.Count())
		if s.queueCapacity > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(s.queueCapacity))
		}
	}

	return stats
}
