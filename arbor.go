package arbor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/fsm"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/timer"
	"github.com/prometheus/client_golang/prometheus"
)

// Version is the release of the arbor module.
const Version = "0.1.0"

// TimerManagerName is the name under which the system timer manager is registered.
const TimerManagerName = "timers"

// System is the high-level entry point of the library.
// It owns an actor registry with a running timer manager, and wires logging, metrics
// and event streaming into every machine it spawns.
type System struct {
	registry *registry.Registry
	timers   *timer.Manager
	metrics  *observability.Metrics
	feed     *observability.Feed
	hooks    []domain.LifecycleHooks
	logger   *slog.Logger

	registerer prometheus.Registerer
	feedBuffer int
	logHooks   bool
}

// Option defines a functional option for configuring the System.
type Option func(*System)

// WithLogger sets a custom structured logger for the system and everything it spawns.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every spawned machine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *System) {
		s.hooks = append(s.hooks, hooks)
	}
}

// WithLogHooks logs the lifecycle of every spawned machine with the system logger.
func WithLogHooks() Option {
	return func(s *System) {
		s.logHooks = true
	}
}

// WithMetrics registers Prometheus collectors with reg and feeds them.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *System) {
		s.registerer = reg
	}
}

// WithEventFeed streams the lifecycle of every spawned machine to feed watchers.
func WithEventFeed(buffer int) Option {
	return func(s *System) {
		s.feedBuffer = buffer
	}
}

// New creates a system and starts its timer manager.
func New(opts ...Option) (*System, error) {
	s := &System{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if s.registerer != nil {
		metrics, err := observability.NewMetrics(s.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		s.metrics = metrics
		s.hooks = append(s.hooks, metrics.Hooks())
	}
	if s.feedBuffer > 0 {
		s.feed = observability.NewFeed(s.feedBuffer)
		s.hooks = append(s.hooks, s.feed.Hooks())
	}
	if s.logHooks {
		s.hooks = append(s.hooks, observability.LogHooks(s.logger))
	}

	regOpts := []registry.Option{registry.WithLogger(s.logger)}
	timerOpts := []timer.Option{timer.WithLogger(s.logger)}
	if s.metrics != nil {
		regOpts = append(regOpts, registry.WithInstrumentation(s.metrics))
		timerOpts = append(timerOpts, timer.WithInstrumentation(s.metrics))
	}
	s.registry = registry.New(regOpts...)
	s.timers = timer.New(TimerManagerName, timerOpts...)
	if err := s.registry.Register(s.timers); err != nil {
		return nil, err
	}
	return s, nil
}

// Registry returns the actor registry.
func (s *System) Registry() *registry.Registry {
	return s.registry
}

// Timers returns the running timer manager.
func (s *System) Timers() *timer.Manager {
	return s.timers
}

// Metrics returns the Prometheus collectors, or nil without WithMetrics.
func (s *System) Metrics() *observability.Metrics {
	return s.metrics
}

// Feed returns the event feed, or nil without WithEventFeed.
func (s *System) Feed() *observability.Feed {
	return s.feed
}

// Logger returns the system logger.
func (s *System) Logger() *slog.Logger {
	return s.logger
}

// Spawn registers and starts an actor.
func (s *System) Spawn(a actor.Runnable) error {
	return s.registry.Register(a)
}

// ActorOptions returns the options the system applies to the actors it spawns.
func (s *System) ActorOptions() []actor.Option {
	opts := []actor.Option{actor.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, actor.WithInstrumentation(s.metrics))
	}
	return opts
}

// SpawnMachine binds def to owner, wraps the machine in an actor named name and starts it.
// The system hooks are attached before the machine enters its initial path.
func SpawnMachine[O any](s *System, name string, def *domain.Definition[O], owner O, opts ...actor.Option) (*actor.MachineActor[O], error) {
	fsmOpts := []fsm.Option{fsm.WithLogger(s.logger.With("machine", name))}
	for _, h := range s.hooks {
		fsmOpts = append(fsmOpts, fsm.WithHooks(h))
	}
	m, err := fsm.New(name, def, owner, fsmOpts...)
	if err != nil {
		return nil, err
	}

	ma := actor.NewMachine(m, append(s.ActorOptions(), opts...)...)
	if err := s.Spawn(ma); err != nil {
		return nil, err
	}
	return ma, nil
}

// Shutdown stops every actor, the timer manager included, bounded by ctx.
func (s *System) Shutdown(ctx context.Context) error {
	return s.registry.Shutdown(ctx)
}
