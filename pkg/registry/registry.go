package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/channel"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateName is returned when an actor or a channel name is already taken.
	ErrDuplicateName = errors.New("name already registered")
	// ErrClosed is returned when registering after Shutdown.
	ErrClosed = errors.New("registry closed")
)

// Registry manages the running actors and the open channels.
type Registry struct {
	logger *slog.Logger
	instr  Instrumentation

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu       sync.RWMutex
	byID     map[actor.ID]actor.Runnable
	byName   map[string]actor.Runnable
	channels map[string]*channel.Channel
	closed   bool
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		ctx:      ctx,
		cancel:   cancel,
		byID:     make(map[actor.ID]actor.Runnable),
		byName:   make(map[string]actor.Runnable),
		channels: make(map[string]*channel.Channel),
	}
	defaults(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a and starts its loop on a dedicated goroutine.
// The actor is unregistered when its loop ends.
func (r *Registry) Register(a actor.Runnable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("register %q: %w", a.Name(), ErrClosed)
	}
	if _, ok := r.byName[a.Name()]; ok {
		return fmt.Errorf("register %q: %w", a.Name(), ErrDuplicateName)
	}
	if _, ok := r.byID[a.ID()]; ok {
		return fmt.Errorf("register %q (%s): %w", a.Name(), a.ID(), ErrDuplicateName)
	}
	r.byID[a.ID()] = a
	r.byName[a.Name()] = a

	r.group.Go(func() error {
		return r.run(a)
	})
	return nil
}

func (r *Registry) run(a actor.Runnable) error {
	r.logger.Debug("actor started", "actor", a.Name(), "id", a.ID())
	r.instr.ActorStarted(a.Name())

	err := a.Run(r.ctx)

	r.mu.Lock()
	delete(r.byID, a.ID())
	delete(r.byName, a.Name())
	r.mu.Unlock()

	r.instr.ActorStopped(a.Name(), err)
	if err != nil && !errors.Is(err, actor.ErrInterrupted) {
		r.logger.Error("actor failed", "actor", a.Name(), "err", err)
		return err
	}
	r.logger.Debug("actor stopped", "actor", a.Name())
	return nil
}

// SendMsgTo tells msg to the actor with the given id. It reports false, and does
// nothing, when the id is unknown or the actor refuses the message.
func (r *Registry) SendMsgTo(msg any, id actor.ID) bool {
	r.mu.RLock()
	a, ok := r.byID[id]
	r.mu.RUnlock()
	return ok && r.tell(a, msg)
}

// SendMsgToNamed is SendMsgTo with a lookup by name.
func (r *Registry) SendMsgToNamed(msg any, name string) bool {
	r.mu.RLock()
	a, ok := r.byName[name]
	r.mu.RUnlock()
	return ok && r.tell(a, msg)
}

func (r *Registry) tell(a actor.Ref, msg any) bool {
	if err := a.Tell(msg); err != nil {
		r.logger.Debug("message refused", "actor", a.Name(), "err", err)
		return false
	}
	return true
}

// Actor looks up a running actor by id.
func (r *Registry) Actor(id actor.ID) (actor.Runnable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// ActorNamed looks up a running actor by name.
func (r *Registry) ActorNamed(name string) (actor.Runnable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	return a, ok
}

// Actors returns the running actors sorted by name.
func (r *Registry) Actors() []actor.Runnable {
	r.mu.RLock()
	out := make([]actor.Runnable, 0, len(r.byName))
	for _, a := range r.byName {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of running actors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// OpenChannel creates a channel owned by the registry. Closing it removes it from the registry.
func (r *Registry) OpenChannel(name string, opts ...channel.Option) (*channel.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("open channel %q: %w", name, ErrClosed)
	}
	if _, ok := r.channels[name]; ok {
		return nil, fmt.Errorf("open channel %q: %w", name, ErrDuplicateName)
	}

	all := append([]channel.Option{channel.WithLogger(r.logger)}, opts...)
	all = append(all, channel.WithOnClose(r.forget))
	ch := channel.New(name, all...)
	r.channels[name] = ch
	return ch, nil
}

func (r *Registry) forget(ch *channel.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[ch.Name()] == ch {
		delete(r.channels, ch.Name())
	}
}

// Channel looks up an open channel.
func (r *Registry) Channel(name string) (*channel.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Channels returns the open channels sorted by name.
func (r *Registry) Channels() []*channel.Channel {
	r.mu.RLock()
	out := make([]*channel.Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Shutdown closes every channel, interrupts every actor and waits for their loops to end,
// bounded by ctx. No actor can be registered afterwards.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for _, ch := range r.Channels() {
		ch.Close()
	}
	r.logger.Debug("shutting down", "actors", r.Len())
	r.cancel()
	return r.AwaitTermination(ctx)
}

// AwaitTermination waits until every actor loop has ended or ctx is done.
// It returns the first failure of an actor loop other than an interruption.
// The registry is closed first: Register fails with ErrClosed from then on.
func (r *Registry) AwaitTermination(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- r.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("await termination: %w", ctx.Err())
	}
}
