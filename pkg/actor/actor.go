package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// ID identifies an actor for its whole life.
type ID string

// NewID generates a random identity.
func NewID() ID {
	return ID(uuid.NewString())
}

// Ref is the handle other components use to send messages to an actor.
type Ref interface {
	ID() ID
	Name() string
	Tell(msg any) error
}

// Runnable is an actor whose loop can be started by a registry.
type Runnable interface {
	Ref
	Run(ctx context.Context) error
}

// ProcessFunc handles one message. Returning false ends the actor loop.
type ProcessFunc[M any] func(ctx context.Context, msg M) bool

// Actor runs a processing function over the messages of its mailbox, one at a time.
type Actor[M any] struct {
	id      ID
	name    string
	process ProcessFunc[M]
	mailbox *Mailbox[M]
	logger  *slog.Logger
	instr   Instrumentation
	running atomic.Bool
	done    chan struct{}
}

// New creates an actor. The loop starts with Run.
func New[M any](name string, process ProcessFunc[M], opts ...Option) *Actor[M] {
	o := newOptions(opts)
	return newActor(name, process, o)
}

func newActor[M any](name string, process ProcessFunc[M], o options) *Actor[M] {
	return &Actor[M]{
		id:      o.id,
		name:    name,
		process: process,
		mailbox: NewMailbox[M](),
		logger:  o.logger.With("actor", name),
		instr:   o.instr,
		done:    make(chan struct{}),
	}
}

func (a *Actor[M]) ID() ID {
	return a.id
}

func (a *Actor[M]) Name() string {
	return a.name
}

// Receive enqueues a message. It never blocks.
func (a *Actor[M]) Receive(msg M) error {
	if err := a.mailbox.Enqueue(msg); err != nil {
		return fmt.Errorf("actor %q: %w", a.name, err)
	}
	a.instr.MessageEnqueued(a.name, a.mailbox.Len())
	return nil
}

// Tell enqueues msg if it has the type the actor processes.
func (a *Actor[M]) Tell(msg any) error {
	m, ok := msg.(M)
	if !ok {
		return fmt.Errorf("actor %q: %w: %T", a.name, ErrUnexpectedMessage, msg)
	}
	return a.Receive(m)
}

// Len returns the number of messages waiting in the mailbox.
func (a *Actor[M]) Len() int {
	return a.mailbox.Len()
}

// Done is closed when the loop has ended.
func (a *Actor[M]) Done() <-chan struct{} {
	return a.done
}

// Run processes messages until the processing function returns false or ctx ends.
// It returns nil in the first case and an error wrapping ErrInterrupted in the second.
// Once Run returns the mailbox is closed.
func (a *Actor[M]) Run(ctx context.Context) (err error) {
	if !a.running.CompareAndSwap(false, true) {
		return fmt.Errorf("actor %q: %w", a.name, ErrRunning)
	}
	a.logger.Debug("actor started", "id", a.id)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("actor %q: %w", a.name, &domain.PanicError{Value: r})
		}
		a.mailbox.Close()
		close(a.done)
		a.logger.Debug("actor stopped", "id", a.id, "err", err)
	}()

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("actor %q: %w: %w", a.name, ErrInterrupted, ctx.Err())
		}
		msg, err := a.mailbox.Dequeue(ctx)
		if errors.Is(err, ErrStopped) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("actor %q: %w: %w", a.name, ErrInterrupted, err)
		}

		start := time.Now()
		cont := a.process(ctx, msg)
		a.instr.MessageProcessed(a.name, time.Since(start))
		if !cont {
			return nil
		}
	}
}
