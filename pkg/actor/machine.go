package actor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/fsm"
)

// Snapshot is a point-in-time view of a machine actor, safe to read from any goroutine.
type Snapshot struct {
	ID          ID               `json:"id"`
	Name        string           `json:"name"`
	Active      []domain.StateID `json:"active"`
	Alive       bool             `json:"alive"`
	Events      uint64           `json:"events"`
	Transitions uint64           `json:"transitions"`
}

// MachineActor fires the events it receives on a state machine, one at a time.
// It accepts domain.Event, Stop and ChannelClosed messages.
type MachineActor[O any] struct {
	*Actor[any]
	machine       *fsm.Machine[O]
	retireOnFinal bool
	logger        *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

// NewMachine wraps m in an actor named after the machine.
// The machine must not be used by anything else once the actor runs.
func NewMachine[O any](m *fsm.Machine[O], opts ...Option) *MachineActor[O] {
	o := newOptions(opts)
	ma := &MachineActor[O]{
		machine:       m,
		retireOnFinal: o.retireOnFinal,
	}
	ma.Actor = newActor[any](m.Name(), ma.process, o)
	ma.logger = ma.Actor.logger
	ma.snap = Snapshot{
		ID:     ma.Actor.ID(),
		Name:   m.Name(),
		Active: m.Active(),
		Alive:  m.IsAlive(),
	}
	return ma
}

// Tell enqueues an event or a control message.
func (ma *MachineActor[O]) Tell(msg any) error {
	switch msg := msg.(type) {
	case domain.Event, Stop, ChannelClosed:
		return ma.Actor.Receive(msg)
	case *domain.Event:
		if msg == nil {
			break
		}
		return ma.Actor.Receive(*msg)
	}
	return fmt.Errorf("actor %q: %w: %T", ma.Name(), ErrUnexpectedMessage, msg)
}

// Receive is Tell. It shadows the untyped Actor[any].Receive.
func (ma *MachineActor[O]) Receive(msg any) error {
	return ma.Tell(msg)
}

// Fire is shorthand for telling a domain.Event.
func (ma *MachineActor[O]) Fire(id domain.EventID, payload any) error {
	return ma.Tell(domain.NewEvent(id, payload))
}

// Snapshot returns a copy of the latest observed machine status.
func (ma *MachineActor[O]) Snapshot() Snapshot {
	ma.mu.RLock()
	defer ma.mu.RUnlock()
	s := ma.snap
	s.Active = append([]domain.StateID(nil), ma.snap.Active...)
	return s
}

func (ma *MachineActor[O]) process(_ context.Context, msg any) bool {
	switch msg := msg.(type) {
	case Stop:
		ma.logger.Debug("stop requested")
		return false
	case ChannelClosed:
		ma.logger.Debug("channel closed", "channel", msg.Channel)
		return true
	case domain.Event:
		fired := ma.machine.Fire(msg)
		alive := ma.machine.IsAlive()

		ma.mu.Lock()
		ma.snap.Events++
		if fired {
			ma.snap.Transitions++
		}
		ma.snap.Active = ma.machine.Active()
		ma.snap.Alive = alive
		ma.mu.Unlock()

		if ma.retireOnFinal && !alive {
			ma.logger.Debug("machine reached a final state", "state", ma.machine.Current())
			return false
		}
	default:
		ma.logger.Warn("ignoring unexpected message", "type", fmt.Sprintf("%T", msg))
	}
	return true
}
