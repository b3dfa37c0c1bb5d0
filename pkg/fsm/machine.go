package fsm

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// Machine is a runtime instance of a Definition bound to an owner.
type Machine[O any] struct {
	name   string
	def    *domain.Definition[O]
	owner  O
	logger *slog.Logger
	hooks  []domain.LifecycleHooks

	// active is the root-to-leaf path of active states.
	active []*domain.State[O]
	// history maps a composite flagged with History to its last active child.
	// Entries only exist while the composite itself is inactive.
	history map[domain.StateID]*domain.State[O]
}

// New creates a machine and enters the default-initial path of the definition,
// running the entry callables from the root down to the first leaf.
func New[O any](name string, def *domain.Definition[O], owner O, opts ...Option) (*Machine[O], error) {
	if def == nil || def.Root() == nil {
		return nil, &domain.DefinitionError{Op: "machine", Err: domain.ErrNoRoot}
	}
	cfg := newConfig(opts)
	m := &Machine[O]{
		name:    name,
		def:     def,
		owner:   owner,
		logger:  cfg.logger.With("machine", name),
		hooks:   cfg.hooks,
		history: make(map[domain.StateID]*domain.State[O]),
	}
	m.start(domain.Event{})
	return m, nil
}

// Name returns the machine name.
func (m *Machine[O]) Name() string {
	return m.name
}

// Owner returns the owner context the callables operate on.
func (m *Machine[O]) Owner() O {
	return m.owner
}

// Definition returns the shared definition backing the machine.
func (m *Machine[O]) Definition() *domain.Definition[O] {
	return m.def
}

// AddHooks attaches another set of observability hooks.
func (m *Machine[O]) AddHooks(hooks domain.LifecycleHooks) {
	m.hooks = append(m.hooks, hooks)
}

// Active returns the ids of the active states, root first.
func (m *Machine[O]) Active() []domain.StateID {
	ids := make([]domain.StateID, len(m.active))
	for i, s := range m.active {
		ids[i] = s.ID
	}
	return ids
}

// Current returns the active leaf.
func (m *Machine[O]) Current() domain.StateID {
	return m.active[len(m.active)-1].ID
}

// IsIn reports whether id is active, either as the leaf or as one of its ancestors.
func (m *Machine[O]) IsIn(id domain.StateID) bool {
	for _, s := range m.active {
		if s.ID == id {
			return true
		}
	}
	return false
}

// History returns a copy of the remembered children, keyed by their composite parent.
func (m *Machine[O]) History() map[domain.StateID]domain.StateID {
	out := make(map[domain.StateID]domain.StateID, len(m.history))
	for parent, child := range m.history {
		out[parent] = child.ID
	}
	return out
}

// IsAlive reports false once an active non-root state is final.
// Callers should stop delivering events to a machine that is not alive.
func (m *Machine[O]) IsAlive() bool {
	for _, s := range m.active[1:] {
		if s.Final {
			return false
		}
	}
	return true
}

// Reset forgets the active path and the history and re-enters the default-initial
// path from the root. Exit callables are not run.
func (m *Machine[O]) Reset() {
	m.logger.Debug("resetting machine")
	m.active = m.active[:0]
	clear(m.history)
	m.start(domain.Event{})
	m.emitReset()
}

// Fire delivers an event and reports whether a transition fired.
// An unmatched event is not an error: Fire simply returns false.
func (m *Machine[O]) Fire(ev domain.Event) bool {
	m.emitReceived(ev)

	if t := m.selectTransition(ev, true); t != nil {
		m.logger.Debug("firing local transition", "event", ev.ID, "state", t.Source.ID)
		m.emitTransition(t, ev)
		m.invoke(domain.CallbackAction, t.Source, t, ev, t.Action)
		return true
	}

	if t := m.selectTransition(ev, false); t != nil {
		m.logger.Debug("firing transition", "event", ev.ID, "from", m.Current(), "to", t.Target.ID)
		m.emitTransition(t, ev)
		m.execute(t, ev)
		return true
	}

	m.logger.Debug("no transition found", "event", ev.ID, "state", m.Current())
	return false
}

// selectTransition scans the active states innermost first and returns the first
// transition, in declaration order, whose event matches and whose guard passes.
func (m *Machine[O]) selectTransition(ev domain.Event, local bool) *domain.Transition[O] {
	for i := len(m.active) - 1; i >= 0; i-- {
		s := m.active[i]
		candidates := s.Transitions
		if local {
			candidates = s.Locals
		}
		for _, t := range candidates {
			if !t.Matches(ev) {
				continue
			}
			if m.guard(t, ev) {
				return t
			}
			m.logger.Debug("guard rejected transition", "event", ev.ID, "transition", t.String())
		}
	}
	return nil
}

// execute performs the exit, action and entry sequence of a regular transition.
func (m *Machine[O]) execute(t *domain.Transition[O], ev domain.Event) {
	path, ok := m.def.PathTo(t.Target.ID)
	if !ok {
		// Unreachable for definitions validated by NewDefinition.
		m.logger.Error("transition target outside definition", "target", t.Target.ID)
		return
	}

	// The common ancestor is the deepest active state that is a proper ancestor of
	// the target, so a target on the active path is exited and entered again.
	common := 0
	for common+1 < len(path)-1 && common+1 < len(m.active) && m.active[common+1] == path[common+1] {
		common++
	}

	for len(m.active) > common+1 {
		m.exit(m.active[len(m.active)-1], ev)
	}

	m.invoke(domain.CallbackAction, t.Source, t, ev, t.Action)

	for _, s := range path[common+1:] {
		m.enter(s, ev)
	}
	m.descend(ev)
}

func (m *Machine[O]) start(ev domain.Event) {
	m.enter(m.def.Root(), ev)
	m.descend(ev)
}

// descend keeps entering children below a composite leaf, preferring the remembered
// child of history states, until a true leaf is active.
func (m *Machine[O]) descend(ev domain.Event) {
	for leaf := m.active[len(m.active)-1]; leaf.IsComposite(); leaf = m.active[len(m.active)-1] {
		var next *domain.State[O]
		if leaf.History {
			next = m.history[leaf.ID]
		}
		if next == nil {
			next = leaf.DefaultChild()
		}
		m.enter(next, ev)
	}
}

func (m *Machine[O]) enter(s *domain.State[O], ev domain.Event) {
	m.active = append(m.active, s)
	if s.Parent != nil {
		delete(m.history, s.Parent.ID)
	}
	m.logger.Debug("entering state", "state", s.ID)
	m.invoke(domain.CallbackEntry, s, nil, ev, s.OnEntry)
	m.emitState(domain.EventStateEnter, s)
}

func (m *Machine[O]) exit(s *domain.State[O], ev domain.Event) {
	m.logger.Debug("exiting state", "state", s.ID)
	m.invoke(domain.CallbackExit, s, nil, ev, s.OnExit)
	if s.Parent != nil && s.Parent.History {
		m.history[s.Parent.ID] = s
	}
	m.active = m.active[:len(m.active)-1]
	m.emitState(domain.EventStateExit, s)
}

func (m *Machine[O]) guard(t *domain.Transition[O], ev domain.Event) bool {
	if t.Guard == nil {
		return true
	}
	var passed bool
	err := safeCall(func() error {
		passed = t.Guard(m.owner, ev)
		return nil
	})
	if err != nil {
		m.fail(domain.CallbackGuard, t.Source, t, ev, err)
		return false
	}
	return passed
}

func (m *Machine[O]) invoke(kind domain.CallbackKind, s *domain.State[O], t *domain.Transition[O], ev domain.Event, fn domain.Callback[O]) {
	if fn == nil {
		return
	}
	if err := safeCall(func() error { return fn(m.owner, ev) }); err != nil {
		m.fail(kind, s, t, ev, err)
	}
}

func (m *Machine[O]) fail(kind domain.CallbackKind, s *domain.State[O], t *domain.Transition[O], ev domain.Event, err error) {
	failure := &domain.CallbackFailure{
		Kind:    kind,
		Machine: m.name,
		State:   s.ID,
		Event:   ev,
		Err:     err,
	}
	if t != nil {
		failure.Transition = t.String()
	}
	m.logger.Warn("callback failed", "kind", kind, "state", s.ID, "event", ev.ID, "err", err)
	m.emitFailure(failure)
}

// safeCall runs fn and converts a panic into a *domain.PanicError.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.PanicError{Value: r}
		}
	}()
	return fn()
}
