package fsm

import (
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

func (m *Machine[O]) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Machine: m.name}
}

// notify runs fn for every attached hook set. A panicking hook is logged and ignored.
func (m *Machine[O]) notify(fn func(h domain.LifecycleHooks)) {
	for _, h := range m.hooks {
		if err := safeCall(func() error { fn(h); return nil }); err != nil {
			m.logger.Warn("lifecycle hook failed", "err", err)
		}
	}
}

func (m *Machine[O]) emitReceived(ev domain.Event) {
	if len(m.hooks) == 0 {
		return
	}
	e := &domain.MachineEvent{EventBase: m.base(domain.EventReceived), Event: ev, Active: m.Active()}
	m.notify(func(h domain.LifecycleHooks) {
		if h.OnEventReceived != nil {
			h.OnEventReceived(e)
		}
	})
}

func (m *Machine[O]) emitReset() {
	if len(m.hooks) == 0 {
		return
	}
	e := &domain.MachineEvent{EventBase: m.base(domain.EventReset), Active: m.Active()}
	m.notify(func(h domain.LifecycleHooks) {
		if h.OnReset != nil {
			h.OnReset(e)
		}
	})
}

func (m *Machine[O]) emitTransition(t *domain.Transition[O], ev domain.Event) {
	if len(m.hooks) == 0 {
		return
	}
	kind := domain.EventTransition
	if t.Local {
		kind = domain.EventLocalTransition
	}
	e := &domain.TransitionEvent{
		EventBase:   m.base(kind),
		Source:      t.Source.ID,
		Target:      t.Target.ID,
		Event:       ev,
		Local:       t.Local,
		Description: t.Description,
	}
	m.notify(func(h domain.LifecycleHooks) {
		if h.OnTransition != nil {
			h.OnTransition(e)
		}
	})
}

func (m *Machine[O]) emitState(kind domain.EventType, s *domain.State[O]) {
	if len(m.hooks) == 0 {
		return
	}
	e := &domain.StateEvent{EventBase: m.base(kind), StateID: s.ID, Description: s.Description}
	m.notify(func(h domain.LifecycleHooks) {
		switch {
		case kind == domain.EventStateEnter && h.OnStateEnter != nil:
			h.OnStateEnter(e)
		case kind == domain.EventStateExit && h.OnStateExit != nil:
			h.OnStateExit(e)
		}
	})
}

func (m *Machine[O]) emitFailure(f *domain.CallbackFailure) {
	if len(m.hooks) == 0 {
		return
	}
	e := &domain.FailureEvent{EventBase: m.base(domain.EventCallbackFailure), Failure: f}
	m.notify(func(h domain.LifecycleHooks) {
		if h.OnCallbackFailure != nil {
			h.OnCallbackFailure(e)
		}
	})
}
