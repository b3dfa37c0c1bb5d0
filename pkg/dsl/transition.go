package dsl

import "github.com/aretw0/arbor/pkg/domain"

// EventBuilder holds the event selected by On until a target is chosen.
type EventBuilder[O any] struct {
	builder *Builder[O]
	source  *domain.State[O]
	event   domain.EventID
}

// To selects the target of the transition. The target must already be registered.
func (e *EventBuilder[O]) To(target domain.StateID, description string) *TransitionBuilder[O] {
	b := e.builder
	tb := &TransitionBuilder[O]{builder: b}
	if b.err != nil || b.sealed != nil {
		return tb
	}
	if e.event == "" {
		b.fail("to", e.source.ID, "", domain.ErrMissingEvent)
		return tb
	}
	s, ok := b.states[target]
	if !ok {
		b.fail("to", target, e.event, domain.ErrUnknownState)
		return tb
	}
	tb.transition = &domain.Transition[O]{
		Source:      e.source,
		Target:      s,
		Event:       e.event,
		Description: description,
	}
	return tb
}

// TransitionBuilder is a fresh value per chain; it is discarded by Build.
type TransitionBuilder[O any] struct {
	builder    *Builder[O]
	transition *domain.Transition[O]
}

// OnlyIf attaches a guard.
func (t *TransitionBuilder[O]) OnlyIf(guard domain.Guard[O], description string) *TransitionBuilder[O] {
	if t.transition != nil {
		t.transition.Guard = guard
		t.transition.GuardDescription = description
	}
	return t
}

// Execute attaches an action.
func (t *TransitionBuilder[O]) Execute(action domain.Callback[O], description string) *TransitionBuilder[O] {
	if t.transition != nil {
		t.transition.Action = action
		t.transition.ActionDescription = description
	}
	return t
}

// Build appends the transition to its source state and returns the parent builder.
func (t *TransitionBuilder[O]) Build() *Builder[O] {
	b := t.builder
	tr := t.transition
	t.transition = nil
	if tr == nil || b.err != nil {
		return b
	}
	if b.sealed != nil {
		b.fail("build", tr.Source.ID, tr.Event, domain.ErrSealed)
		return b
	}
	if tr.Local {
		tr.Source.Locals = append(tr.Source.Locals, tr)
	} else {
		tr.Source.Transitions = append(tr.Source.Transitions, tr)
	}
	b.open--
	return b
}
