package dsl

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/fsm"
)

// Builder manages the construction of a state hierarchy.
type Builder[O any] struct {
	root    *domain.State[O]
	states  map[domain.StateID]*domain.State[O]
	context *domain.State[O]

	// open counts transition chains that were started but not built yet.
	open   int
	err    error
	sealed *domain.Definition[O]
}

// New creates a builder whose root state is rootID. The root is the initial context.
func New[O any](rootID domain.StateID, description string) *Builder[O] {
	root := &domain.State[O]{ID: rootID, Description: description}
	return &Builder[O]{
		root:    root,
		states:  map[domain.StateID]*domain.State[O]{rootID: root},
		context: root,
	}
}

// Err returns the first error recorded by the builder, if any.
func (b *Builder[O]) Err() error {
	return b.err
}

func (b *Builder[O]) fail(op string, state domain.StateID, event domain.EventID, err error) {
	if b.err == nil {
		b.err = &domain.DefinitionError{Op: op, State: state, Event: event, Err: err}
	}
}

// usable reports whether the builder can still be modified, recording ErrSealed otherwise.
func (b *Builder[O]) usable(op string) bool {
	if b.err != nil {
		return false
	}
	if b.sealed != nil {
		b.fail(op, b.context.ID, "", domain.ErrSealed)
		return false
	}
	return true
}

// Root selects the root as the building context.
func (b *Builder[O]) Root() *Builder[O] {
	if b.usable("root") {
		b.context = b.root
	}
	return b
}

// In selects an already registered state as the building context.
func (b *Builder[O]) In(id domain.StateID) *Builder[O] {
	if !b.usable("in") {
		return b
	}
	s, ok := b.states[id]
	if !ok {
		b.fail("in", id, "", domain.ErrUnknownState)
		return b
	}
	b.context = s
	return b
}

// Up selects the parent of the current context. On the root it is a no-op.
func (b *Builder[O]) Up() *Builder[O] {
	if b.usable("up") && b.context.Parent != nil {
		b.context = b.context.Parent
	}
	return b
}

// Add creates a child of the current context and selects it as the new context.
func (b *Builder[O]) Add(id domain.StateID, description string) *Builder[O] {
	if !b.usable("add") {
		return b
	}
	if _, exists := b.states[id]; exists {
		b.fail("add", id, "", domain.ErrDuplicateState)
		return b
	}
	s := &domain.State[O]{ID: id, Description: description, Parent: b.context}
	b.context.Children = append(b.context.Children, s)
	b.states[id] = s
	b.context = s
	return b
}

// IsInitial marks the current context as the default child of its parent.
func (b *Builder[O]) IsInitial() *Builder[O] {
	if !b.usable("initial") {
		return b
	}
	if p := b.context.Parent; p != nil {
		for _, sibling := range p.Children {
			if sibling != b.context && sibling.Initial {
				b.fail("initial", b.context.ID, "", domain.ErrMultipleInitial)
				return b
			}
		}
	}
	b.context.Initial = true
	return b
}

// HasHistory sets whether the current context remembers its last active child.
func (b *Builder[O]) HasHistory(history bool) *Builder[O] {
	if b.usable("history") {
		b.context.History = history
	}
	return b
}

// IsFinal marks the current context as a terminal state.
func (b *Builder[O]) IsFinal() *Builder[O] {
	if b.usable("final") {
		b.context.Final = true
	}
	return b
}

// OnEntry sets the entry callable of the current context.
func (b *Builder[O]) OnEntry(fn domain.Callback[O], description string) *Builder[O] {
	if b.usable("entry") {
		b.context.OnEntry = fn
		b.context.OnEntryDescription = description
	}
	return b
}

// OnExit sets the exit callable of the current context.
func (b *Builder[O]) OnExit(fn domain.Callback[O], description string) *Builder[O] {
	if b.usable("exit") {
		b.context.OnExit = fn
		b.context.OnExitDescription = description
	}
	return b
}

// On starts a regular transition chain from the current context.
func (b *Builder[O]) On(event domain.EventID) *EventBuilder[O] {
	if b.usable("on") {
		b.open++
	}
	return &EventBuilder[O]{builder: b, source: b.context, event: event}
}

// OnLocal starts a local transition chain on the current context.
func (b *Builder[O]) OnLocal(event domain.EventID, description string) *TransitionBuilder[O] {
	tb := &TransitionBuilder[O]{builder: b}
	if !b.usable("on local") {
		return tb
	}
	b.open++
	if event == "" {
		b.fail("on local", b.context.ID, "", domain.ErrMissingEvent)
		return tb
	}
	tb.transition = &domain.Transition[O]{
		Source:      b.context,
		Target:      b.context,
		Event:       event,
		Local:       true,
		Description: description,
	}
	return tb
}

// Definition validates the hierarchy and returns the immutable definition.
// After a successful call the builder is sealed.
func (b *Builder[O]) Definition() (*domain.Definition[O], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.sealed != nil {
		return b.sealed, nil
	}
	if b.open > 0 {
		b.fail("definition", b.context.ID, "", domain.ErrUnfinishedTransition)
		return nil, b.err
	}
	def, err := domain.NewDefinition(b.root)
	if err != nil {
		b.err = err
		return nil, err
	}
	b.sealed = def
	return def, nil
}

// Machine builds the definition, if not done yet, and binds a new runtime instance to owner.
// The same builder can produce any number of independent machines.
func (b *Builder[O]) Machine(name string, owner O, opts ...fsm.Option) (*fsm.Machine[O], error) {
	def, err := b.Definition()
	if err != nil {
		return nil, err
	}
	return fsm.New(name, def, owner, opts...)
}
