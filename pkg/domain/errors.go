package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Definition errors. They are always wrapped in a *DefinitionError.
var (
	// ErrDuplicateState is returned when a state id is registered twice.
	ErrDuplicateState = errors.New("duplicate state")
	// ErrUnknownState is returned when a state id is referenced before being registered.
	ErrUnknownState = errors.New("unknown state")
	// ErrMissingEvent is returned when a transition is built without an event discriminator.
	ErrMissingEvent = errors.New("missing event")
	// ErrMultipleInitial is returned when two siblings are flagged as initial.
	ErrMultipleInitial = errors.New("more than one initial state")
	// ErrUnfinishedTransition is returned when a transition chain is started but never built.
	ErrUnfinishedTransition = errors.New("unfinished transition")
	// ErrNoRoot is returned when a definition is created without a root state.
	ErrNoRoot = errors.New("no root state")
	// ErrSealed is returned when a builder is modified after its definition was produced.
	ErrSealed = errors.New("definition already built")
	// ErrInvalidPeriod is returned when a recurring timer has a non-positive period.
	ErrInvalidPeriod = errors.New("recurring period must be positive")
)

// DefinitionError is a fatal, build-time error. It aborts the construction that raised it.
type DefinitionError struct {
	Op    string
	State StateID
	Event EventID
	Err   error
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString("definition: ")
	b.WriteString(e.Op)
	if e.State != "" {
		fmt.Fprintf(&b, " state=%q", e.State)
	}
	if e.Event != "" {
		fmt.Fprintf(&b, " event=%q", e.Event)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// CallbackKind names the kind of user callable that failed.
type CallbackKind string

const (
	CallbackGuard  CallbackKind = "guard"
	CallbackAction CallbackKind = "action"
	CallbackEntry  CallbackKind = "entry"
	CallbackExit   CallbackKind = "exit"
)

// CallbackFailure describes a guard, action, entry or exit callable that returned an
// error or panicked. Failures are reported to observers and never escape Fire.
type CallbackFailure struct {
	Kind       CallbackKind
	Machine    string
	State      StateID
	Transition string
	Event      Event
	Err        error
}

func (f *CallbackFailure) Error() string {
	where := string(f.State)
	if f.Transition != "" {
		where = f.Transition
	}
	return fmt.Sprintf("machine %q: %s callback failed at %s on event %q: %v",
		f.Machine, f.Kind, where, f.Event.ID, f.Err)
}

func (f *CallbackFailure) Unwrap() error {
	return f.Err
}

// PanicError wraps a value recovered from a panicking callable.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}
