package domain

import (
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventReceived        EventType = "event_received"
	EventLocalTransition EventType = "local_transition"
	EventTransition      EventType = "transition"
	EventStateEnter      EventType = "state_enter"
	EventStateExit       EventType = "state_exit"
	EventCallbackFailure EventType = "callback_failure"
	EventReset           EventType = "reset"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Machine   string    `json:"machine"`
}

// MachineEvent is emitted when a machine receives an event or is reset.
type MachineEvent struct {
	EventBase
	Event  Event     `json:"event"`
	Active []StateID `json:"active,omitempty"`
}

// TransitionEvent is emitted when a local or regular transition fires.
type TransitionEvent struct {
	EventBase
	Source      StateID `json:"source"`
	Target      StateID `json:"target"`
	Event       Event   `json:"event"`
	Local       bool    `json:"local,omitempty"`
	Description string  `json:"description,omitempty"`
}

// StateEvent represents entry into or exit from a state.
type StateEvent struct {
	EventBase
	StateID     StateID `json:"state_id"`
	Description string  `json:"description,omitempty"`
}

// FailureEvent reports a failed callable.
type FailureEvent struct {
	EventBase
	Failure *CallbackFailure `json:"failure"`
}

// LifecycleHooks defines callbacks for machine observability.
// Any field may be nil. Hooks are diagnostic only: their outcome, including a panic,
// never influences firing.
type LifecycleHooks struct {
	OnEventReceived   func(*MachineEvent)
	OnTransition      func(*TransitionEvent)
	OnStateEnter      func(*StateEvent)
	OnStateExit       func(*StateEvent)
	OnCallbackFailure func(*FailureEvent)
	OnReset           func(*MachineEvent)
}
