package domain

import "fmt"

// Transition is an immutable rule created by the builder.
//
// A local transition has Target == Source and never exits or enters any state.
type Transition[O any] struct {
	Source *State[O]
	Target *State[O]
	Event  EventID
	Local  bool

	Guard  Guard[O]
	Action Callback[O]

	// Descriptions exist for tooling and diagnostics only.
	Description       string
	GuardDescription  string
	ActionDescription string
}

// Matches reports whether the transition is a candidate for the event, ignoring the guard.
func (t *Transition[O]) Matches(ev Event) bool {
	return t.Event == ev.ID
}

func (t *Transition[O]) String() string {
	if t.Local {
		return fmt.Sprintf("%s --%s--> (local)", t.Source.ID, t.Event)
	}
	return fmt.Sprintf("%s --%s--> %s", t.Source.ID, t.Event, t.Target.ID)
}
