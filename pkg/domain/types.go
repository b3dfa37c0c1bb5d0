package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// StateID identifies a state. Identifiers are usually declared as a small set of constants.
type StateID string

// EventID is the discriminator of an event.
type EventID string

// Event carries a discriminator and an optional payload through the machine.
type Event struct {
	ID      EventID `json:"id"`
	Payload any     `json:"payload,omitempty"`
}

// NewEvent is a shorthand for Event{ID: id, Payload: payload}.
func NewEvent(id EventID, payload any) Event {
	return Event{ID: id, Payload: payload}
}

// Decode maps the payload onto target, which must be a pointer.
// Loosely typed payloads (e.g. map[string]any decoded from JSON) are converted using
// "mapstructure" tags, falling back to case-insensitive field names.
func (e Event) Decode(target any) error {
	if e.Payload == nil {
		return fmt.Errorf("event %q has no payload", e.ID)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(e.Payload); err != nil {
		return fmt.Errorf("failed to decode payload of event %q: %w", e.ID, err)
	}
	return nil
}

// Guard decides whether a transition may fire for the given owner and event.
type Guard[O any] func(owner O, ev Event) bool

// Callback is the shape of transition actions and state entry/exit callables.
// Owners are only ever mutated from inside these functions.
type Callback[O any] func(owner O, ev Event) error
