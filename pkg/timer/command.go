package timer

import (
	"time"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/domain"
)

// Kind is the operation requested by a Command.
type Kind int

const (
	// KindCreate schedules a timer.
	KindCreate Kind = iota
	// KindCancel removes the first pending timer matching the client and the name.
	KindCancel
	// KindAbort ends the manager loop.
	KindAbort
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindCancel:
		return "cancel"
	case KindAbort:
		return "abort"
	}
	return "unknown"
}

// Command is a request to a Manager.
type Command struct {
	Kind   Kind
	Client actor.Ref
	Name   string

	// At is the absolute first alarm. When zero, the alarm is After from now.
	At    time.Time
	After time.Duration

	Recurring bool
	Period    time.Duration

	// Message is told to Client when the timer goes off.
	Message any
}

// After schedules msg for client once, d from now.
func After(client actor.Ref, name string, d time.Duration, msg any) Command {
	return Command{Kind: KindCreate, Client: client, Name: name, After: d, Message: msg}
}

// At schedules msg for client once, at t.
func At(client actor.Ref, name string, t time.Time, msg any) Command {
	return Command{Kind: KindCreate, Client: client, Name: name, At: t, Message: msg}
}

// Every schedules msg for client every period, the first time one period from now.
func Every(client actor.Ref, name string, period time.Duration, msg any) Command {
	return Command{
		Kind:      KindCreate,
		Client:    client,
		Name:      name,
		After:     period,
		Recurring: true,
		Period:    period,
		Message:   msg,
	}
}

// NewRecurring is Every with an explicit first delay. It fails on a non-positive period.
func NewRecurring(client actor.Ref, name string, first, period time.Duration, msg any) (Command, error) {
	cmd := Every(client, name, period, msg)
	cmd.After = first
	return cmd, Validate(cmd)
}

// Cancel removes the first pending timer of client named name.
func Cancel(client actor.Ref, name string) Command {
	return Command{Kind: KindCancel, Client: client, Name: name}
}

// Abort stops the manager.
func Abort() Command {
	return Command{Kind: KindAbort}
}

// Validate checks a Create command.
func Validate(cmd Command) error {
	if cmd.Kind == KindCreate && cmd.Recurring && cmd.Period <= 0 {
		return &domain.DefinitionError{Op: "timer " + cmd.Name, Err: domain.ErrInvalidPeriod}
	}
	return nil
}

// Extractor recognizes timer commands among the messages of a Manager.
type Extractor func(msg any) (Command, bool)

// DefaultExtractor accepts Command and *Command values.
func DefaultExtractor(msg any) (Command, bool) {
	switch cmd := msg.(type) {
	case Command:
		return cmd, true
	case *Command:
		if cmd != nil {
			return *cmd, true
		}
	}
	return Command{}, false
}
