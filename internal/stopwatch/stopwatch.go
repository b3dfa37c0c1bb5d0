// Package stopwatch defines the reference stopwatch machine used by the arbor command.
package stopwatch

import (
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/fsm"
)

const (
	Root    domain.StateID = "stopwatch"
	Idle    domain.StateID = "idle"
	Active  domain.StateID = "active"
	Running domain.StateID = "running"
	Paused  domain.StateID = "paused"
	Done    domain.StateID = "done"
)

const (
	Start  domain.EventID = "START"
	Pause  domain.EventID = "PAUSE"
	Resume domain.EventID = "RESUME"
	Stop   domain.EventID = "STOP"
	Tick   domain.EventID = "TICK"
)

// Stopwatch is the owner of a stopwatch machine. It is only touched by the machine.
type Stopwatch struct {
	Starts  int
	Ticks   int
	Reasons []string
}

// PauseRequest is the optional payload of a PAUSE event.
type PauseRequest struct {
	Reason string `mapstructure:"reason"`
}

// Definition returns the shared stopwatch definition.
var Definition = sync.OnceValues(build)

func build() (*domain.Definition[*Stopwatch], error) {
	b := dsl.New[*Stopwatch](Root, "a stopwatch")
	b.Add(Idle, "not started").IsInitial()
	b.Root().Add(Active, "started and not stopped")
	b.Add(Running, "counting ticks").IsInitial().OnEntry(countStart, "count starts")
	b.Up().Add(Paused, "ignoring ticks")
	b.Root().Add(Done, "stopped for good").IsFinal()

	b.In(Idle).On(Start).To(Running, "start").Build()
	b.In(Running).On(Pause).To(Paused, "pause").Execute(recordReason, "record the pause reason").Build()
	b.In(Paused).On(Resume).To(Running, "resume").Build()
	b.In(Active).On(Stop).To(Done, "stop").Build()
	b.In(Running).OnLocal(Tick, "count a tick").Execute(countTick, "increment ticks").Build()

	return b.Definition()
}

// New creates a stopwatch machine with a fresh owner.
func New(name string, opts ...fsm.Option) (*fsm.Machine[*Stopwatch], error) {
	def, err := Definition()
	if err != nil {
		return nil, err
	}
	return fsm.New(name, def, &Stopwatch{}, opts...)
}

func countStart(s *Stopwatch, _ domain.Event) error {
	s.Starts++
	return nil
}

func countTick(s *Stopwatch, _ domain.Event) error {
	s.Ticks++
	return nil
}

func recordReason(s *Stopwatch, ev domain.Event) error {
	if ev.Payload == nil {
		return nil
	}
	var req PauseRequest
	if err := ev.Decode(&req); err != nil {
		return err
	}
	if req.Reason != "" {
		s.Reasons = append(s.Reasons, req.Reason)
	}
	return nil
}
