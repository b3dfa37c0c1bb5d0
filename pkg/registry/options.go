package registry

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
)

// Instrumentation receives actor lifecycle notifications.
type Instrumentation interface {
	ActorStarted(name string)
	ActorStopped(name string, err error)
}

type nopInstrumentation struct{}

func (nopInstrumentation) ActorStarted(string)        {}
func (nopInstrumentation) ActorStopped(string, error) {}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithInstrumentation configures a metrics sink.
func WithInstrumentation(instr Instrumentation) Option {
	return func(r *Registry) {
		if instr != nil {
			r.instr = instr
		}
	}
}

func defaults(r *Registry) {
	r.logger = logging.NewNop()
	r.instr = nopInstrumentation{}
}
