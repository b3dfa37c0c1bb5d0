package actor

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
)

// Instrumentation receives mailbox and processing measurements.
type Instrumentation interface {
	MessageEnqueued(actor string, depth int)
	MessageProcessed(actor string, elapsed time.Duration)
}

type nopInstrumentation struct{}

func (nopInstrumentation) MessageEnqueued(string, int)            {}
func (nopInstrumentation) MessageProcessed(string, time.Duration) {}

type options struct {
	id            ID
	logger        *slog.Logger
	instr         Instrumentation
	retireOnFinal bool
}

// Option configures an actor.
type Option func(*options)

// WithID overrides the generated identity.
func WithID(id ID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInstrumentation configures a metrics sink.
func WithInstrumentation(instr Instrumentation) Option {
	return func(o *options) {
		if instr != nil {
			o.instr = instr
		}
	}
}

// RetireOnFinal makes a machine actor end its loop as soon as its machine reaches a final state.
// It has no effect on plain actors.
func RetireOnFinal() Option {
	return func(o *options) {
		o.retireOnFinal = true
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: logging.NewNop(),
		instr:  nopInstrumentation{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = NewID()
	}
	return o
}
