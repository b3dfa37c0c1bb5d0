package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/actor"
)

// Handler processes the application messages of a Manager. Returning false stops it.
type Handler func(ctx context.Context, msg any) bool

// Instrumentation receives timer measurements.
type Instrumentation interface {
	TimerFired(manager string)
	TimersPending(manager string, n int)
}

type nopInstrumentation struct{}

func (nopInstrumentation) TimerFired(string)         {}
func (nopInstrumentation) TimersPending(string, int) {}

// Option configures a Manager.
type Option func(*Manager)

// WithExtractor replaces DefaultExtractor.
func WithExtractor(fn Extractor) Option {
	return func(m *Manager) {
		m.extract = fn
	}
}

// WithHandler sets the function that processes messages that are not commands.
func WithHandler(fn Handler) Option {
	return func(m *Manager) {
		m.handle = fn
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithID overrides the generated identity.
func WithID(id actor.ID) Option {
	return func(m *Manager) {
		m.id = id
	}
}

// WithInstrumentation configures a metrics sink.
func WithInstrumentation(instr Instrumentation) Option {
	return func(m *Manager) {
		if instr != nil {
			m.instr = instr
		}
	}
}

func defaults(m *Manager) {
	m.id = actor.NewID()
	m.extract = DefaultExtractor
	m.now = time.Now
	m.logger = logging.NewNop()
	m.instr = nopInstrumentation{}
	m.handle = func(_ context.Context, msg any) bool {
		m.logger.Warn("ignoring message", "type", typeName(msg))
		return true
	}
}
