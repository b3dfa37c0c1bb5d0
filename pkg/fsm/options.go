package fsm

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
)

type config struct {
	logger *slog.Logger
	hooks  []domain.LifecycleHooks
}

// Option configures a Machine.
type Option func(*config)

// WithLogger sets a custom structured logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHooks registers observability hooks. It may be given several times.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = append(c.hooks, hooks)
	}
}

func newConfig(opts []Option) config {
	c := config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
