package channel

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/actor"
)

// ErrorHook is called when delivering to a subscriber fails. The subscriber has already
// been removed when the hook runs.
type ErrorHook func(subscriber actor.Ref, err error)

// DefaultBufferSize is the number of messages kept for a subscriber without credit.
const DefaultBufferSize = 1024

// Option configures a Channel.
type Option func(*Channel)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithErrorHook sets the delivery failure hook. A nil hook is ignored.
func WithErrorHook(hook ErrorHook) Option {
	return func(c *Channel) {
		if hook != nil {
			c.onError = hook
		}
	}
}

// WithBufferSize bounds the messages buffered per subscriber. Zero or less means unbounded.
func WithBufferSize(n int) Option {
	return func(c *Channel) {
		c.bufferSize = n
	}
}

// WithOnClose registers a function run once when the channel is closed.
func WithOnClose(fn func(*Channel)) Option {
	return func(c *Channel) {
		c.onClose = append(c.onClose, fn)
	}
}

func defaults(c *Channel) {
	c.logger = logging.NewNop()
	c.onError = func(actor.Ref, error) {}
	c.bufferSize = DefaultBufferSize
}
