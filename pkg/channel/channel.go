package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/eapache/queue"
)

// Unlimited is a credit that is never consumed.
const Unlimited int64 = -1

var (
	// ErrClosed is returned when publishing to or subscribing on a closed channel.
	ErrClosed = errors.New("channel closed")
	// ErrAlreadySubscribed is returned when an actor subscribes twice to the same channel.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrInvalidCredit is returned when subscribing with a negative credit other than Unlimited.
	ErrInvalidCredit = errors.New("invalid credit")
	// ErrBufferFull is wrapped by OverflowError.
	ErrBufferFull = errors.New("subscriber buffer full")
)

// OverflowError is returned by Publish when some subscribers missed the message because
// their buffer was full. The other subscribers received or buffered it as usual.
type OverflowError struct {
	Channel string
	Dropped []actor.Ref
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("publish to %q: dropped for %d subscriber(s): %v", e.Channel, len(e.Dropped), ErrBufferFull)
}

func (e *OverflowError) Unwrap() error {
	return ErrBufferFull
}

// Channel broadcasts every published message to its current subscribers.
type Channel struct {
	name       string
	logger     *slog.Logger
	onError    ErrorHook
	onClose    []func(*Channel)
	bufferSize int

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

type failure struct {
	ref actor.Ref
	err error
}

// New creates an open channel.
func New(name string, opts ...Option) *Channel {
	c := &Channel{name: name}
	defaults(c)
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("channel", name)
	return c
}

func (c *Channel) Name() string {
	return c.name
}

// Subscribers returns the number of current subscribers.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Subscribe adds ref as a subscriber with an initial credit. Use Unlimited for a
// subscriber that never needs to request more. Messages published before the
// subscription are not replayed.
func (c *Channel) Subscribe(ref actor.Ref, credit int64) (*Subscription, error) {
	if credit < 0 && credit != Unlimited {
		return nil, fmt.Errorf("subscribe %q to %q: %w: %d", ref.Name(), c.name, ErrInvalidCredit, credit)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("subscribe to %q: %w", c.name, ErrClosed)
	}
	for _, s := range c.subs {
		if s.ref.ID() == ref.ID() {
			return nil, fmt.Errorf("subscribe %q to %q: %w", ref.Name(), c.name, ErrAlreadySubscribed)
		}
	}
	s := &Subscription{channel: c, ref: ref, credit: credit, buffer: queue.New()}
	c.subs = append(c.subs, s)
	c.logger.Debug("subscribed", "actor", ref.Name(), "credit", credit)
	return s, nil
}

// Publish sends msg to every subscriber and returns how many received it right away.
// The others buffer it until they are granted credit. A subscriber whose buffer is full
// misses the message; Publish then also returns an *OverflowError naming those subscribers.
func (c *Channel) Publish(msg any) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, fmt.Errorf("publish to %q: %w", c.name, ErrClosed)
	}

	delivered := 0
	var failed []failure
	var dropped []actor.Ref
	for _, s := range append([]*Subscription(nil), c.subs...) {
		if s.credit == 0 || s.buffer.Length() > 0 {
			if c.bufferSize > 0 && s.buffer.Length() >= c.bufferSize {
				s.dropped++
				dropped = append(dropped, s.ref)
				continue
			}
			s.buffer.Add(msg)
			continue
		}
		if err := s.deliver(msg); err != nil {
			failed = append(failed, failure{s.ref, err})
			continue
		}
		delivered++
	}
	c.mu.Unlock()

	c.report(failed)
	if len(dropped) > 0 {
		c.logger.Debug("message dropped, buffers full", "subscribers", len(dropped))
		return delivered, &OverflowError{Channel: c.name, Dropped: dropped}
	}
	return delivered, nil
}

// Dispatch is Publish without the delivery count.
func (c *Channel) Dispatch(msg any) error {
	_, err := c.Publish(msg)
	return err
}

// Close rejects further publishes. Each subscriber receives actor.ChannelClosed once its
// buffer has been drained. Closing twice is a no-op.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	var failed []failure
	for _, s := range append([]*Subscription(nil), c.subs...) {
		if err := s.finish(); err != nil {
			failed = append(failed, failure{s.ref, err})
		}
	}
	c.mu.Unlock()

	c.logger.Debug("channel closed")
	c.report(failed)
	for _, fn := range c.onClose {
		fn(c)
	}
}

// Closed reports whether Close was called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// remove must be called with c.mu held.
func (c *Channel) remove(s *Subscription) {
	for i, other := range c.subs {
		if other == s {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	s.gone = true
}

func (c *Channel) report(failed []failure) {
	for _, f := range failed {
		c.logger.Warn("delivery failed, subscriber removed", "actor", f.ref.Name(), "err", f.err)
		c.onError(f.ref, f.err)
	}
}
