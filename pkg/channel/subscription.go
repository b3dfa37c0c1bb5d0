package channel

import (
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/eapache/queue"
)

// Subscription links one actor to a channel. All of its state is guarded by the channel lock.
type Subscription struct {
	channel *Channel
	ref     actor.Ref
	credit  int64
	buffer  *queue.Queue
	dropped int64
	gone    bool
}

// Subscriber returns the subscribed actor.
func (s *Subscription) Subscriber() actor.Ref {
	return s.ref
}

// Credit returns the remaining credit, or Unlimited.
func (s *Subscription) Credit() int64 {
	s.channel.mu.Lock()
	defer s.channel.mu.Unlock()
	return s.credit
}

// Buffered returns the number of messages waiting for credit.
func (s *Subscription) Buffered() int {
	s.channel.mu.Lock()
	defer s.channel.mu.Unlock()
	return s.buffer.Length()
}

// Dropped returns the number of messages missed because the buffer was full.
func (s *Subscription) Dropped() int64 {
	s.channel.mu.Lock()
	defer s.channel.mu.Unlock()
	return s.dropped
}

// Request grants n more messages and delivers buffered ones up to the new credit.
func (s *Subscription) Request(n int64) {
	c := s.channel
	c.mu.Lock()
	if s.gone || n <= 0 {
		c.mu.Unlock()
		return
	}
	if s.credit != Unlimited {
		s.credit += n
	}

	var failed []failure
	for s.credit != 0 && s.buffer.Length() > 0 {
		if err := s.deliver(s.buffer.Remove()); err != nil {
			failed = append(failed, failure{s.ref, err})
			break
		}
	}
	if len(failed) == 0 && c.closed {
		if err := s.finish(); err != nil {
			failed = append(failed, failure{s.ref, err})
		}
	}
	c.mu.Unlock()

	c.report(failed)
}

// Cancel removes the subscription and discards its buffer. No ChannelClosed is sent.
func (s *Subscription) Cancel() {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.gone {
		return
	}
	c.remove(s)
	for s.buffer.Length() > 0 {
		s.buffer.Remove()
	}
}

// deliver tells msg and consumes one credit. On failure the subscription is removed.
func (s *Subscription) deliver(msg any) error {
	if err := s.ref.Tell(msg); err != nil {
		s.channel.remove(s)
		return err
	}
	if s.credit > 0 {
		s.credit--
	}
	return nil
}

// finish sends ChannelClosed and removes the subscription once the buffer is empty.
func (s *Subscription) finish() error {
	if s.gone || s.buffer.Length() > 0 {
		return nil
	}
	s.channel.remove(s)
	return s.ref.Tell(actor.ChannelClosed{Channel: s.channel.name})
}
