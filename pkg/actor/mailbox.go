package actor

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Mailbox is an unbounded FIFO queue of messages with a single consumer.
// Enqueue never blocks.
type Mailbox[M any] struct {
	mu     sync.Mutex
	queue  *queue.Queue
	signal chan struct{}
	closed bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox[M any]() *Mailbox[M] {
	return &Mailbox[M]{
		queue:  queue.New(),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends msg to the mailbox. It fails with ErrStopped once the mailbox is closed.
func (mb *Mailbox[M]) Enqueue(msg M) error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return ErrStopped
	}
	mb.queue.Add(msg)
	mb.mu.Unlock()

	mb.wake()
	return nil
}

func (mb *Mailbox[M]) wake() {
	select {
	case mb.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes the oldest message, blocking until one is available.
// It returns the context error when ctx ends first, and ErrStopped when the mailbox
// is closed and drained.
func (mb *Mailbox[M]) Dequeue(ctx context.Context) (M, error) {
	msg, _, err := mb.Poll(ctx, nil)
	return msg, err
}

// Poll is like Dequeue but also returns, with ok set to false, when wake fires.
// A nil wake channel never fires. A message queued by the time wake fires is returned
// instead of the wake up.
func (mb *Mailbox[M]) Poll(ctx context.Context, wake <-chan time.Time) (msg M, ok bool, err error) {
	for {
		mb.mu.Lock()
		msg, ok = mb.take()
		closed := mb.closed
		mb.mu.Unlock()

		if ok {
			return msg, true, nil
		}
		if closed {
			return msg, false, ErrStopped
		}

		select {
		case <-ctx.Done():
			return msg, false, ctx.Err()
		case <-wake:
			msg, ok = mb.TryDequeue()
			return msg, ok, nil
		case <-mb.signal:
		}
	}
}

// TryDequeue removes the oldest message without blocking. It reports false when the
// mailbox is empty.
func (mb *Mailbox[M]) TryDequeue() (M, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.take()
}

// take must be called with mb.mu held.
func (mb *Mailbox[M]) take() (msg M, ok bool) {
	if mb.queue.Length() == 0 {
		return msg, false
	}
	return mb.queue.Remove().(M), true
}

// Len returns the number of queued messages.
func (mb *Mailbox[M]) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.queue.Length()
}

// Close rejects further messages. Messages already queued can still be dequeued.
func (mb *Mailbox[M]) Close() {
	mb.mu.Lock()
	mb.closed = true
	mb.mu.Unlock()
	mb.wake()
}
