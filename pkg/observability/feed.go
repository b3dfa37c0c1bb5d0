package observability

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Feed fans machine lifecycle events out to watchers as JSON documents.
// A watcher that falls behind loses events rather than slowing machines down.
type Feed struct {
	buffer int

	mu       sync.Mutex
	watchers map[chan string]struct{}
}

// NewFeed creates a feed whose watchers buffer up to buffer events.
func NewFeed(buffer int) *Feed {
	if buffer < 1 {
		buffer = 1
	}
	return &Feed{buffer: buffer, watchers: make(map[chan string]struct{})}
}

// Watch returns a channel of events, closed when ctx ends.
func (f *Feed) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, f.buffer)
	f.mu.Lock()
	f.watchers[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch
}

// Watchers returns the number of active watchers.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// Hooks returns lifecycle hooks publishing every event to the feed.
func (f *Feed) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventReceived:   func(e *domain.MachineEvent) { f.publish(e) },
		OnTransition:      func(e *domain.TransitionEvent) { f.publish(e) },
		OnStateEnter:      func(e *domain.StateEvent) { f.publish(e) },
		OnStateExit:       func(e *domain.StateEvent) { f.publish(e) },
		OnCallbackFailure: func(e *domain.FailureEvent) { f.publish(failureView(e)) },
		OnReset:           func(e *domain.MachineEvent) { f.publish(e) },
	}
}

func (f *Feed) publish(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.watchers) == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	for ch := range f.watchers {
		select {
		case ch <- string(data):
		default:
		}
	}
}

// failureView flattens the failure so that its error survives JSON encoding.
func failureView(e *domain.FailureEvent) any {
	return struct {
		domain.EventBase
		Kind  domain.CallbackKind `json:"kind"`
		State domain.StateID      `json:"state"`
		Error string              `json:"error"`
	}{
		EventBase: e.EventBase,
		Kind:      e.Failure.Kind,
		State:     e.Failure.State,
		Error:     e.Failure.Err.Error(),
	}
}
