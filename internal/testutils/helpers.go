package testutils

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/stretchr/testify/require"
)

// ErrRefused is returned by a Recorder configured to refuse messages.
var ErrRefused = errors.New("recorder refused message")

// Recorder is an actor.Ref that keeps every message it is told, in order.
// It is safe for concurrent use.
type Recorder struct {
	id   actor.ID
	name string

	mu     sync.Mutex
	msgs   []any
	refuse error
}

// NewRecorder creates a recorder with a fresh identity.
func NewRecorder(name string) *Recorder {
	return &Recorder{id: actor.NewID(), name: name}
}

func (r *Recorder) ID() actor.ID {
	return r.id
}

func (r *Recorder) Name() string {
	return r.name
}

func (r *Recorder) Tell(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refuse != nil {
		return r.refuse
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

// Refuse makes subsequent Tell calls fail with err. A nil err accepts messages again.
func (r *Recorder) Refuse(err error) {
	r.mu.Lock()
	r.refuse = err
	r.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.msgs...)
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// WaitFor fails the test unless the recorder holds at least n messages within timeout.
func (r *Recorder) WaitFor(t *testing.T, n int, timeout time.Duration) []any {
	t.Helper()
	require.Eventually(t, func() bool { return r.Len() >= n }, timeout, time.Millisecond,
		"expected %d messages for %q", n, r.name)
	return r.Messages()
}
