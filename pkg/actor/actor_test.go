package actor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ctx context.Context, r actor.Runnable) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()
	return errc
}

func wait(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("actor loop did not end")
		return nil
	}
}

func TestActor_ProcessesInOrder(t *testing.T) {
	var got []int
	a := actor.New("counter", func(_ context.Context, n int) bool {
		if n < 0 {
			return false
		}
		got = append(got, n)
		return true
	})
	assert.NotEmpty(t, a.ID())
	assert.Equal(t, "counter", a.Name())

	for i := range 50 {
		require.NoError(t, a.Tell(i))
	}
	require.NoError(t, a.Tell(-1))

	require.NoError(t, wait(t, run(t, context.Background(), a)))
	want := make([]int, 50)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)

	<-a.Done()
	assert.ErrorIs(t, a.Tell(1), actor.ErrStopped)
}

func TestActor_RejectsUnexpectedType(t *testing.T) {
	a := actor.New("strings", func(context.Context, string) bool { return true })
	err := a.Tell(42)
	assert.ErrorIs(t, err, actor.ErrUnexpectedMessage)
	assert.Zero(t, a.Len())
}

func TestActor_Interrupted(t *testing.T) {
	a := actor.New("idle", func(context.Context, int) bool { return true }, actor.WithID("fixed"))
	assert.Equal(t, actor.ID("fixed"), a.ID())

	ctx, cancel := context.WithCancel(context.Background())
	errc := run(t, ctx, a)
	cancel()

	err := wait(t, errc)
	assert.ErrorIs(t, err, actor.ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActor_RunTwice(t *testing.T) {
	a := actor.New("once", func(context.Context, int) bool { return false })
	require.NoError(t, a.Tell(0))
	require.NoError(t, a.Run(context.Background()))
	assert.ErrorIs(t, a.Run(context.Background()), actor.ErrRunning)
}

func TestActor_PanicEndsLoop(t *testing.T) {
	a := actor.New("boom", func(context.Context, int) bool { panic("bad message") })
	require.NoError(t, a.Tell(1))

	err := a.Run(context.Background())
	var pe *domain.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad message", pe.Value)
}

type recordingInstr struct {
	mu        sync.Mutex
	enqueued  int
	processed int
}

func (r *recordingInstr) MessageEnqueued(string, int) {
	r.mu.Lock()
	r.enqueued++
	r.mu.Unlock()
}

func (r *recordingInstr) MessageProcessed(string, time.Duration) {
	r.mu.Lock()
	r.processed++
	r.mu.Unlock()
}

func TestActor_Instrumentation(t *testing.T) {
	instr := &recordingInstr{}
	a := actor.New("measured", func(_ context.Context, n int) bool { return n != 0 },
		actor.WithInstrumentation(instr))
	require.NoError(t, a.Tell(1))
	require.NoError(t, a.Tell(0))
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 2, instr.enqueued)
	assert.Equal(t, 2, instr.processed)
}
