package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFO(t *testing.T) {
	mb := actor.NewMailbox[int]()
	for i := range 100 {
		require.NoError(t, mb.Enqueue(i))
	}
	assert.Equal(t, 100, mb.Len())

	ctx := context.Background()
	for i := range 100 {
		got, err := mb.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Zero(t, mb.Len())
}

func TestMailbox_DequeueBlocksUntilEnqueue(t *testing.T) {
	mb := actor.NewMailbox[string]()
	got := make(chan string, 1)
	go func() {
		msg, err := mb.Dequeue(context.Background())
		if err == nil {
			got <- msg
		}
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned on an empty mailbox")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, mb.Enqueue("hello"))
	select {
	case msg := <-got:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestMailbox_ContextEnds(t *testing.T) {
	mb := actor.NewMailbox[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mb.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMailbox_PollWakes(t *testing.T) {
	mb := actor.NewMailbox[int]()
	_, ok, err := mb.Poll(context.Background(), time.After(5*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mb.Enqueue(7))
	msg, ok, err := mb.Poll(context.Background(), time.After(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, msg)
}

func TestMailbox_QueuedMessageBeatsWake(t *testing.T) {
	mb := actor.NewMailbox[int]()
	fired := make(chan time.Time, 1)
	fired <- time.Now()
	require.NoError(t, mb.Enqueue(3))

	msg, ok, err := mb.Poll(context.Background(), fired)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, msg)
	assert.Len(t, fired, 1, "wake left untouched")
}

func TestMailbox_TryDequeue(t *testing.T) {
	mb := actor.NewMailbox[string]()
	_, ok := mb.TryDequeue()
	assert.False(t, ok)

	require.NoError(t, mb.Enqueue("a"))
	require.NoError(t, mb.Enqueue("b"))
	msg, ok := mb.TryDequeue()
	assert.True(t, ok)
	assert.Equal(t, "a", msg)
	assert.Equal(t, 1, mb.Len())
}

func TestMailbox_CloseDrainsThenStops(t *testing.T) {
	mb := actor.NewMailbox[int]()
	require.NoError(t, mb.Enqueue(1))
	mb.Close()

	assert.ErrorIs(t, mb.Enqueue(2), actor.ErrStopped)
	got, err := mb.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = mb.Dequeue(context.Background())
	assert.ErrorIs(t, err, actor.ErrStopped)
}
