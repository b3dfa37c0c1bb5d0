package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/channel"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo forwards every string it receives to out and stops on "bye".
func echo(name string, out *testutils.Recorder) *actor.Actor[string] {
	return actor.New(name, func(_ context.Context, msg string) bool {
		_ = out.Tell(msg)
		return msg != "bye"
	})
}

func shutdown(t *testing.T, r *registry.Registry) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
}

func TestRegistry_RegisterAndSend(t *testing.T) {
	r := registry.New()
	defer shutdown(t, r)

	out := testutils.NewRecorder("out")
	a := echo("alice", out)
	require.NoError(t, r.Register(a))

	assert.True(t, r.SendMsgTo("hi", a.ID()))
	assert.True(t, r.SendMsgToNamed("there", "alice"))
	assert.False(t, r.SendMsgTo("lost", actor.ID("nobody")))
	assert.False(t, r.SendMsgToNamed("lost", "nobody"))
	assert.False(t, r.SendMsgTo(42, a.ID()), "wrong message type is refused")

	assert.Equal(t, []any{"hi", "there"}, out.WaitFor(t, 2, time.Second))

	got, ok := r.Actor(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)
	got, ok = r.ActorNamed("alice")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := registry.New()
	defer shutdown(t, r)

	out := testutils.NewRecorder("out")
	require.NoError(t, r.Register(echo("alice", out)))
	err := r.Register(echo("alice", out))
	assert.ErrorIs(t, err, registry.ErrDuplicateName)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ActorsSortedByName(t *testing.T) {
	r := registry.New()
	defer shutdown(t, r)

	out := testutils.NewRecorder("out")
	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, r.Register(echo(name, out)))
	}

	var names []string
	for _, a := range r.Actors() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestRegistry_FinishedActorIsUnregistered(t *testing.T) {
	r := registry.New()
	defer shutdown(t, r)

	out := testutils.NewRecorder("out")
	a := echo("alice", out)
	require.NoError(t, r.Register(a))
	require.True(t, r.SendMsgToNamed("bye", "alice"))

	<-a.Done()
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	assert.False(t, r.SendMsgTo("hello?", a.ID()))

	require.NoError(t, r.Register(echo("alice", out)), "name is free again")
}

func TestRegistry_ShutdownInterruptsEveryone(t *testing.T) {
	r := registry.New()
	out := testutils.NewRecorder("out")
	actors := []*actor.Actor[string]{echo("a", out), echo("b", out)}
	for _, a := range actors {
		require.NoError(t, r.Register(a))
	}

	shutdown(t, r)
	for _, a := range actors {
		<-a.Done()
	}
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, r.Register(echo("c", out)), registry.ErrClosed)
	_, err := r.OpenChannel("late")
	assert.ErrorIs(t, err, registry.ErrClosed)
}

func TestRegistry_AwaitTerminationReportsFailures(t *testing.T) {
	r := registry.New()
	boom := errors.New("boom")
	failing := actor.New("failing", func(context.Context, string) bool { panic(boom) })
	require.NoError(t, r.Register(failing))
	require.True(t, r.SendMsgToNamed("go", "failing"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := r.AwaitTermination(ctx)
	var pe *domain.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, boom, pe.Value)
}

func TestRegistry_AwaitTerminationBoundedByContext(t *testing.T) {
	r := registry.New()
	defer shutdown(t, r)
	require.NoError(t, r.Register(echo("sleepy", testutils.NewRecorder("out"))))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.AwaitTermination(ctx), context.DeadlineExceeded)
}

func TestRegistry_AwaitTerminationClosesRegistry(t *testing.T) {
	r := registry.New()
	out := testutils.NewRecorder("out")
	require.NoError(t, r.Register(echo("short", out)))
	require.True(t, r.SendMsgToNamed("bye", "short"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.AwaitTermination(ctx))
	assert.Zero(t, r.Len())

	assert.ErrorIs(t, r.Register(echo("late", out)), registry.ErrClosed)
	_, err := r.OpenChannel("late")
	assert.ErrorIs(t, err, registry.ErrClosed)
}

func TestRegistry_Channels(t *testing.T) {
	r := registry.New()
	defer shutdown(t, r)

	news, err := r.OpenChannel("news")
	require.NoError(t, err)
	_, err = r.OpenChannel("alerts")
	require.NoError(t, err)
	_, err = r.OpenChannel("news")
	assert.ErrorIs(t, err, registry.ErrDuplicateName)

	var names []string
	for _, ch := range r.Channels() {
		names = append(names, ch.Name())
	}
	assert.Equal(t, []string{"alerts", "news"}, names)

	sub := testutils.NewRecorder("sub")
	_, err = news.Subscribe(sub, channel.Unlimited)
	require.NoError(t, err)
	require.NoError(t, news.Dispatch("extra"))

	news.Close()
	_, ok := r.Channel("news")
	assert.False(t, ok)
	assert.Equal(t, []any{"extra", actor.ChannelClosed{Channel: "news"}}, sub.Messages())
}
