package timer_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, m *timer.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- m.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errc:
		case <-time.After(2 * time.Second):
			t.Error("timer manager did not stop")
		}
	})
}

func TestManager_OneShot(t *testing.T) {
	m := timer.New("timers")
	start(t, m)
	client := testutils.NewRecorder("client")

	require.NoError(t, m.Tell(timer.After(client, "wake", 10*time.Millisecond, "ring")))
	assert.Equal(t, []any{"ring"}, client.WaitFor(t, 1, time.Second))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, client.Len(), "one-shot fires once")
	assert.Zero(t, m.Pending())
}

func TestManager_FiresInAlarmOrder(t *testing.T) {
	m := timer.New("timers")
	client := testutils.NewRecorder("client")
	now := time.Now()

	require.NoError(t, m.Tell(timer.At(client, "late", now.Add(30*time.Millisecond), "late")))
	require.NoError(t, m.Tell(timer.After(client, "early", 5*time.Millisecond, "early")))
	require.NoError(t, m.Tell(timer.At(client, "past", now.Add(-time.Second), "past")))
	start(t, m)

	assert.Equal(t, []any{"past", "early", "late"}, client.WaitFor(t, 3, time.Second))
}

func TestManager_Recurring(t *testing.T) {
	m := timer.New("timers")
	start(t, m)
	client := testutils.NewRecorder("client")

	require.NoError(t, m.Tell(timer.Every(client, "tick", 5*time.Millisecond, "tick")))
	client.WaitFor(t, 3, time.Second)
	assert.Equal(t, 1, m.Pending())

	require.NoError(t, m.Tell(timer.Cancel(client, "tick")))
	assert.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, time.Millisecond)

	n := client.Len()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, client.Len(), "cancelled recurring timer stays silent")
}

func TestManager_CancelBeforeFire(t *testing.T) {
	m := timer.New("timers")
	client := testutils.NewRecorder("client")

	require.NoError(t, m.Tell(timer.After(client, "nap", 20*time.Millisecond, "ring")))
	require.NoError(t, m.Tell(timer.Cancel(client, "nap")))
	require.NoError(t, m.Tell(timer.Cancel(client, "absent")))
	start(t, m)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, client.Messages())
	assert.Zero(t, m.Pending())
}

func TestManager_CancelQueuedWhileBusyWinsOverAlarm(t *testing.T) {
	busy := make(chan struct{}, 1)
	release := make(chan struct{})
	m := timer.New("timers", timer.WithHandler(func(context.Context, any) bool {
		busy <- struct{}{}
		<-release
		return true
	}))
	start(t, m)
	client := testutils.NewRecorder("client")

	require.NoError(t, m.Tell(timer.After(client, "nap", 20*time.Millisecond, "ring")))
	require.NoError(t, m.Tell("hold"))
	<-busy
	require.NoError(t, m.Tell(timer.Cancel(client, "nap")))

	// The alarm passes while the loop is held by the handler.
	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, client.Messages())
}

func TestManager_CancelRemovesOnlyFirstMatch(t *testing.T) {
	m := timer.New("timers")
	client := testutils.NewRecorder("client")

	require.NoError(t, m.Tell(timer.After(client, "dup", 5*time.Millisecond, "first")))
	require.NoError(t, m.Tell(timer.After(client, "dup", 10*time.Millisecond, "second")))
	require.NoError(t, m.Tell(timer.Cancel(client, "dup")))
	start(t, m)

	assert.Equal(t, []any{"second"}, client.WaitFor(t, 1, time.Second))
}

func TestManager_InvalidPeriod(t *testing.T) {
	client := testutils.NewRecorder("client")

	_, err := timer.NewRecurring(client, "bad", time.Millisecond, 0, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	var defErr *domain.DefinitionError
	assert.ErrorAs(t, err, &defErr)

	m := timer.New("timers")
	err = m.Tell(timer.Every(client, "bad", -time.Second, "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	cmd, err := timer.NewRecurring(client, "good", 0, time.Second, "x")
	require.NoError(t, err)
	assert.True(t, cmd.Recurring)
	assert.Equal(t, time.Second, cmd.Period)
}

func TestManager_Abort(t *testing.T) {
	m := timer.New("timers")
	client := testutils.NewRecorder("client")
	require.NoError(t, m.Tell(timer.After(client, "never", time.Hour, "x")))
	require.NoError(t, m.Tell(timer.Abort()))

	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, 1, m.Pending())
	assert.ErrorIs(t, m.Tell(timer.Abort()), actor.ErrStopped)
}

func TestManager_DropsTimersOfStoppedClients(t *testing.T) {
	m := timer.New("timers")
	start(t, m)
	client := testutils.NewRecorder("client")
	client.Refuse(actor.ErrStopped)

	require.NoError(t, m.Tell(timer.Every(client, "a", 5*time.Millisecond, "a")))
	require.NoError(t, m.Tell(timer.After(client, "b", time.Hour, "b")))
	assert.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestManager_DropsTimerWhoseDeliveryFails(t *testing.T) {
	m := timer.New("timers")
	start(t, m)
	client := testutils.NewRecorder("client")
	client.Refuse(testutils.ErrRefused)

	require.NoError(t, m.Tell(timer.Every(client, "tick", 5*time.Millisecond, "tick")))
	require.NoError(t, m.Tell(timer.After(client, "later", time.Hour, "later")))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, m.Pending(), "the refused recurring timer is gone, the other one stays")
}

type envelope struct {
	cmd *timer.Command
	app string
}

func TestManager_ExtractorAndHandler(t *testing.T) {
	handled := make(chan string, 4)
	m := timer.New("timers",
		timer.WithExtractor(func(msg any) (timer.Command, bool) {
			env, ok := msg.(envelope)
			if !ok || env.cmd == nil {
				return timer.Command{}, false
			}
			return *env.cmd, true
		}),
		timer.WithHandler(func(_ context.Context, msg any) bool {
			env := msg.(envelope)
			handled <- env.app
			return env.app != "quit"
		}),
	)
	client := testutils.NewRecorder("client")
	cmd := timer.After(client, "soon", time.Millisecond, "ring")

	require.NoError(t, m.Tell(envelope{app: "hello"}))
	require.NoError(t, m.Tell(envelope{cmd: &cmd}))

	errc := make(chan error, 1)
	go func() { errc <- m.Run(context.Background()) }()

	assert.Equal(t, "hello", <-handled)
	client.WaitFor(t, 1, time.Second)

	require.NoError(t, m.Tell(envelope{app: "quit"}))
	assert.Equal(t, "quit", <-handled)
	require.NoError(t, <-errc)
}
