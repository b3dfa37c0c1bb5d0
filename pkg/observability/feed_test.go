package observability_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/fsm"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_StreamsEvents(t *testing.T) {
	feed := observability.NewFeed(64)
	ctx, cancel := context.WithCancel(context.Background())
	events := feed.Watch(ctx)
	assert.Equal(t, 1, feed.Watchers())

	m := lampMachine(t, fsm.WithHooks(feed.Hooks()))
	m.Fire(domain.Event{ID: "SWITCH"})

	var types []domain.EventType
	for len(events) > 0 {
		var base domain.EventBase
		require.NoError(t, json.Unmarshal([]byte(<-events), &base))
		assert.Equal(t, "desk", base.Machine)
		types = append(types, base.Type)
	}
	assert.Contains(t, types, domain.EventTransition)
	assert.Contains(t, types, domain.EventCallbackFailure)

	cancel()
	assert.Eventually(t, func() bool { return feed.Watchers() == 0 }, time.Second, time.Millisecond)
	_, open := <-events
	assert.False(t, open)
}

func TestFeed_SlowWatcherDropsEvents(t *testing.T) {
	feed := observability.NewFeed(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := feed.Watch(ctx)

	m := lampMachine(t, fsm.WithHooks(feed.Hooks()))
	m.Fire(domain.Event{ID: "SWITCH"})
	m.Fire(domain.Event{ID: "SWITCH"})

	assert.Len(t, events, 1)
}
