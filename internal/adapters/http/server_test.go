package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	arborhttp "github.com/aretw0/arbor/internal/adapters/http"
	"github.com/aretw0/arbor/internal/stopwatch"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/channel"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/fsm"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler  http.Handler
	registry *registry.Registry
	watch    *actor.MachineActor[*stopwatch.Stopwatch]
	feed     *observability.Feed
}

func setup(t *testing.T) *fixture {
	t.Helper()
	reg := registry.New()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, reg.Shutdown(ctx))
	})

	promReg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(promReg)
	require.NoError(t, err)
	feed := observability.NewFeed(16)

	m, err := stopwatch.New("sw", fsm.WithHooks(metrics.Hooks()), fsm.WithHooks(feed.Hooks()))
	require.NoError(t, err)
	sw := actor.NewMachine(m)
	require.NoError(t, reg.Register(sw))

	return &fixture{
		handler: arborhttp.NewHandler(arborhttp.Config{
			Registry: reg,
			Feed:     feed,
			Gatherer: promReg,
			Version:  "test",
		}),
		registry: reg,
		watch:    sw,
		feed:     feed,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	f := setup(t)
	rr := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	f := setup(t)
	rr := f.do(t, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "arbor-http", resp["app"])
	assert.Equal(t, "test", resp["version"])
	assert.Equal(t, arborhttp.APIVersion, resp["api_version"])
}

func TestActors_ListAndGet(t *testing.T) {
	f := setup(t)

	rr := f.do(t, http.MethodGet, "/actors", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []arborhttp.ActorView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "sw", list[0].Name)
	require.NotNil(t, list[0].Machine)
	assert.Equal(t, []domain.StateID{stopwatch.Root, stopwatch.Idle}, list[0].Machine.Active)

	rr = f.do(t, http.MethodGet, "/actors/ghost", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestActors_PostEvent(t *testing.T) {
	f := setup(t)

	rr := f.do(t, http.MethodPost, "/actors/sw/events", `{"event":"START"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)
	rr = f.do(t, http.MethodPost, "/actors/sw/events", `{"event":"PAUSE","payload":{"reason":"meeting"}}`)
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.Eventually(t, func() bool {
		return f.watch.Snapshot().Events == 2
	}, time.Second, time.Millisecond)

	rr = f.do(t, http.MethodGet, "/actors/sw", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var v arborhttp.ActorView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, []domain.StateID{stopwatch.Root, stopwatch.Active, stopwatch.Paused}, v.Machine.Active)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/actors/sw/events", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/actors/sw/events", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/actors/ghost/events", `{"event":"START"}`).Code)
}

func TestChannels_Publish(t *testing.T) {
	f := setup(t)
	ch, err := f.registry.OpenChannel("control")
	require.NoError(t, err)
	sub := testutils.NewRecorder("sub")
	_, err = ch.Subscribe(sub, channel.Unlimited)
	require.NoError(t, err)

	rr := f.do(t, http.MethodGet, "/channels", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []arborhttp.ChannelView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, []arborhttp.ChannelView{{Name: "control", Subscribers: 1}}, list)

	rr = f.do(t, http.MethodPost, "/channels/control/publish", `{"event":"STOP"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"delivered":1}`, rr.Body.String())
	assert.Equal(t, []any{domain.NewEvent("STOP", nil)}, sub.Messages())

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/channels/ghost/publish", `{"event":"STOP"}`).Code)
}

func TestChannels_PublishReportsDrops(t *testing.T) {
	f := setup(t)
	ch, err := f.registry.OpenChannel("tight", channel.WithBufferSize(1))
	require.NoError(t, err)
	_, err = ch.Subscribe(testutils.NewRecorder("slow"), 0)
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/channels/tight/publish", `{"event":"TICK"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"delivered":0}`, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/channels/tight/publish", `{"event":"TICK"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"delivered":0,"dropped":1}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)
	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/actors/sw/events", `{"event":"START"}`).Code)
	require.Eventually(t, func() bool { return f.watch.Snapshot().Events == 1 }, time.Second, time.Millisecond)

	rr := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `arbor_machine_transitions_total{kind="regular",machine="sw"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.Eventually(t, func() bool { return f.feed.Watchers() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, f.watch.Fire(stopwatch.Start, nil))

	for lines.Scan() {
		line := lines.Text()
		if strings.HasPrefix(line, "data: {") {
			assert.Contains(t, line, `"machine":"sw"`)
			return
		}
	}
	t.Fatal("no event received")
}
