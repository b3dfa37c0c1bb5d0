package observability

import (
	"errors"
	"time"

	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arbor"

// Metrics holds the Prometheus collectors of a running system.
type Metrics struct {
	events        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	entries       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	messages      *prometheus.CounterVec
	processing    *prometheus.HistogramVec
	mailboxDepth  *prometheus.GaugeVec
	actorsRunning prometheus.Gauge
	actorStops    *prometheus.CounterVec
	timersFired   *prometheus.CounterVec
	timersPending *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "machine_events_total",
			Help:      "Events received by state machines.",
		}, []string{"machine"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "machine_transitions_total",
			Help:      "Transitions fired by state machines.",
		}, []string{"machine", "kind"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "machine_state_entries_total",
			Help:      "State entries.",
		}, []string{"machine", "state"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "machine_callback_failures_total",
			Help:      "Guards, actions, entry and exit callables that failed.",
		}, []string{"machine", "kind"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_messages_total",
			Help:      "Messages processed by actors.",
		}, []string{"actor"}),
		processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_message_duration_seconds",
			Help:      "Time spent processing one message.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"actor"}),
		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actor_mailbox_depth",
			Help:      "Messages waiting in the mailbox, sampled on enqueue.",
		}, []string{"actor"}),
		actorsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actors_running",
			Help:      "Actors whose loop is running.",
		}),
		actorStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_stops_total",
			Help:      "Actor loops that ended, by outcome.",
		}, []string{"outcome"}),
		timersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timers_fired_total",
			Help:      "Timer alarms delivered.",
		}, []string{"manager"}),
		timersPending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timers_pending",
			Help:      "Timers waiting for their alarm.",
		}, []string{"manager"}),
	}

	for _, c := range []prometheus.Collector{
		m.events, m.transitions, m.entries, m.failures,
		m.messages, m.processing, m.mailboxDepth,
		m.actorsRunning, m.actorStops,
		m.timersFired, m.timersPending,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the machine collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventReceived: func(e *domain.MachineEvent) {
			m.events.WithLabelValues(e.Machine).Inc()
		},
		OnTransition: func(e *domain.TransitionEvent) {
			kind := "regular"
			if e.Local {
				kind = "local"
			}
			m.transitions.WithLabelValues(e.Machine, kind).Inc()
		},
		OnStateEnter: func(e *domain.StateEvent) {
			m.entries.WithLabelValues(e.Machine, string(e.StateID)).Inc()
		},
		OnCallbackFailure: func(e *domain.FailureEvent) {
			m.failures.WithLabelValues(e.Machine, string(e.Failure.Kind)).Inc()
		},
	}
}

func (m *Metrics) MessageEnqueued(name string, depth int) {
	m.mailboxDepth.WithLabelValues(name).Set(float64(depth))
}

func (m *Metrics) MessageProcessed(name string, elapsed time.Duration) {
	m.messages.WithLabelValues(name).Inc()
	m.processing.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) ActorStarted(string) {
	m.actorsRunning.Inc()
}

func (m *Metrics) ActorStopped(_ string, err error) {
	m.actorsRunning.Dec()
	outcome := "completed"
	switch {
	case errors.Is(err, actor.ErrInterrupted):
		outcome = "interrupted"
	case err != nil:
		outcome = "failed"
	}
	m.actorStops.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TimerFired(manager string) {
	m.timersFired.WithLabelValues(manager).Inc()
}

func (m *Metrics) TimersPending(manager string, n int) {
	m.timersPending.WithLabelValues(manager).Set(float64(n))
}
