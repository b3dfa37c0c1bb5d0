package observability

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every step of a machine.
// Transitions and failures are logged at Info and Warn, the rest at Debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventReceived: func(e *domain.MachineEvent) {
			logger.Debug("event_received", "machine", e.Machine, "event", e.Event.ID, "active", e.Active)
		},
		OnTransition: func(e *domain.TransitionEvent) {
			if e.Local {
				logger.Debug("local_transition", "machine", e.Machine, "state", e.Source, "event", e.Event.ID)
				return
			}
			logger.Info("transition",
				"machine", e.Machine,
				"from", e.Source,
				"to", e.Target,
				"event", e.Event.ID,
			)
		},
		OnStateEnter: func(e *domain.StateEvent) {
			logger.Debug("state_enter", "machine", e.Machine, "state", e.StateID)
		},
		OnStateExit: func(e *domain.StateEvent) {
			logger.Debug("state_exit", "machine", e.Machine, "state", e.StateID)
		},
		OnCallbackFailure: func(e *domain.FailureEvent) {
			logger.Warn("callback_failure",
				"machine", e.Machine,
				"kind", e.Failure.Kind,
				"state", e.Failure.State,
				"err", e.Failure.Err,
			)
		},
		OnReset: func(e *domain.MachineEvent) {
			logger.Info("reset", "machine", e.Machine, "active", e.Active)
		},
	}
}
