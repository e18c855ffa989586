package eventship

import (
	"time"

	"github.com/bft-labs/eventship/internal/app"
)

// State represents the lifecycle state of a client.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return convertState(s).String()
}

// EventHandler receives notifications about client activity.
// Handlers are called synchronously from the batching worker; slow handlers
// delay the worker the same way a slow send does.
type EventHandler interface {
	// OnStateChange is called when the client's lifecycle state changes.
	OnStateChange(event StateChangeEvent)

	// OnSendSuccess is called after a batch is delivered.
	OnSendSuccess(event SendSuccessEvent)

	// OnSendError is called after a send attempt fails. This is the only
	// error surface for failed sends; they are never returned to callers.
	OnSendError(event SendErrorEvent)
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SendSuccessEvent describes a delivered batch.
type SendSuccessEvent struct {
	EventCount int
	Duration   time.Duration
}

// SendErrorEvent describes a failed send attempt.
type SendErrorEvent struct {
	Error      error
	EventCount int

	// Requeued is true when the failure policy put the batch back onto the
	// queue for a later retry, false when it was dropped.
	Requeued bool
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: fromAppState(previous),
		Current:  fromAppState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSendSuccess(eventCount int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendSuccess(SendSuccessEvent{
		EventCount: eventCount,
		Duration:   duration,
	})
}

func (e *eventEmitterWrapper) OnSendError(err error, eventCount int, requeued bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendError(SendErrorEvent{
		Error:      err,
		EventCount: eventCount,
		Requeued:   requeued,
	})
}

func fromAppState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

func convertState(s State) app.State {
	switch s {
	case StateStopped:
		return app.StateStopped
	case StateStarting:
		return app.StateStarting
	case StateRunning:
		return app.StateRunning
	case StateStopping:
		return app.StateStopping
	case StateCrashed:
		return app.StateCrashed
	default:
		return app.StateStopped
	}
}
