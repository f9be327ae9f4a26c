package saga

import (
	"github.com/qmuntal/stateless"
)

// State is the lifecycle state of one saga run.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateSucceeded
	StateCompensating
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateCompensating:
		return "compensating"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

type trigger int

const (
	triggerStart trigger = iota
	triggerAllStepsDone
	triggerStepFailed
	triggerUnwound
)

func (t trigger) String() string {
	switch t {
	case triggerStart:
		return "start"
	case triggerAllStepsDone:
		return "all_steps_done"
	case triggerStepFailed:
		return "step_failed"
	case triggerUnwound:
		return "unwound"
	default:
		return "unknown"
	}
}

// newRunStateMachine builds the NotStarted -> Running -> {Succeeded | Compensating -> Failed}
// machine used by a single run.
func newRunStateMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateNotStarted)

	sm.Configure(StateNotStarted).
		Permit(triggerStart, StateRunning)

	sm.Configure(StateRunning).
		Permit(triggerAllStepsDone, StateSucceeded).
		Permit(triggerStepFailed, StateCompensating)

	sm.Configure(StateCompensating).
		Permit(triggerUnwound, StateFailed)

	return sm
}
