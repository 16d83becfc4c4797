package form

import (
	"errors"

	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
)

// Status is the phase of the most recent submission.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// State is what the form displays. Each transition replaces it wholesale.
type State struct {
	Status  Status
	Running bool
	Message string
	Result  *optimization.OptimizationResult
	Err     error
}

// ErrSubmitInFlight is returned by Submit while another submission is running.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// ValidationError reports form input rejected before any request was sent.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return constants.MessageInvalidSolarSizes
	}
	return constants.MessageInvalidSolarSizes + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func idleState() State {
	return State{Status: StatusIdle, Message: constants.MessageNoRun}
}

func runningState() State {
	return State{Status: StatusRunning, Running: true, Message: constants.MessageRunning}
}

func invalidState(err error) State {
	return State{Status: StatusInvalid, Message: constants.MessageInvalidSolarSizes, Err: err}
}

func failedState(err error) State {
	return State{Status: StatusFailed, Message: constants.MessageRequestFailedPrefix + err.Error(), Err: err}
}

func succeededState(result optimization.OptimizationResult) State {
	return State{Status: StatusSucceeded, Message: result.Indented(), Result: &result}
}
