package workflow

import "errors"

var (
	// ErrWorkflowNotFound is returned when the workflow does not exist
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStepNotFound is returned when the step does not exist for the workflow
	ErrStepNotFound = errors.New("workflow step not found")
)

// GateError reports a failed signoff precondition (a missing required
// attachment). The message is user-actionable and the call mutates nothing.
type GateError struct {
	Step    int
	Message string
}

func (e *GateError) Error() string {
	return e.Message
}
