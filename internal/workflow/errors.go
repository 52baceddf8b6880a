package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition  = errors.New("operation not allowed in the current step")
	ErrSubmissionInFlight = errors.New("an evaluation is already being submitted")
	// ErrStaleResult is returned for a response that arrived after Reset. It is
	// never recorded as the session's error.
	ErrStaleResult = errors.New("session was reset before the response arrived")
)

// TransitionError names the operation that was refused and the state it was refused in.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s (state %s)", e.Op, ErrInvalidTransition, e.State)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
