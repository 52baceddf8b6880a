package workflow

import "fmt"

// State is a step of the evaluation workflow.
type State int

const (
	AwaitingModelAnswer State = iota
	AwaitingStudentAnswer
	Submitting
	Complete
)

var stateNames = [...]string{
	AwaitingModelAnswer:   "awaiting_model_answer",
	AwaitingStudentAnswer: "awaiting_student_answer",
	Submitting:            "submitting",
	Complete:              "complete",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Step is the 1-based step shown in the progress bar. Submitting still shows step 2.
func (s State) Step() int {
	switch s {
	case AwaitingModelAnswer:
		return 1
	case AwaitingStudentAnswer, Submitting:
		return 2
	default:
		return 3
	}
}

// editable reports whether draft fields may change in this state.
func (s State) editable() bool {
	return s == AwaitingModelAnswer || s == AwaitingStudentAnswer
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
