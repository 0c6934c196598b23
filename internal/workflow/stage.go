// Package workflow implements the staged batch-update session:
// resolve current targets, edit, confirm a change set, execute it.
//
// The session is a value (State) advanced by a pure transition function
// (Reduce). Every transition returns the next state plus an Effect that
// describes what the caller should do next: issue a network call, render,
// report a rejection or drop a stale response. Controller wraps a State
// for callers that want a mutable handle.
package workflow

// Stage enumerates the workflow states.
type Stage int

const (
	StageInput Stage = iota
	StageResolving
	StageEditing
	StageConfirming
	StageExecuting
	StageDone
)

var stageNames = [...]string{
	StageInput:      "input",
	StageResolving:  "resolving",
	StageEditing:    "editing",
	StageConfirming: "confirming",
	StageExecuting:  "executing",
	StageDone:       "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// InFlight reports whether the stage has a network call outstanding.
func (s Stage) InFlight() bool {
	return s == StageResolving || s == StageExecuting
}
