package workflow

import (
	"fmt"

	"github.com/google/uuid"

	"svlink/internal/link"
)

// Ticket tags an outstanding request with the session and stage that
// issued it. A completion is accepted only if its ticket equals the
// ticket of the current in-flight phase.
type Ticket struct {
	Session uuid.UUID
	Seq     uint64
	Stage   Stage
}

func (t Ticket) String() string {
	return fmt.Sprintf("%s/%d/%s", t.Session.String()[:8], t.Seq, t.Stage)
}

// Phase is the stage-specific payload of a State.
type Phase interface {
	Stage() Stage
	isPhase()
}

// InputPhase waits for a credential and a link list.
type InputPhase struct {
	Err error // last lookup failure, if any
}

// ResolvingPhase has a resolve request in flight.
type ResolvingPhase struct {
	Ticket Ticket
	Links  []string
}

// EditingPhase lets the user enter new targets for resolved records.
type EditingPhase struct {
	Err error // last confirm rejection, if any
}

// ConfirmingPhase holds the change set captured on confirm.
type ConfirmingPhase struct {
	Changes []link.Change
	Err     error // last execute failure, if any
}

// ExecutingPhase has the captured change set in flight.
type ExecutingPhase struct {
	Ticket  Ticket
	Changes []link.Change
}

// DonePhase holds the execution outcome.
type DonePhase struct {
	Results []link.BatchResult
	Summary link.Summary
}

func (InputPhase) Stage() Stage      { return StageInput }
func (ResolvingPhase) Stage() Stage  { return StageResolving }
func (EditingPhase) Stage() Stage    { return StageEditing }
func (ConfirmingPhase) Stage() Stage { return StageConfirming }
func (ExecutingPhase) Stage() Stage  { return StageExecuting }
func (DonePhase) Stage() Stage       { return StageDone }

func (InputPhase) isPhase()      {}
func (ResolvingPhase) isPhase()  {}
func (EditingPhase) isPhase()    {}
func (ConfirmingPhase) isPhase() {}
func (ExecutingPhase) isPhase()  {}
func (DonePhase) isPhase()       {}

// State is one update session.
type State struct {
	Session    uuid.UUID
	Seq        uint64
	Credential string
	Records    link.Store
	Phase      Phase
}

// NewState starts a fresh session in the Input stage.
func NewState() State {
	return State{Session: uuid.New(), Phase: InputPhase{}}
}

// Stage returns the current stage.
func (s State) Stage() Stage {
	if s.Phase == nil {
		return StageInput
	}
	return s.Phase.Stage()
}

// InFlight returns the ticket of the outstanding request, if any.
func (s State) InFlight() (Ticket, bool) {
	switch p := s.Phase.(type) {
	case ResolvingPhase:
		return p.Ticket, true
	case ExecutingPhase:
		return p.Ticket, true
	}
	return Ticket{}, false
}

// Changes returns the captured change set in Confirming and Executing.
func (s State) Changes() []link.Change {
	switch p := s.Phase.(type) {
	case ConfirmingPhase:
		return link.CloneChanges(p.Changes)
	case ExecutingPhase:
		return link.CloneChanges(p.Changes)
	}
	return nil
}

// Results returns the execution results in Done.
func (s State) Results() ([]link.BatchResult, link.Summary) {
	if p, ok := s.Phase.(DonePhase); ok {
		return link.CloneResults(p.Results), p.Summary
	}
	return nil, link.Summary{}
}

// Err returns the error carried by the current phase.
func (s State) Err() error {
	switch p := s.Phase.(type) {
	case InputPhase:
		return p.Err
	case EditingPhase:
		return p.Err
	case ConfirmingPhase:
		return p.Err
	}
	return nil
}

func (s State) next(stage Stage) (State, Ticket) {
	s.Seq++
	return s, Ticket{Session: s.Session, Seq: s.Seq, Stage: stage}
}
