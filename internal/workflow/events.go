package workflow

import (
	"svlink/internal/gateway"
	"svlink/internal/link"
)

// Event is a user action or a network completion.
type Event interface{ isEvent() }

// LookupRequested starts resolving a newline separated link list.
type LookupRequested struct {
	Credential string
	Text       string
}

// LookupSucceeded delivers the resolve response.
type LookupSucceeded struct {
	Ticket Ticket
	Items  []gateway.ResolvedLink
}

// LookupFailed delivers a resolve failure.
type LookupFailed struct {
	Ticket Ticket
	Err    error
}

// ConfirmRequested submits the raw per-row edits keyed by record index.
type ConfirmRequested struct {
	Edits map[int]string
}

// BackRequested returns from Confirming to Editing.
type BackRequested struct{}

// ExecuteRequested submits the captured change set.
type ExecuteRequested struct{}

// ExecuteSucceeded delivers the update response.
type ExecuteSucceeded struct {
	Ticket  Ticket
	Results []link.BatchResult
	Summary link.Summary
}

// ExecuteFailed delivers an update failure.
type ExecuteFailed struct {
	Ticket Ticket
	Err    error
}

// ResetRequested abandons the session.
type ResetRequested struct{}

func (LookupRequested) isEvent()  {}
func (LookupSucceeded) isEvent()  {}
func (LookupFailed) isEvent()     {}
func (ConfirmRequested) isEvent() {}
func (BackRequested) isEvent()    {}
func (ExecuteRequested) isEvent() {}
func (ExecuteSucceeded) isEvent() {}
func (ExecuteFailed) isEvent()    {}
func (ResetRequested) isEvent()   {}

// Effect describes what the caller must do after a transition.
type Effect interface{ isEffect() }

// NoEffect means nothing changed.
type NoEffect struct{}

// IssueResolve asks the caller to resolve Links and report back with
// LookupSucceeded or LookupFailed carrying Ticket.
type IssueResolve struct {
	Ticket     Ticket
	Credential string
	Links      []string
}

// IssueUpdate asks the caller to submit Changes and report back with
// ExecuteSucceeded or ExecuteFailed carrying Ticket.
type IssueUpdate struct {
	Ticket     Ticket
	Credential string
	Changes    []link.Change
}

// Render means the state changed and should be redrawn.
type Render struct{}

// Reject means the action was refused; the state is unchanged apart from
// the error it now carries.
type Reject struct {
	Err error
}

// Discard means a completion arrived for a request the session no longer
// waits for.
type Discard struct {
	Ticket Ticket
}

func (NoEffect) isEffect()     {}
func (IssueResolve) isEffect() {}
func (IssueUpdate) isEffect()  {}
func (Render) isEffect()       {}
func (Reject) isEffect()       {}
func (Discard) isEffect()      {}
