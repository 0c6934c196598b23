package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"svlink/internal/gateway"
	"svlink/internal/link"
)

// Reduce applies ev to s. It performs no I/O; network calls are returned
// as IssueResolve / IssueUpdate effects.
func Reduce(s State, ev Event) (State, Effect) {
	if s.Phase == nil {
		s.Phase = InputPhase{}
	}

	switch e := ev.(type) {
	case ResetRequested:
		return reset(s), Render{}
	case LookupRequested:
		return requestLookup(s, e)
	case LookupSucceeded:
		return completeLookup(s, e)
	case LookupFailed:
		p, ok := s.Phase.(ResolvingPhase)
		if !ok || p.Ticket != e.Ticket {
			return s, Discard{Ticket: e.Ticket}
		}
		s.Phase = InputPhase{Err: e.Err}
		return s, Render{}
	case ConfirmRequested:
		return confirm(s, e)
	case BackRequested:
		if _, ok := s.Phase.(ConfirmingPhase); !ok {
			return s, Reject{Err: invalid(s, "back")}
		}
		s.Phase = EditingPhase{}
		return s, Render{}
	case ExecuteRequested:
		return execute(s)
	case ExecuteSucceeded:
		return completeExecute(s, e)
	case ExecuteFailed:
		p, ok := s.Phase.(ExecutingPhase)
		if !ok || p.Ticket != e.Ticket {
			return s, Discard{Ticket: e.Ticket}
		}
		s.Phase = ConfirmingPhase{Changes: p.Changes, Err: e.Err}
		return s, Render{}
	}
	return s, NoEffect{}
}

// reset starts a new session. In-flight tickets carry the old session id
// and are discarded when they complete.
func reset(s State) State {
	return State{
		Session:    uuid.New(),
		Credential: s.Credential,
		Phase:      InputPhase{},
	}
}

func requestLookup(s State, e LookupRequested) (State, Effect) {
	switch s.Stage() {
	case StageInput:
	case StageResolving, StageExecuting:
		return s, Reject{Err: link.ErrBusy}
	default:
		return s, Reject{Err: invalid(s, "lookup")}
	}

	credential := strings.TrimSpace(e.Credential)
	if credential == "" {
		err := &link.ValidationError{Field: "api key", Message: "required"}
		s.Phase = InputPhase{Err: err}
		return s, Reject{Err: err}
	}
	links := link.ParseLines(e.Text)
	if len(links) == 0 {
		err := &link.ValidationError{Field: "link list", Message: "enter at least one short link"}
		s.Phase = InputPhase{Err: err}
		return s, Reject{Err: err}
	}

	s.Credential = credential
	s, ticket := s.next(StageResolving)
	s.Phase = ResolvingPhase{Ticket: ticket, Links: links}
	return s, IssueResolve{Ticket: ticket, Credential: credential, Links: append([]string(nil), links...)}
}

func completeLookup(s State, e LookupSucceeded) (State, Effect) {
	p, ok := s.Phase.(ResolvingPhase)
	if !ok || p.Ticket != e.Ticket {
		return s, Discard{Ticket: e.Ticket}
	}
	if len(e.Items) != len(p.Links) {
		s.Phase = InputPhase{Err: &link.ApplicationError{
			Op:      "resolve",
			Message: fmt.Sprintf("expected %d results, got %d", len(p.Links), len(e.Items)),
		}}
		return s, Render{}
	}

	s.Records.ReplaceAll(buildRecords(p.Links, e.Items))
	s.Phase = EditingPhase{}
	return s, Render{}
}

// buildRecords pairs input lines with response items by position. The
// record keeps the line as typed, not the backend's echo.
func buildRecords(links []string, items []gateway.ResolvedLink) []link.LinkRecord {
	records := make([]link.LinkRecord, len(links))
	for i, identifier := range links {
		rec := link.LinkRecord{Index: i, Identifier: identifier}
		if item := items[i]; item.Success {
			target := item.Target
			rec.CurrentTarget = &target
			rec.LinkID = item.LinkID
			rec.Resolved = true
		}
		records[i] = rec
	}
	return records
}

func confirm(s State, e ConfirmRequested) (State, Effect) {
	if _, ok := s.Phase.(EditingPhase); !ok {
		return s, Reject{Err: invalid(s, "confirm")}
	}
	changes := link.BuildChanges(s.Records, e.Edits)
	if len(changes) == 0 {
		s.Phase = EditingPhase{Err: link.ErrNoChanges}
		return s, Reject{Err: link.ErrNoChanges}
	}
	s.Phase = ConfirmingPhase{Changes: changes}
	return s, Render{}
}

func execute(s State) (State, Effect) {
	p, ok := s.Phase.(ConfirmingPhase)
	if !ok {
		if s.Stage() == StageExecuting {
			return s, Reject{Err: link.ErrBusy}
		}
		return s, Reject{Err: invalid(s, "execute")}
	}
	s, ticket := s.next(StageExecuting)
	s.Phase = ExecutingPhase{Ticket: ticket, Changes: p.Changes}
	return s, IssueUpdate{Ticket: ticket, Credential: s.Credential, Changes: link.CloneChanges(p.Changes)}
}

func completeExecute(s State, e ExecuteSucceeded) (State, Effect) {
	p, ok := s.Phase.(ExecutingPhase)
	if !ok || p.Ticket != e.Ticket {
		return s, Discard{Ticket: e.Ticket}
	}
	// Results are attributed to changes by position only.
	if len(e.Results) != len(p.Changes) {
		s.Phase = ConfirmingPhase{Changes: p.Changes, Err: &link.ApplicationError{
			Op:      "update",
			Message: fmt.Sprintf("expected %d results, got %d", len(p.Changes), len(e.Results)),
		}}
		return s, Render{}
	}

	results := link.CloneResults(e.Results)
	summary := e.Summary
	if computed := link.Summarize(results); summary != computed {
		summary = computed
	}
	s.Phase = DonePhase{Results: results, Summary: summary}
	return s, Render{}
}

func invalid(s State, action string) error {
	return fmt.Errorf("%s in %s stage: %w", action, s.Stage(), link.ErrInvalidTransition)
}
