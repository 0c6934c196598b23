package workflow

import (
	"context"
	"sync"

	"svlink/internal/gateway"
	"svlink/internal/link"
	"svlink/internal/logging"
)

// Controller owns a State and serializes events against it.
type Controller struct {
	mu    sync.Mutex
	state State
}

// NewController creates a controller in the Input stage.
func NewController() *Controller {
	return &Controller{state: NewState()}
}

// Dispatch applies ev and returns the effect the caller must carry out.
func (c *Controller) Dispatch(ev Event) Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.state.Stage()
	next, eff := Reduce(c.state, ev)
	c.state = next

	switch e := eff.(type) {
	case Discard:
		logging.WorkflowWarn("%T for %s: %v", ev, e.Ticket, link.ErrStaleResponse)
	case Reject:
		logging.WorkflowDebug("%T rejected in %s: %v", ev, from, e.Err)
	default:
		if to := next.Stage(); to != from {
			logging.Workflow("%s -> %s", from, to)
		}
	}
	return eff
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stage returns the current stage.
func (c *Controller) Stage() Stage { return c.State().Stage() }

// Busy reports whether a network call is outstanding.
func (c *Controller) Busy() bool { return c.State().Stage().InFlight() }

// Records returns the resolved link records.
func (c *Controller) Records() []link.LinkRecord { return c.State().Records.All() }

// Changes returns the captured change set.
func (c *Controller) Changes() []link.Change { return c.State().Changes() }

// Results returns the execution outcome.
func (c *Controller) Results() ([]link.BatchResult, link.Summary) { return c.State().Results() }

// Err returns the error carried by the current stage.
func (c *Controller) Err() error { return c.State().Err() }

// Perform carries out a network effect and returns the completion event.
// Effects that need no I/O return nil. Perform does not touch any State,
// so it is safe to run on another goroutine.
func Perform(ctx context.Context, gw gateway.Gateway, eff Effect) Event {
	switch e := eff.(type) {
	case IssueResolve:
		items, err := gw.Resolve(ctx, e.Credential, e.Links)
		if err != nil {
			return LookupFailed{Ticket: e.Ticket, Err: err}
		}
		return LookupSucceeded{Ticket: e.Ticket, Items: items}
	case IssueUpdate:
		batch, err := gw.Update(ctx, e.Credential, e.Changes)
		if err != nil {
			return ExecuteFailed{Ticket: e.Ticket, Err: err}
		}
		return ExecuteSucceeded{Ticket: e.Ticket, Results: batch.Results, Summary: batch.Summary}
	}
	return nil
}

// Step dispatches ev and synchronously performs any network effect it
// produces until the session settles. It returns the error the settled
// stage carries, or the rejection.
func (c *Controller) Step(ctx context.Context, gw gateway.Gateway, ev Event) error {
	eff := c.Dispatch(ev)
	for {
		if r, ok := eff.(Reject); ok {
			return r.Err
		}
		completion := Perform(ctx, gw, eff)
		if completion == nil {
			break
		}
		eff = c.Dispatch(completion)
	}
	return c.Err()
}
