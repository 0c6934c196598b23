// Package pipeline runs the single-request generate and lookup batches.
// Each Pipeline allows one request in flight and keeps the last
// successful result set until the next one replaces it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"svlink/internal/gateway"
	"svlink/internal/link"
	"svlink/internal/logging"
)

// Ticket tags a request with the pipeline session that issued it.
type Ticket struct {
	Session uuid.UUID
	Seq     uint64
}

// Request is one submitted batch.
type Request struct {
	Ticket     Ticket
	Kind       link.Kind
	Credential string
	Lines      []string
	Duplicates []string // generate only; reported, not removed
}

// Pipeline holds the state of one generate or lookup tab.
type Pipeline struct {
	mu       sync.Mutex
	kind     link.Kind
	session  uuid.UUID
	seq      uint64
	inflight *Ticket
	results  []link.BatchResult
	summary  link.Summary
	err      error
}

// New creates a pipeline for kind (generate or lookup).
func New(kind link.Kind) *Pipeline {
	return &Pipeline{kind: kind, session: uuid.New()}
}

// Kind returns the pipeline kind.
func (p *Pipeline) Kind() link.Kind { return p.kind }

// Begin validates input and marks a request in flight.
func (p *Pipeline) Begin(credential, text string) (Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.kind != link.KindGenerate && p.kind != link.KindLookup {
		return Request{}, fmt.Errorf("pipeline %s: unsupported kind", p.kind)
	}
	if p.inflight != nil {
		return Request{}, link.ErrBusy
	}

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Request{}, &link.ValidationError{Field: "api key", Message: "required"}
	}
	lines := link.ParseLines(text)
	if len(lines) == 0 {
		what := "url list"
		if p.kind == link.KindLookup {
			what = "link list"
		}
		return Request{}, &link.ValidationError{Field: what, Message: "enter at least one line"}
	}

	p.seq++
	ticket := Ticket{Session: p.session, Seq: p.seq}
	p.inflight = &ticket

	req := Request{Ticket: ticket, Kind: p.kind, Credential: credential, Lines: lines}
	if p.kind == link.KindGenerate {
		req.Duplicates = link.FindDuplicates(lines)
		if len(req.Duplicates) > 0 {
			logging.PipelineWarn("%d duplicated urls in input: %v", len(req.Duplicates), req.Duplicates)
		}
	}
	logging.Pipeline("%s: submitting %d lines (seq=%d)", p.kind, len(lines), ticket.Seq)
	return req, nil
}

// Complete records the outcome of ticket's request. A stale ticket yields
// ErrStaleResponse and changes nothing. A failed call keeps the previous
// results and returns callErr.
func (p *Pipeline) Complete(ticket Ticket, batch gateway.Batch, callErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inflight == nil || *p.inflight != ticket {
		logging.PipelineWarn("%s: dropping response for seq=%d", p.kind, ticket.Seq)
		return link.ErrStaleResponse
	}
	p.inflight = nil

	if callErr != nil {
		p.err = callErr
		return callErr
	}

	p.err = nil
	p.results = link.CloneResults(batch.Results)
	p.summary = link.Summarize(p.results)
	if batch.Summary != p.summary {
		logging.PipelineWarn("%s: backend summary %+v disagrees with results, recomputed", p.kind, batch.Summary)
	}
	return nil
}

// Reset drops results and abandons any request in flight.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = uuid.New()
	p.seq = 0
	p.inflight = nil
	p.results = nil
	p.summary = link.Summary{}
	p.err = nil
}

// Busy reports whether a request is in flight.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight != nil
}

// Results returns a copy of the last successful result set.
func (p *Pipeline) Results() []link.BatchResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return link.CloneResults(p.results)
}

// Summary returns the summary of the last successful result set.
func (p *Pipeline) Summary() link.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

// Err returns the last call failure, cleared by the next success.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Call performs req against gw without touching any Pipeline.
func Call(ctx context.Context, gw gateway.Gateway, req Request) (gateway.Batch, error) {
	switch req.Kind {
	case link.KindGenerate:
		return gw.Shorten(ctx, req.Credential, req.Lines)
	case link.KindLookup:
		return gw.Lookup(ctx, req.Credential, req.Lines)
	}
	return gateway.Batch{}, fmt.Errorf("pipeline %s: unsupported kind", req.Kind)
}

// Run begins, performs and completes a request synchronously.
func (p *Pipeline) Run(ctx context.Context, gw gateway.Gateway, credential, text string) (Request, error) {
	req, err := p.Begin(credential, text)
	if err != nil {
		return Request{}, err
	}
	batch, err := Call(ctx, gw, req)
	return req, p.Complete(req.Ticket, batch, err)
}
