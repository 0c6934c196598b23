package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"svlink/internal/export"
	"svlink/internal/gateway"
	"svlink/internal/handoff"
	"svlink/internal/link"
	"svlink/internal/pipeline"
	"svlink/internal/workflow"
)

// pipelineDoneMsg completes a generate or lookup request.
type pipelineDoneMsg struct {
	tab    Tab
	ticket pipeline.Ticket
	batch  gateway.Batch
	err    error
}

// workflowMsg feeds a network completion back into the update workflow.
type workflowMsg struct {
	event workflow.Event
}

// exportDoneMsg reports delivered artifacts.
type exportDoneMsg struct {
	what       string
	deliveries []export.Delivery
	err        error
}

// handoffDoneMsg reports a stored gallery handoff.
type handoffDoneMsg struct {
	id  string
	err error
}

func runPipelineCmd(ctx context.Context, gw gateway.Gateway, tab Tab, req pipeline.Request) tea.Cmd {
	return func() tea.Msg {
		batch, err := pipeline.Call(ctx, gw, req)
		return pipelineDoneMsg{tab: tab, ticket: req.Ticket, batch: batch, err: err}
	}
}

// workflowCmd performs a workflow effect. Effects without I/O yield nil.
func workflowCmd(ctx context.Context, gw gateway.Gateway, eff workflow.Effect) tea.Cmd {
	switch eff.(type) {
	case workflow.IssueResolve, workflow.IssueUpdate:
	default:
		return nil
	}
	return func() tea.Msg {
		return workflowMsg{event: workflow.Perform(ctx, gw, eff)}
	}
}

func exportCSVCmd(ctx context.Context, a *export.Adapter, kind link.Kind, results []link.BatchResult) tea.Cmd {
	return func() tea.Msg {
		d, err := a.CSV(ctx, kind, results)
		if err != nil {
			return exportDoneMsg{what: "CSV", err: err}
		}
		return exportDoneMsg{what: "CSV", deliveries: []export.Delivery{d}}
	}
}

func exportQRCmd(ctx context.Context, a *export.Adapter, results []link.BatchResult) tea.Cmd {
	return func() tea.Msg {
		d, err := a.QRArchive(ctx, results)
		if err != nil {
			return exportDoneMsg{what: "QR archive", err: err}
		}
		return exportDoneMsg{what: "QR archive", deliveries: []export.Delivery{d}}
	}
}

func handoffCmd(ctx context.Context, store *handoff.Store, results []link.BatchResult) tea.Cmd {
	return func() tea.Msg {
		id, err := store.Put(ctx, results)
		return handoffDoneMsg{id: id, err: err}
	}
}

func describeDeliveries(what string, ds []export.Delivery) string {
	if len(ds) == 1 {
		return fmt.Sprintf("%s saved to %s", what, ds[0].Location)
	}
	return fmt.Sprintf("%s: %d files saved", what, len(ds))
}
