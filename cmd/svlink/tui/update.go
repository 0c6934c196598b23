package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"svlink/internal/link"
	"svlink/internal/logging"
	"svlink/internal/present"
	"svlink/internal/workflow"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pipelineDoneMsg:
		m.completePipeline(msg)

	case workflowMsg:
		if msg.event != nil {
			cmds = append(cmds, m.dispatch(msg.event))
		}

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			logging.UIError("%s export failed: %v", msg.what, msg.err)
			m.setError(fmt.Errorf("%s export failed: %w", msg.what, msg.err))
		} else {
			m.setStatus(describeDeliveries(msg.what, msg.deliveries))
		}

	case handoffDoneMsg:
		m.handingOff = false
		if msg.err != nil {
			m.setError(fmt.Errorf("gallery handoff failed: %w", msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Gallery ready: run `svlink gallery %s`", msg.id))
		}

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
	}

	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

func (m *Model) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	m.width, m.height = w, h
	inner := w - 4
	if inner < 20 {
		inner = 20
	}
	for i := range m.inputs {
		m.inputs[i].SetWidth(inner)
	}
	m.credential.Width = inner - 10
	m.viewport.Width = inner
	vh := h - 18
	if vh < 5 {
		vh = 5
	}
	m.viewport.Height = vh
	m.renderer = newHelpRenderer(m.styles.Theme.IsDark, inner)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.switchTab((m.tab + 1) % tabCount)
		return m, nil
	case "shift+tab":
		m.switchTab((m.tab + tabCount - 1) % tabCount)
		return m, nil
	case "ctrl+t":
		m.cycleFocus()
		return m, nil
	case "ctrl+r":
		return m.run()
	case "ctrl+n":
		return m.reset()
	}

	if m.showHelp {
		if s := msg.String(); s == "?" || s == "esc" || s == "q" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.tab == TabUpdate {
		if handled, next, cmd := m.handleUpdateKey(msg); handled {
			return next, cmd
		}
	}

	if m.focus == focusResults {
		return m.handleResultsKey(msg)
	}

	if msg.String() == "esc" {
		m.focus = focusResults
		m.applyFocus()
		return m, nil
	}
	return m.forwardKey(msg)
}

func (m *Model) switchTab(t Tab) {
	logging.UI("tab %s -> %s", m.tab, t)
	m.tab = t
	if m.focus == focusResults {
		m.focus = focusInput
	}
	m.applyFocus()
	m.setStatus("")
}

func (m *Model) cycleFocus() {
	switch m.focus {
	case focusCredential:
		m.focus = focusInput
	case focusInput:
		m.focus = focusResults
	default:
		m.focus = focusCredential
	}
	m.applyFocus()
}

// forwardKey passes a keystroke to the focused text widget.
func (m Model) forwardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusCredential:
		m.credential, cmd = m.credential.Update(msg)
	case focusInput:
		if m.tab == TabUpdate && m.flow.Stage() == workflow.StageEditing {
			if m.editFocus >= 0 && m.editFocus < len(m.edits) {
				m.edits[m.editFocus], cmd = m.edits[m.editFocus].Update(msg)
			}
			return m, cmd
		}
		if m.busy() {
			return m, nil
		}
		m.inputs[m.tab], cmd = m.inputs[m.tab].Update(msg)
	}
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	results, _ := m.results(m.tab)

	switch msg.String() {
	case "up", "k":
		if m.selected[m.tab] > 0 {
			m.selected[m.tab]--
		}
	case "down", "j":
		if m.selected[m.tab] < len(results)-1 {
			m.selected[m.tab]++
		}
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "?":
		m.showHelp = true
	case "i", "enter", "esc":
		m.focus = focusInput
		m.applyFocus()
	case "c":
		m.copySelected()
	case "e":
		return m.exportCSV()
	case "z":
		return m.exportQR()
	case "g":
		return m.startHandoff()
	}
	return m, nil
}

// run submits the current tab's input.
func (m Model) run() (Model, tea.Cmd) {
	credential := m.credential.Value()
	text := m.inputs[m.tab].Value()

	if m.tab == TabUpdate {
		if m.flow.Stage() != workflow.StageInput {
			return m, nil
		}
		cmd := m.dispatch(workflow.LookupRequested{Credential: credential, Text: text})
		return m, cmd
	}

	p := m.pipelineFor(m.tab)
	req, err := p.Begin(credential, text)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	if len(req.Duplicates) > 0 {
		m.setWarning(fmt.Sprintf("Duplicate entries submitted anyway: %s", strings.Join(req.Duplicates, ", ")))
	} else {
		m.setStatus(fmt.Sprintf("Submitting %d lines...", len(req.Lines)))
	}
	return m, runPipelineCmd(m.ctx, m.gw, m.tab, req)
}

func (m Model) reset() (Model, tea.Cmd) {
	m.selected[m.tab] = 0
	if m.tab == TabUpdate {
		cmd := m.dispatch(workflow.ResetRequested{})
		m.inputs[TabUpdate].Reset()
		m.setStatus("Update session restarted")
		m.focus = focusInput
		m.applyFocus()
		return m, cmd
	}
	m.pipelineFor(m.tab).Reset()
	m.setStatus("Results cleared")
	return m, nil
}

func (m *Model) completePipeline(msg pipelineDoneMsg) {
	p := m.pipelineFor(msg.tab)
	if p == nil {
		return
	}
	err := p.Complete(msg.ticket, msg.batch, msg.err)
	switch {
	case errors.Is(err, link.ErrStaleResponse):
		return
	case err != nil:
		m.setError(err)
		return
	}
	m.selected[msg.tab] = 0
	m.track(p.Kind(), p.Summary())
	if msg.tab == m.tab {
		m.setStatus(present.SummaryLine(p.Summary()))
		m.focus = focusResults
		m.applyFocus()
	}
}

// dispatch applies a workflow event and returns the command for its effect.
func (m *Model) dispatch(ev workflow.Event) tea.Cmd {
	before := m.flow.Stage()
	eff := m.flow.Dispatch(ev)
	after := m.flow.Stage()

	switch e := eff.(type) {
	case workflow.Reject:
		m.setError(e.Err)
	case workflow.Discard:
		return nil
	case workflow.Render:
		m.syncStage(before, after)
	case workflow.IssueResolve:
		m.setStatus(fmt.Sprintf("Resolving %d links...", len(e.Links)))
	case workflow.IssueUpdate:
		m.setStatus(fmt.Sprintf("Updating %d links...", len(e.Changes)))
	}
	return workflowCmd(m.ctx, m.gw, eff)
}

func (m *Model) syncStage(before, after workflow.Stage) {
	switch after {
	case workflow.StageInput:
		m.edits = nil
		m.editFocus = 0
		if err := m.flow.Err(); err != nil {
			m.setError(err)
		}
	case workflow.StageEditing:
		if before == workflow.StageResolving {
			m.buildEdits()
			records := m.flow.Records()
			resolved := 0
			for _, r := range records {
				if r.Resolved {
					resolved++
				}
			}
			m.setStatus(fmt.Sprintf("Resolved %d of %d links", resolved, len(records)))
		}
	case workflow.StageConfirming:
		if err := m.flow.Err(); err != nil {
			m.setError(err)
		} else {
			m.setStatus(fmt.Sprintf("%d changes ready: enter to execute, esc to go back", len(m.flow.Changes())))
		}
	case workflow.StageDone:
		_, summary := m.flow.Results()
		m.track(link.KindUpdate, summary)
		m.setStatus(present.SummaryLine(summary))
		m.selected[TabUpdate] = 0
	}
	m.focus = focusInput
	if after == workflow.StageDone {
		m.focus = focusResults
	}
	m.applyFocus()
}

func (m *Model) buildEdits() {
	records := m.flow.Records()
	m.edits = make([]textinput.Model, len(records))
	m.editFocus = -1
	for i, r := range records {
		ti := textinput.New()
		ti.CharLimit = 2048
		ti.Width = 48
		if r.Resolved {
			ti.Placeholder = "new target URL"
			if m.editFocus < 0 {
				m.editFocus = i
			}
		} else {
			ti.Placeholder = "cannot edit"
		}
		m.edits[i] = ti
	}
}

func (m *Model) moveEditFocus(delta int) {
	records := m.flow.Records()
	for i := m.editFocus + delta; i >= 0 && i < len(records); i += delta {
		if records[i].Resolved {
			m.editFocus = i
			break
		}
	}
	m.applyFocus()
}

// handleUpdateKey handles the stage-specific keys of the update tab.
func (m Model) handleUpdateKey(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch m.flow.Stage() {
	case workflow.StageResolving, workflow.StageExecuting:
		return true, m, nil

	case workflow.StageEditing:
		switch msg.String() {
		case "up", "shift+up":
			m.moveEditFocus(-1)
			return true, m, nil
		case "down", "shift+down":
			m.moveEditFocus(1)
			return true, m, nil
		case "ctrl+s":
			cmd := m.dispatch(workflow.ConfirmRequested{Edits: m.editValues()})
			return true, m, cmd
		}
		if m.focus != focusCredential {
			next, cmd := m.forwardKey(msg)
			return true, next, cmd
		}

	case workflow.StageConfirming:
		switch msg.String() {
		case "enter":
			cmd := m.dispatch(workflow.ExecuteRequested{})
			return true, m, cmd
		case "esc":
			cmd := m.dispatch(workflow.BackRequested{})
			return true, m, cmd
		}
		return true, m, nil
	}
	return false, m, nil
}

func (m Model) editValues() map[int]string {
	records := m.flow.Records()
	edits := make(map[int]string, len(m.edits))
	for i, ti := range m.edits {
		if i < len(records) {
			edits[records[i].Index] = ti.Value()
		}
	}
	return edits
}

func (m *Model) copySelected() {
	results, summary := m.results(m.tab)
	table := present.Render(m.tab.kind(), results, summary)
	row, ok := table.Row(m.selected[m.tab] + 1)
	if !ok {
		m.setError(link.ErrNothingToExport)
		return
	}
	if !row.Copyable {
		m.setError(fmt.Errorf("row %d failed; nothing to copy", row.Number))
		return
	}
	if err := m.copyFn(row.CopyValue); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s", row.CopyValue))
}

func (m Model) exportCSV() (Model, tea.Cmd) {
	results, _ := m.results(m.tab)
	if !m.canExport(results) {
		return m, nil
	}
	m.exporting = true
	m.setStatus("Exporting CSV...")
	return m, exportCSVCmd(m.ctx, m.exporter, m.tab.kind(), results)
}

func (m Model) exportQR() (Model, tea.Cmd) {
	if m.tab != TabGenerate {
		return m, nil
	}
	results, _ := m.results(m.tab)
	if !m.canExport(results) {
		return m, nil
	}
	if len(link.Successes(results)) == 0 {
		m.setError(link.ErrNoSuccessfulResults)
		return m, nil
	}
	m.exporting = true
	m.setStatus("Exporting QR archive...")
	return m, exportQRCmd(m.ctx, m.exporter, results)
}

func (m Model) startHandoff() (Model, tea.Cmd) {
	if m.tab != TabGenerate {
		return m, nil
	}
	if m.handoff == nil {
		m.setError(errors.New("gallery handoff is not configured"))
		return m, nil
	}
	if m.handingOff {
		m.setError(link.ErrBusy)
		return m, nil
	}
	results, _ := m.results(m.tab)
	if len(link.Successes(results)) == 0 {
		m.setError(link.ErrNoSuccessfulResults)
		return m, nil
	}
	m.handingOff = true
	m.setStatus("Storing gallery handoff...")
	return m, handoffCmd(m.ctx, m.handoff, results)
}

func (m *Model) canExport(results []link.BatchResult) bool {
	switch {
	case m.exporter == nil:
		m.setError(errors.New("export is not configured"))
	case m.exporting:
		m.setError(link.ErrBusy)
	case len(results) == 0:
		m.setError(link.ErrNothingToExport)
	default:
		return true
	}
	return false
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.resultsView(m.tab))
}
