package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"svlink/cmd/svlink/ui"
	"svlink/internal/link"
	"svlink/internal/present"
	"svlink/internal/workflow"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("svlink · sv.link batch client"))
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n")
	b.WriteString(m.styles.RenderDivider(m.width))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.helpView())
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("? / esc close help"))
		return b.String()
	}

	b.WriteString(m.credentialView())
	b.WriteString("\n\n")

	if m.tab == TabUpdate {
		b.WriteString(m.updateView())
	} else {
		b.WriteString(m.pipelineView())
	}

	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.hints()))
	return b.String()
}

func (m Model) tabsView() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		style := m.styles.Tab
		if t == m.tab {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) credentialView() string {
	label := m.styles.Muted.Render("API key ")
	if m.focus == focusCredential {
		label = m.styles.Bold.Render("API key ")
	}
	return label + m.credential.View()
}

func (m Model) pipelineView() string {
	var b strings.Builder
	lines := len(link.ParseLines(m.inputs[m.tab].Value()))
	b.WriteString(m.inputs[m.tab].View())
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d lines", lines)))
	b.WriteString("\n")

	if m.busy() {
		b.WriteString(m.spinner.View() + " Working...")
		b.WriteString("\n")
		return b.String()
	}

	if results, _ := m.results(m.tab); len(results) > 0 {
		b.WriteString("\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) updateView() string {
	var b strings.Builder

	switch m.flow.Stage() {
	case workflow.StageInput:
		lines := len(link.ParseLines(m.inputs[TabUpdate].Value()))
		b.WriteString(m.inputs[TabUpdate].View())
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d links", lines)))
		b.WriteString("\n")

	case workflow.StageResolving:
		b.WriteString(m.spinner.View() + " Resolving links...\n")

	case workflow.StageEditing:
		b.WriteString(m.editorView())

	case workflow.StageConfirming:
		b.WriteString(m.confirmView())

	case workflow.StageExecuting:
		b.WriteString(m.spinner.View() + fmt.Sprintf(" Updating %d links...\n", len(m.flow.Changes())))

	case workflow.StageDone:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) editorView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Edit targets"))
	b.WriteString("\n")
	for i, r := range m.flow.Records() {
		marker := "  "
		if i == m.editFocus {
			marker = m.styles.Selected.Render("›") + " "
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, m.styles.Badge(r.Resolved), m.styles.Bold.Render(r.Identifier))
		if !r.Resolved {
			b.WriteString("    " + m.styles.Error.Render("lookup failed; cannot edit") + "\n")
			continue
		}
		b.WriteString("    " + m.styles.Muted.Render("current: "+r.Target()) + "\n")
		if i < len(m.edits) {
			b.WriteString("    " + m.edits[i].View() + "\n")
		}
	}
	return b.String()
}

func (m Model) confirmView() string {
	changes := m.flow.Changes()
	t := ui.NewSimpleTable(fmt.Sprintf("%d changes", len(changes)), []string{"#", "Short Link", "Current Target", "New Target"})
	t.MaxWidth = m.cellWidth(4)
	for _, c := range changes {
		t.AddRow(fmt.Sprint(c.Index+1), c.Identifier, c.PreviousTarget, c.NewTarget)
	}
	return t.View(m.styles)
}

// resultsView renders the result table for tab t.
func (m Model) resultsView(t Tab) string {
	results, summary := m.results(t)
	if len(results) == 0 {
		return ""
	}
	table := present.Render(t.kind(), results, summary)
	st := ui.FromResults("", table, m.styles)
	st.MaxWidth = m.cellWidth(len(table.Headers()))
	if m.focus == focusResults {
		st.Selected = m.selected[t]
	}
	return m.styles.Summary.Render(table.SummaryLine) + "\n" + st.View(m.styles)
}

func (m Model) cellWidth(cols int) int {
	if cols == 0 {
		return 0
	}
	w := (m.width - 4) / cols
	if w < 12 {
		w = 12
	}
	return w
}

func (m Model) statusView() string {
	if m.status == "" {
		return ""
	}
	switch {
	case m.statusErr:
		return m.styles.Error.Render(m.status)
	case m.statusWarn:
		return m.styles.Warning.Render(m.status)
	}
	return m.styles.Info.Render(m.status)
}

func (m Model) hints() string {
	if m.tab == TabUpdate {
		switch m.flow.Stage() {
		case workflow.StageInput:
			return "ctrl+r resolve · ctrl+t focus · tab switch · ctrl+c quit"
		case workflow.StageEditing:
			return "↑/↓ row · ctrl+s review · ctrl+n restart"
		case workflow.StageConfirming:
			return "enter apply · esc back · ctrl+n restart"
		case workflow.StageDone:
			return "c copy · e export CSV · ctrl+n new session · ? help"
		default:
			return "ctrl+n abandon · ctrl+c quit"
		}
	}
	if m.focus == focusResults {
		if m.tab == TabGenerate {
			return "j/k select · c copy · e CSV · z QR zip · g gallery · i edit · ? help"
		}
		return "j/k select · c copy · e CSV · i edit · ? help"
	}
	return "ctrl+r submit · esc results · ctrl+t focus · tab switch · ctrl+c quit"
}
