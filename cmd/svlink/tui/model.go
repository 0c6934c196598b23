// Package tui implements the interactive svlink program: three tabs for
// the generate, lookup and update pipelines. Network calls run as tea.Cmds
// whose messages carry the ticket of the request that produced them, so
// late answers for abandoned requests are dropped.
package tui

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"svlink/cmd/svlink/ui"
	"svlink/internal/export"
	"svlink/internal/gateway"
	"svlink/internal/handoff"
	"svlink/internal/link"
	"svlink/internal/pipeline"
	"svlink/internal/usage"
	"svlink/internal/workflow"
)

// Tab identifies a pipeline tab.
type Tab int

const (
	TabGenerate Tab = iota
	TabLookup
	TabUpdate
	tabCount
)

var tabTitles = [...]string{
	TabGenerate: "Generate",
	TabLookup:   "Lookup",
	TabUpdate:   "Update",
}

func (t Tab) String() string { return tabTitles[t] }

func (t Tab) kind() link.Kind {
	switch t {
	case TabLookup:
		return link.KindLookup
	case TabUpdate:
		return link.KindUpdate
	default:
		return link.KindGenerate
	}
}

// focus is the widget receiving keystrokes.
type focus int

const (
	focusInput focus = iota
	focusCredential
	focusResults
)

// Options wires the program to its collaborators.
type Options struct {
	Gateway    gateway.Gateway
	Exporter   *export.Adapter
	Handoff    *handoff.Store // optional; gallery handoff is disabled when nil
	Usage      *usage.Tracker // optional
	Credential string
	Styles     ui.Styles
	ShowHelp   bool
	Clipboard  func(string) error
	Context    context.Context
}

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	gw       gateway.Gateway
	exporter *export.Adapter
	handoff  *handoff.Store
	usage    *usage.Tracker
	copyFn   func(string) error
	styles   ui.Styles

	width  int
	height int

	tab   Tab
	focus focus

	credential textinput.Model
	inputs     [tabCount]textarea.Model
	pipelines  [2]*pipeline.Pipeline // generate, lookup
	flow       *workflow.Controller

	// Update tab editing: one input per record, indexed like the store.
	edits     []textinput.Model
	editFocus int

	selected [tabCount]int
	spinner  spinner.Model
	viewport viewport.Model

	exporting  bool
	handingOff bool
	status     string
	statusErr  bool
	statusWarn bool

	showHelp bool
	renderer *glamour.TermRenderer
}

// New creates the model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	cred := textinput.New()
	cred.Placeholder = "sv.link API key"
	cred.EchoMode = textinput.EchoPassword
	cred.EchoCharacter = '•'
	cred.CharLimit = 256
	cred.SetValue(opts.Credential)

	var inputs [tabCount]textarea.Model
	placeholders := [tabCount]string{
		TabGenerate: "One URL per line",
		TabLookup:   "One short link per line",
		TabUpdate:   "One short link per line",
	}
	for i := range inputs {
		ta := textarea.New()
		ta.Placeholder = placeholders[i]
		ta.ShowLineNumbers = true
		ta.SetWidth(80)
		ta.SetHeight(8)
		ta.CharLimit = 0
		inputs[i] = ta
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Spinner

	m := Model{
		ctx:        ctx,
		gw:         opts.Gateway,
		exporter:   opts.Exporter,
		handoff:    opts.Handoff,
		usage:      opts.Usage,
		copyFn:     copyFn,
		styles:     opts.Styles,
		width:      100,
		height:     40,
		credential: cred,
		inputs:     inputs,
		pipelines: [2]*pipeline.Pipeline{
			pipeline.New(link.KindGenerate),
			pipeline.New(link.KindLookup),
		},
		flow:     workflow.NewController(),
		spinner:  sp,
		viewport: viewport.New(80, 12),
		showHelp: opts.ShowHelp,
	}
	if opts.Credential == "" {
		m.focus = focusCredential
	}
	m.applyFocus()
	m.renderer = newHelpRenderer(opts.Styles.Theme.IsDark, 80)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m *Model) pipelineFor(t Tab) *pipeline.Pipeline {
	switch t {
	case TabGenerate:
		return m.pipelines[0]
	case TabLookup:
		return m.pipelines[1]
	}
	return nil
}

// busy reports whether the current tab has a call outstanding.
func (m Model) busy() bool {
	if m.tab == TabUpdate {
		return m.flow.Busy()
	}
	return m.pipelineFor(m.tab).Busy()
}

// results returns the rows shown on tab t.
func (m Model) results(t Tab) ([]link.BatchResult, link.Summary) {
	if t == TabUpdate {
		return m.flow.Results()
	}
	p := m.pipelineFor(t)
	return p.Results(), p.Summary()
}

func (m *Model) applyFocus() {
	m.credential.Blur()
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	for i := range m.edits {
		m.edits[i].Blur()
	}

	switch m.focus {
	case focusCredential:
		m.credential.Focus()
	case focusInput:
		if m.tab == TabUpdate && m.flow.Stage() == workflow.StageEditing {
			if m.editFocus >= 0 && m.editFocus < len(m.edits) {
				m.edits[m.editFocus].Focus()
			}
			return
		}
		m.inputs[m.tab].Focus()
	}
}

func (m *Model) track(kind link.Kind, s link.Summary) {
	if m.usage != nil {
		m.usage.Track(kind, s)
	}
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
	m.statusWarn = false
}

func (m *Model) setWarning(msg string) {
	m.status = msg
	m.statusErr = false
	m.statusWarn = true
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	m.status = err.Error()
	m.statusErr = true
	m.statusWarn = false
}
