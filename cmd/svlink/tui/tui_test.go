package tui

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svlink/cmd/svlink/ui"
	"svlink/internal/export"
	"svlink/internal/gateway"
	"svlink/internal/gateway/gatewaytest"
	"svlink/internal/handoff"
	"svlink/internal/link"
	"svlink/internal/usage"
	"svlink/internal/workflow"
)

var (
	keyRun     = tea.KeyMsg{Type: tea.KeyCtrlR}
	keyReset   = tea.KeyMsg{Type: tea.KeyCtrlN}
	keyConfirm = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyTab     = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter   = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc     = tea.KeyMsg{Type: tea.KeyEscape}
	keyDown    = tea.KeyMsg{Type: tea.KeyDown}
)

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

type harness struct {
	fake    *gatewaytest.Fake
	copied  []string
	outDir  string
	handoff *handoff.Store
}

func newTestModel(t *testing.T, fake *gatewaytest.Fake) (Model, *harness) {
	t.Helper()
	h := &harness{fake: fake, outDir: t.TempDir()}
	store, err := handoff.Open(filepath.Join(t.TempDir(), "handoff.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	h.handoff = store

	m := New(Options{
		Gateway:    fake,
		Exporter:   export.New(fake, export.FileSink{Dir: h.outDir}),
		Handoff:    store,
		Credential: "key-1",
		Styles:     ui.NewStyles(ui.LightTheme()),
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	})
	return m, h
}

// send feeds msg to the model and runs the resulting commands to completion,
// feeding their messages back in.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	return drain(t, m, cmd)
}

func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case pipelineDoneMsg, workflowMsg, exportDoneMsg, handoffDoneMsg:
		m = send(t, m, msg)
	}
	return m
}

func shortenEcho(_ context.Context, _ string, urls []string) (gateway.Batch, error) {
	results := make([]link.BatchResult, len(urls))
	for i, u := range urls {
		if strings.Contains(u, "bad") {
			results[i] = link.BatchResult{Input: u, Detail: "invalid url"}
			continue
		}
		results[i] = link.BatchResult{Input: u, OutputValue: "https://sv.link/s" + string(rune('a'+i)), Success: true}
	}
	return gateway.Batch{Results: results, Summary: link.Summarize(results)}, nil
}

func TestGenerateTab_SubmitAndCopy(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho}
	m, h := newTestModel(t, fake)

	m.inputs[TabGenerate].SetValue("https://a.example\nhttps://bad.example\n")
	m = send(t, m, keyRun)

	assert.Equal(t, 1, fake.Calls("shorten"))
	results, summary := m.results(TabGenerate)
	require.Len(t, results, 2)
	assert.Equal(t, link.Summary{Total: 2, Success: 1, Failed: 1}, summary)
	assert.Equal(t, focusResults, m.focus)
	assert.Contains(t, m.status, "Total: 2")
	assert.Contains(t, m.View(), "Short URL")

	m = send(t, m, runeKey('c'))
	assert.Equal(t, []string{"https://sv.link/sa"}, h.copied)

	m = send(t, m, runeKey('j'))
	m = send(t, m, runeKey('c'))
	assert.True(t, m.statusErr, "failed rows have nothing to copy")
	assert.Len(t, h.copied, 1)
}

func TestGenerateTab_ValidationNeverCallsNetwork(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho}
	m, _ := newTestModel(t, fake)

	m.inputs[TabGenerate].SetValue("  \n\n")
	m = send(t, m, keyRun)

	assert.Zero(t, fake.TotalCalls())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "at least one")
}

func TestGenerateTab_DuplicateWarning(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho}
	m, _ := newTestModel(t, fake)

	m.inputs[TabGenerate].SetValue("https://x.example\nHTTPS://X.example")
	next, cmd := m.Update(keyRun)
	m = next.(Model)

	assert.False(t, m.statusErr)
	assert.True(t, m.statusWarn)
	assert.Contains(t, m.status, "Duplicate")
	assert.Contains(t, m.statusView(), "Duplicate")
	require.NotNil(t, cmd, "duplicates are submitted anyway")
	assert.True(t, m.busy())
}

func TestPipeline_StaleCompletionDropped(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho}
	m, _ := newTestModel(t, fake)

	m.inputs[TabGenerate].SetValue("https://a.example")
	next, cmd := m.Update(keyRun)
	m = next.(Model)
	require.NotNil(t, cmd)
	late := cmd()

	m = send(t, m, keyReset)
	m = send(t, m, late)

	results, _ := m.results(TabGenerate)
	assert.Empty(t, results)
	assert.False(t, m.statusErr)
}

func TestLookupTab_Failure(t *testing.T) {
	fake := &gatewaytest.Fake{LookupFn: func(context.Context, string, []string) (gateway.Batch, error) {
		return gateway.Batch{}, &link.ApplicationError{Op: "lookup", Status: 401, Message: "invalid api key"}
	}}
	m, _ := newTestModel(t, fake)

	m = send(t, m, keyTab)
	require.Equal(t, TabLookup, m.tab)
	m.inputs[TabLookup].SetValue("sv.link/abc")
	m = send(t, m, keyRun)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "invalid api key")
	assert.False(t, m.busy())
}

func resolveAll(_ context.Context, _ string, links []string) ([]gateway.ResolvedLink, error) {
	out := make([]gateway.ResolvedLink, len(links))
	for i, l := range links {
		out[i] = gateway.ResolvedLink{Link: l, LinkID: "id-" + l, Target: "old-" + l, Success: !strings.HasSuffix(l, "gone")}
	}
	return out, nil
}

func TestUpdateTab_FullWorkflow(t *testing.T) {
	fake := &gatewaytest.Fake{ResolveFn: resolveAll, UpdateFn: gatewaytest.EchoUpdate}
	m, _ := newTestModel(t, fake)
	m.tab = TabUpdate
	m.applyFocus()

	m.inputs[TabUpdate].SetValue("sv.link/a\nsv.link/gone\nsv.link/b")
	m = send(t, m, keyRun)

	require.Equal(t, workflow.StageEditing, m.flow.Stage())
	require.Len(t, m.edits, 3)
	assert.Equal(t, 0, m.editFocus)
	assert.Contains(t, m.status, "Resolved 2 of 3")
	assert.Contains(t, m.View(), "cannot edit")

	m = send(t, m, keyDown)
	assert.Equal(t, 2, m.editFocus, "unresolved rows are skipped")

	m.edits[0].SetValue("https://new-a.example")
	m.edits[1].SetValue("https://ignored.example")
	m = send(t, m, keyConfirm)

	require.Equal(t, workflow.StageConfirming, m.flow.Stage())
	require.Len(t, m.flow.Changes(), 1)
	assert.Zero(t, fake.Calls("update"))
	assert.Contains(t, m.View(), "https://new-a.example")

	m = send(t, m, keyEsc)
	require.Equal(t, workflow.StageEditing, m.flow.Stage())
	assert.Equal(t, "https://new-a.example", m.edits[0].Value(), "edits survive going back")

	m = send(t, m, keyConfirm)
	m = send(t, m, keyEnter)

	require.Equal(t, workflow.StageDone, m.flow.Stage())
	assert.Equal(t, 1, fake.Calls("update"))
	results, summary := m.results(TabUpdate)
	require.Len(t, results, 1)
	assert.Equal(t, link.Summary{Total: 1, Success: 1}, summary)
	assert.Equal(t, focusResults, m.focus)

	m = send(t, m, keyReset)
	assert.Equal(t, workflow.StageInput, m.flow.Stage())
	assert.Nil(t, m.edits)
}

func TestUpdateTab_NoChanges(t *testing.T) {
	fake := &gatewaytest.Fake{ResolveFn: resolveAll}
	m, _ := newTestModel(t, fake)
	m.tab = TabUpdate
	m.applyFocus()

	m.inputs[TabUpdate].SetValue("sv.link/a")
	m = send(t, m, keyRun)
	m = send(t, m, keyConfirm)

	assert.Equal(t, workflow.StageEditing, m.flow.Stage())
	assert.True(t, m.statusErr)
	assert.True(t, errors.Is(m.flow.Err(), link.ErrNoChanges))
}

func TestUpdateTab_ExecuteFailureReturnsToConfirm(t *testing.T) {
	fake := &gatewaytest.Fake{
		ResolveFn: resolveAll,
		UpdateFn: func(context.Context, string, []link.Change) (gateway.Batch, error) {
			return gateway.Batch{}, &link.TransportError{Op: "update", Err: errors.New("connection refused")}
		},
	}
	m, _ := newTestModel(t, fake)
	m.tab = TabUpdate
	m.applyFocus()

	m.inputs[TabUpdate].SetValue("sv.link/a")
	m = send(t, m, keyRun)
	m.edits[0].SetValue("https://n.example")
	m = send(t, m, keyConfirm)
	m = send(t, m, keyEnter)

	assert.Equal(t, workflow.StageConfirming, m.flow.Stage())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "connection refused")
}

func TestExportCSV(t *testing.T) {
	csv := "\ufeffOriginal URL,Short URL\nhttps://a.example,https://sv.link/sa\n"
	fake := &gatewaytest.Fake{
		ShortenFn: shortenEcho,
		ExportFn: func(_ context.Context, kind gateway.ExportKind, _ []link.BatchResult) (gateway.Artifact, error) {
			return gateway.Artifact{Content: base64.StdEncoding.EncodeToString([]byte(csv)), Filename: "sv-link-results.csv"}, nil
		},
	}
	m, h := newTestModel(t, fake)
	m.focus = focusResults
	m.applyFocus()

	m = send(t, m, runeKey('e'))
	assert.True(t, m.statusErr, "nothing to export yet")
	assert.Zero(t, fake.Calls("export"))

	m.inputs[TabGenerate].SetValue("https://a.example")
	m = send(t, m, keyRun)
	m = send(t, m, runeKey('e'))

	require.False(t, m.statusErr, m.status)
	assert.False(t, m.exporting)
	data, err := os.ReadFile(filepath.Join(h.outDir, "sv-link-results.csv"))
	require.NoError(t, err)
	assert.Equal(t, csv, string(data))
}

func TestGalleryHandoff(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho}
	m, h := newTestModel(t, fake)

	m.inputs[TabGenerate].SetValue("https://a.example\nhttps://b.example")
	m = send(t, m, keyRun)
	m = send(t, m, runeKey('g'))

	require.False(t, m.statusErr, m.status)
	require.Contains(t, m.status, "svlink gallery ")
	id := strings.TrimSuffix(strings.TrimPrefix(m.status, "Gallery ready: run `svlink gallery "), "`")

	got, err := h.handoff.Take(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGalleryHandoff_SecondPressWhileStoringIsBusy(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho}
	m, h := newTestModel(t, fake)

	m.inputs[TabGenerate].SetValue("https://a.example")
	m = send(t, m, keyRun)

	next, pending := m.Update(runeKey('g'))
	m = next.(Model)
	require.NotNil(t, pending)
	assert.True(t, m.handingOff)

	next, again := m.Update(runeKey('g'))
	m = next.(Model)
	assert.True(t, m.statusErr)
	assert.Equal(t, link.ErrBusy.Error(), m.status)

	m = drain(t, m, again)
	assert.Equal(t, link.ErrBusy.Error(), m.status, "the rejected press stores nothing")

	m = drain(t, m, pending)
	assert.False(t, m.handingOff)
	require.Contains(t, m.status, "svlink gallery ")

	id := strings.TrimSuffix(strings.TrimPrefix(m.status, "Gallery ready: run `svlink gallery "), "`")
	got, err := h.handoff.Take(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, &gatewaytest.Fake{})
	m.focus = focusResults
	m.applyFocus()

	m = send(t, m, runeKey('?'))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "close help")

	m = send(t, m, keyEsc)
	assert.False(t, m.showHelp)
}

func TestTabCycling(t *testing.T) {
	m, _ := newTestModel(t, &gatewaytest.Fake{})
	for _, want := range []Tab{TabLookup, TabUpdate, TabGenerate} {
		m = send(t, m, keyTab)
		assert.Equal(t, want, m.tab)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabUpdate, m.tab)
}

func TestUsageTracked(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenEcho, ResolveFn: resolveAll, UpdateFn: gatewaytest.EchoUpdate}
	m, _ := newTestModel(t, fake)
	tracker, err := usage.NewTracker(filepath.Join(t.TempDir(), "usage.json"))
	require.NoError(t, err)
	m.usage = tracker

	m.inputs[TabGenerate].SetValue("https://a.example\nhttps://bad.example")
	m = send(t, m, keyRun)

	m.tab = TabUpdate
	m.focus = focusInput
	m.applyFocus()
	m.inputs[TabUpdate].SetValue("sv.link/a")
	m = send(t, m, keyRun)
	m.edits[0].SetValue("https://n.example")
	m = send(t, m, keyConfirm)
	m = send(t, m, keyEnter)
	require.Equal(t, workflow.StageDone, m.flow.Stage())

	stats := tracker.Stats()
	assert.Equal(t, usage.BatchCounts{Batches: 1, Lines: 2, Success: 1, Failed: 1}, stats.ByKind["generate"])
	assert.Equal(t, usage.BatchCounts{Batches: 1, Lines: 1, Success: 1}, stats.ByKind["update"])
}
