package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# svlink

Batch client for the sv.link short-link service.

## Everywhere

| Key | Action |
| --- | --- |
| tab / shift+tab | switch tab |
| ctrl+t | cycle focus: api key, input, results |
| ctrl+r | submit the current tab |
| ctrl+n | clear the current tab |
| ctrl+c | quit |

## Results

| Key | Action |
| --- | --- |
| up / down, k / j | select a row |
| c | copy the selected row |
| e | export CSV |
| z | export QR archive (generate) |
| g | hand off to the QR gallery (generate) |
| ? | toggle this help |

## Update tab

1. Paste short links, one per line, and press **ctrl+r** to resolve them.
2. Type new targets; **up / down** moves between editable rows. Rows that
   failed to resolve cannot be edited.
3. **ctrl+s** shows the changes, **esc** goes back, **enter** applies them.
`

// newHelpRenderer returns a markdown renderer for the help screen, or nil
// when glamour cannot build one.
func newHelpRenderer(isDark bool, width int) *glamour.TermRenderer {
	style := "light"
	if isDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m Model) helpView() string {
	if m.renderer == nil {
		return helpMarkdown
	}
	out, err := m.renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
