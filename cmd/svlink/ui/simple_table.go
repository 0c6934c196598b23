package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"svlink/internal/present"
)

// SimpleTable is a simple table component for rendering static data.
type SimpleTable struct {
	Title    string
	Headers  []string
	Rows     [][]string
	Selected int // 0-based row index to highlight, -1 for none
	MaxWidth int // per-cell width cap, 0 for none
}

// NewSimpleTable creates a new SimpleTable with the given title and headers.
func NewSimpleTable(title string, headers []string) *SimpleTable {
	return &SimpleTable{
		Title:    title,
		Headers:  headers,
		Rows:     make([][]string, 0),
		Selected: -1,
	}
}

// FromResults builds a table from a rendered result set. The status column
// carries a colored badge.
func FromResults(title string, t present.Table, styles Styles) *SimpleTable {
	st := NewSimpleTable(title, t.Headers())
	for _, r := range t.Rows {
		row := append([]string{strconv.Itoa(r.Number), styles.Badge(r.Success)}, r.Cells...)
		st.AddRow(row...)
	}
	return st
}

// AddRow adds a row to the table.
func (t *SimpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table using the provided styles.
func (t *SimpleTable) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(t.clip(cell)); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}

	// lipgloss Width includes padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := styles.Bold.Copy().Padding(0, 1)
	rowStyle := styles.Body.Copy().Padding(0, 1)
	selectedStyle := styles.Selected.Copy().Padding(0, 1)
	sepStyle := styles.Muted

	for i, h := range t.Headers {
		sb.WriteString(headerStyle.Width(colWidths[i]).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(t.Headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")

	for r, row := range t.Rows {
		style := rowStyle
		if r == t.Selected {
			style = selectedStyle
		}
		for i, cell := range row {
			if i < len(colWidths) {
				sb.WriteString(style.Width(colWidths[i]).Render(t.clip(cell)))
				if i < len(row)-1 {
					sb.WriteString(sepStyle.Render("|"))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (t *SimpleTable) clip(cell string) string {
	if t.MaxWidth <= 0 || lipgloss.Width(cell) <= t.MaxWidth {
		return cell
	}
	runes := []rune(cell)
	if len(runes) <= t.MaxWidth {
		return cell
	}
	return string(runes[:t.MaxWidth-1]) + "…"
}
