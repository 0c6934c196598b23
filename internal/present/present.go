// Package present turns batch results into a renderable table. It is
// stateless: the same input always yields the same Table.
package present

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"svlink/internal/gateway"
	"svlink/internal/link"
)

// Status labels.
const (
	StatusSuccess = "OK"
	StatusFailed  = "FAILED"
)

// Row is one rendered result.
type Row struct {
	Number    int // 1-based position
	Success   bool
	Status    string
	Cells     []string
	CopyValue string
	Copyable  bool
}

// Table is the rendered form of one result set.
type Table struct {
	Kind        link.Kind
	Summary     link.Summary
	SummaryLine string
	Columns     []string
	Rows        []Row
}

var columns = map[link.Kind][]string{
	link.KindGenerate: {"Original URL", "Short URL"},
	link.KindLookup:   {"Short Link", "Views", "Target"},
	link.KindUpdate:   {"Short Link", "New Target", "Message"},
}

// Render builds the table for results. When summary does not reconcile
// with results it is recomputed from them.
func Render(kind link.Kind, results []link.BatchResult, summary link.Summary) Table {
	if computed := link.Summarize(results); summary != computed {
		summary = computed
	}

	t := Table{
		Kind:        kind,
		Summary:     summary,
		SummaryLine: SummaryLine(summary),
		Columns:     append([]string(nil), columns[kind]...),
		Rows:        make([]Row, 0, len(results)),
	}
	for i, r := range results {
		row := Row{Number: i + 1, Success: r.Success, Status: StatusFailed}
		if r.Success {
			row.Status = StatusSuccess
		}
		row.Cells = cells(kind, r)
		if r.Success {
			row.CopyValue = copyValue(kind, r)
			row.Copyable = row.CopyValue != ""
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SummaryLine formats summary counts.
func SummaryLine(s link.Summary) string {
	return fmt.Sprintf("Total: %d  Success: %d  Failed: %d", s.Total, s.Success, s.Failed)
}

func cells(kind link.Kind, r link.BatchResult) []string {
	value := r.OutputValue
	if !r.Success {
		value = r.Detail
	}
	switch kind {
	case link.KindLookup:
		return []string{r.Input, value, r.Extra[gateway.ExtraTarget]}
	case link.KindUpdate:
		target := r.OutputValue
		if target == "" {
			target = r.Extra[gateway.ExtraNewTarget]
		}
		return []string{r.Input, target, r.Detail}
	default:
		return []string{r.Input, value}
	}
}

// copyValue is the value offered by a row's copy action: the short link
// for generate and update rows, the view count for lookup rows.
func copyValue(kind link.Kind, r link.BatchResult) string {
	switch kind {
	case link.KindUpdate:
		return r.Input
	default:
		return r.OutputValue
	}
}

// Row returns the row with the given 1-based number.
func (t Table) Row(number int) (Row, bool) {
	if number < 1 || number > len(t.Rows) {
		return Row{}, false
	}
	return t.Rows[number-1], true
}

// Headers returns the full header row including the status and number columns.
func (t Table) Headers() []string {
	return append([]string{"#", "Status"}, t.Columns...)
}

// Records returns every row as plain strings, matching Headers.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, append([]string{strconv.Itoa(r.Number), r.Status}, r.Cells...))
	}
	return out
}

// WriteText writes the table as aligned plain text followed by the summary line.
func (t Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers(), "\t"))
	for _, rec := range t.Records() {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, t.SummaryLine)
	return err
}

// Text returns WriteText's output as a string.
func (t Table) Text() string {
	var b strings.Builder
	_ = t.WriteText(&b)
	return b.String()
}
