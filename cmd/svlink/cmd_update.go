package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svlink/internal/export"
	"svlink/internal/link"
	"svlink/internal/workflow"
)

var assumeYes bool

// updateCmd re-targets short links
var updateCmd = &cobra.Command{
	Use:   "update [short-link new-target]...",
	Short: "Change the targets of existing short links",
	Long: `Resolves each short link, previews the changes and applies them.

Each input line holds a short link and, optionally, its new target separated
by whitespace. Lines without a new target are resolved but left unchanged.
Links that cannot be resolved are never updated.

Examples:
  svlink update sv.link/abc https://example.com/new
  svlink update --file changes.txt --yes --csv`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read 'link target' lines from file (- for stdin)")
	updateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Apply without asking for confirmation")
	updateCmd.Flags().BoolVar(&wantCSV, "csv", false, "Export results as CSV")
}

// parseUpdateLines splits "link [target]" lines into the link list and the
// edits keyed by line position. Lines with more than two fields are rejected.
func parseUpdateLines(text string) ([]string, map[int]string, error) {
	var links []string
	var extra []string
	edits := make(map[int]string)
	for i, line := range link.ParseLines(text) {
		fields := strings.Fields(line)
		if len(fields) > 2 {
			extra = append(extra, fmt.Sprintf("%d", i+1))
			continue
		}
		if len(fields) == 2 {
			edits[len(links)] = fields[1]
		}
		links = append(links, fields[0])
	}
	if len(extra) > 0 {
		return nil, nil, &link.ValidationError{
			Field:   "input",
			Message: fmt.Sprintf("expected 'link [target]' but got extra fields on line %s", strings.Join(extra, ", ")),
		}
	}
	return links, edits, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	if inputFile == "-" && !assumeYes {
		return &link.ValidationError{Field: "--file", Message: "reading updates from stdin requires --yes"}
	}

	text, err := readInput(cmd, pairArgs(args), inputFile)
	if err != nil {
		return err
	}
	links, edits, err := parseUpdateLines(text)
	if err != nil {
		return err
	}

	gw := newGateway()
	flow := workflow.NewController()

	if err := flow.Step(ctx, gw, workflow.LookupRequested{Credential: credential(), Text: strings.Join(links, "\n")}); err != nil {
		return err
	}
	for _, r := range flow.Records() {
		if !r.Resolved {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s could not be resolved and will not be updated\n", r.Identifier)
		}
	}

	if err := flow.Step(ctx, gw, workflow.ConfirmRequested{Edits: edits}); err != nil {
		return err
	}
	changes := flow.Changes()
	printChanges(cmd, changes)

	if !assumeYes && !confirmPrompt(cmd, fmt.Sprintf("Apply %d changes?", len(changes))) {
		fmt.Fprintln(cmd.OutOrStdout(), "aborted; nothing was changed")
		return nil
	}

	if err := flow.Step(ctx, gw, workflow.ExecuteRequested{}); err != nil {
		return err
	}
	results, summary := flow.Results()
	recordUsage(link.KindUpdate, summary)
	logger.Info("Batch updated", zap.Int("changes", len(changes)), zap.Int("failed", summary.Failed))
	if err := printTable(cmd, link.KindUpdate, results, summary); err != nil {
		return err
	}

	if wantCSV {
		exporter, err := newExporter(ctx, gw)
		if err != nil {
			return err
		}
		d, err := exporter.CSV(ctx, link.KindUpdate, results)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		printDeliveries(cmd, []export.Delivery{d})
	}
	return nil
}

// pairArgs turns "link target link target" arguments into lines.
func pairArgs(args []string) []string {
	lines := make([]string, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			lines = append(lines, args[i]+" "+args[i+1])
		} else {
			lines = append(lines, args[i])
		}
	}
	return lines
}

func printChanges(cmd *cobra.Command, changes []link.Change) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tShort Link\tCurrent Target\tNew Target")
	for _, c := range changes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.Index+1, c.Identifier, c.PreviousTarget, c.NewTarget)
	}
	w.Flush()
}
