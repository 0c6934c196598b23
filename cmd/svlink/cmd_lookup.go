package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svlink/internal/export"
	"svlink/internal/link"
	"svlink/internal/pipeline"
)

// lookupCmd reports visit counts for short links
var lookupCmd = &cobra.Command{
	Use:   "lookup [short-link...]",
	Short: "Look up visit counts and targets of short links",
	Long: `Looks up each short link and prints its views and target.

Example:
  svlink lookup sv.link/abc sv.link/def --csv`,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read short links from file (- for stdin)")
	lookupCmd.Flags().BoolVar(&wantCSV, "csv", false, "Export results as CSV")
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	text, err := readInput(cmd, args, inputFile)
	if err != nil {
		return err
	}

	gw := newGateway()
	p := pipeline.New(link.KindLookup)
	req, err := p.Run(ctx, gw, credential(), text)
	if err != nil {
		return err
	}
	logger.Info("Batch looked up", zap.Int("lines", len(req.Lines)))

	recordUsage(link.KindLookup, p.Summary())

	results := p.Results()
	if err := printTable(cmd, link.KindLookup, results, p.Summary()); err != nil {
		return err
	}

	if wantCSV {
		exporter, err := newExporter(ctx, gw)
		if err != nil {
			return err
		}
		d, err := exporter.CSV(ctx, link.KindLookup, results)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		printDeliveries(cmd, []export.Delivery{d})
	}
	return nil
}
