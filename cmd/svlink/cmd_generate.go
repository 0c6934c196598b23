package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svlink/internal/export"
	"svlink/internal/link"
	"svlink/internal/pipeline"
)

var (
	wantQR      bool
	wantGallery bool
)

// generateCmd shortens a batch of URLs
var generateCmd = &cobra.Command{
	Use:   "generate [url...]",
	Short: "Shorten a batch of URLs",
	Long: `Shortens every URL in the input and prints one row per URL.

Duplicate URLs (compared case-insensitively) are reported but still submitted.

Examples:
  svlink generate https://example.com/a https://example.com/b
  svlink generate --file urls.txt --csv --qr
  cat urls.txt | svlink generate --file - --gallery`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read URLs from file (- for stdin)")
	generateCmd.Flags().BoolVar(&wantCSV, "csv", false, "Export results as CSV")
	generateCmd.Flags().BoolVar(&wantQR, "qr", false, "Export a QR code archive of the short links")
	generateCmd.Flags().BoolVar(&wantGallery, "gallery", false, "Store results for `svlink gallery`")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	text, err := readInput(cmd, args, inputFile)
	if err != nil {
		return err
	}

	gw := newGateway()
	p := pipeline.New(link.KindGenerate)
	req, err := p.Run(ctx, gw, credential(), text)
	if len(req.Duplicates) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: duplicate URLs submitted: %s\n", strings.Join(req.Duplicates, ", "))
	}
	if err != nil {
		return err
	}
	logger.Info("Batch shortened", zap.Int("lines", len(req.Lines)), zap.Int("failed", p.Summary().Failed))

	recordUsage(link.KindGenerate, p.Summary())

	results := p.Results()
	if err := printTable(cmd, link.KindGenerate, results, p.Summary()); err != nil {
		return err
	}

	if wantCSV || wantQR {
		exporter, err := newExporter(ctx, gw)
		if err != nil {
			return err
		}
		var ds []export.Delivery
		switch {
		case wantCSV && wantQR:
			ds, err = exporter.ExportAll(ctx, link.KindGenerate, results)
		case wantCSV:
			var d export.Delivery
			d, err = exporter.CSV(ctx, link.KindGenerate, results)
			ds = []export.Delivery{d}
		default:
			var d export.Delivery
			d, err = exporter.QRArchive(ctx, results)
			ds = []export.Delivery{d}
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		printDeliveries(cmd, ds)
	}

	if wantGallery {
		store, err := openHandoff(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Put(ctx, link.Successes(results))
		if err != nil {
			return fmt.Errorf("gallery handoff failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "gallery ready: svlink gallery %s\n", id)
	}
	return nil
}
