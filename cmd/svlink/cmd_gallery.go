package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svlink/internal/export"
	"svlink/internal/handoff"
)

var galleryOut string

// galleryCmd renders a stored handoff as individual QR SVG files
var galleryCmd = &cobra.Command{
	Use:   "gallery [handoff-id]",
	Short: "Write one QR code SVG per short link of a stored handoff",
	Long: `Consumes a handoff created by 'svlink generate --gallery' (or the g key in
the interactive program) and writes one SVG per short link.

A handoff can be used once and expires after handoff.ttl.`,
	Args: cobra.ExactArgs(1),
	RunE: runGallery,
}

func init() {
	galleryCmd.Flags().StringVarP(&galleryOut, "out", "o", "", "Write SVG files to this directory instead of the export sink")
}

func runGallery(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	store, err := openHandoff(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Take(ctx, args[0])
	if errors.Is(err, handoff.ErrNotFound) {
		return fmt.Errorf("handoff %s not found or expired", args[0])
	}
	if err != nil {
		return err
	}

	var sink export.Sink = export.FileSink{Dir: galleryOut}
	if galleryOut == "" {
		if sink, err = newSink(ctx); err != nil {
			return err
		}
	}

	ds, err := export.New(newGateway(), sink).Gallery(ctx, results)
	printDeliveries(cmd, ds)
	if err != nil {
		return fmt.Errorf("gallery failed after %d files: %w", len(ds), err)
	}
	logger.Info("Gallery written", zap.Int("files", len(ds)))
	return nil
}
