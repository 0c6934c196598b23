package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svlink/internal/config"
	"svlink/internal/export"
	"svlink/internal/gateway"
	"svlink/internal/handoff"
	"svlink/internal/link"
	"svlink/internal/present"
	"svlink/internal/usage"
)

// Shared command flags.
var (
	inputFile string
	wantCSV   bool
)

func newGateway() *gateway.Client {
	return gateway.NewClient(gateway.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.GetAPITimeout(),
		UserAgent: cfg.API.UserAgent,
	})
}

// newSink builds the configured export sink.
func newSink(ctx context.Context) (export.Sink, error) {
	if cfg.Export.Sink == config.SinkS3 {
		s3 := cfg.Export.S3
		return export.NewS3Sink(ctx, export.S3Config{
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			Endpoint:  s3.Endpoint,
			Prefix:    s3.Prefix,
			PathStyle: s3.PathStyle,
		})
	}
	return export.FileSink{Dir: cfg.Export.Dir}, nil
}

func newExporter(ctx context.Context, gw gateway.Gateway) (*export.Adapter, error) {
	sink, err := newSink(ctx)
	if err != nil {
		return nil, err
	}
	return export.New(gw, sink), nil
}

// openHandoff opens the gallery handoff store and purges expired entries.
func openHandoff(ctx context.Context) (*handoff.Store, error) {
	path := cfg.Handoff.Path
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	store, err := handoff.Open(path, cfg.GetHandoffTTL())
	if err != nil {
		return nil, err
	}
	if n, err := store.Sweep(ctx); err != nil {
		logger.Warn("handoff sweep failed", zap.Error(err))
	} else if n > 0 {
		logger.Debug("expired handoffs removed", zap.Int64("count", n))
	}
	return store, nil
}

// openUsage opens the usage ledger, or returns nil when it is disabled.
func openUsage() *usage.Tracker {
	if !cfg.Usage.Enabled || cfg.Usage.Path == "" {
		return nil
	}
	tracker, err := usage.NewTracker(cfg.Usage.Path)
	if err != nil {
		logger.Warn("usage ledger unavailable", zap.Error(err))
		return nil
	}
	return tracker
}

// recordUsage adds one completed batch to the usage ledger.
func recordUsage(kind link.Kind, summary link.Summary) {
	tracker := openUsage()
	if tracker == nil {
		return
	}
	tracker.Track(kind, summary)
	if err := tracker.Save(); err != nil {
		logger.Warn("failed to save usage ledger", zap.Error(err))
	}
}

// readInput returns the raw multi-line input: args joined by newlines, or
// the contents of file ("-" for stdin).
func readInput(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	}
	return strings.Join(args, "\n"), nil
}

func printTable(cmd *cobra.Command, kind link.Kind, results []link.BatchResult, summary link.Summary) error {
	return present.Render(kind, results, summary).WriteText(cmd.OutOrStdout())
}

func printDeliveries(cmd *cobra.Command, ds []export.Delivery) {
	for _, d := range ds {
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes) to %s\n", d.Name, d.Size, d.Location)
	}
}

// confirmPrompt asks a yes/no question on the command's streams.
func confirmPrompt(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
