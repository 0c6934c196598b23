package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"svlink/cmd/svlink/tui"
	"svlink/cmd/svlink/ui"
	"svlink/internal/logging"
)

// tuiCmd starts the interactive program
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive interface (default)",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw := newGateway()
	exporter, err := newExporter(ctx, gw)
	if err != nil {
		return err
	}

	store, err := openHandoff(ctx)
	if err != nil {
		logging.HandoffWarn("gallery handoff disabled: %v", err)
	} else {
		defer store.Close()
	}

	tracker := openUsage()
	if tracker != nil {
		defer func() {
			if err := tracker.Save(); err != nil {
				logging.BootError("failed to save usage ledger: %v", err)
			}
		}()
	}

	model := tui.New(tui.Options{
		Gateway:    gw,
		Exporter:   exporter,
		Handoff:    store,
		Usage:      tracker,
		Credential: credential(),
		Styles:     ui.NewStyles(ui.ThemeByName(cfg.UI.Theme)),
		ShowHelp:   cfg.UI.ShowHelp,
		Context:    ctx,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
