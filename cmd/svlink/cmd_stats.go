package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"svlink/internal/link"
	"svlink/internal/usage"
)

var statsDays int

// statsCmd prints the local usage ledger
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many batches and lines this machine has processed",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Number of most recent days to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	tracker := openUsage()
	if tracker == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "usage ledger is disabled (usage.enabled: false)")
		return nil
	}
	stats := tracker.Stats()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Kind\tBatches\tLines\tSuccess\tFailed")
	for _, kind := range []link.Kind{link.KindGenerate, link.KindLookup, link.KindUpdate} {
		writeCounts(w, kind.String(), stats.ByKind[kind.String()])
	}
	writeCounts(w, "total", stats.Total)

	days := make([]string, 0, len(stats.ByDay))
	for day := range stats.ByDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if statsDays >= 0 && len(days) > statsDays {
		days = days[:statsDays]
	}
	if len(days) > 0 {
		fmt.Fprintln(w, "\nDay\tBatches\tLines\tSuccess\tFailed")
		for _, day := range days {
			writeCounts(w, day, stats.ByDay[day])
		}
	}
	return w.Flush()
}

func writeCounts(w *tabwriter.Writer, label string, c usage.BatchCounts) {
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", label, c.Batches, c.Lines, c.Success, c.Failed)
}
