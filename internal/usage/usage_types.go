package usage

import "svlink/internal/link"

// UsageData represents the root structure stored in persistence.
type UsageData struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// AggregatedStats holds batch counters broken down by kind and by day.
type AggregatedStats struct {
	Total  BatchCounts            `json:"total"`
	ByKind map[string]BatchCounts `json:"by_kind"` // generate, lookup, update
	ByDay  map[string]BatchCounts `json:"by_day"`  // YYYY-MM-DD, local time
}

// BatchCounts sums completed batches.
type BatchCounts struct {
	Batches int64 `json:"batches"`
	Lines   int64 `json:"lines"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

func (bc *BatchCounts) Add(s link.Summary) {
	bc.Batches++
	bc.Lines += int64(s.Total)
	bc.Success += int64(s.Success)
	bc.Failed += int64(s.Failed)
}
