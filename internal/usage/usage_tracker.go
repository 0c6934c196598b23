// Package usage keeps a local ledger of completed batches in usage.json.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"svlink/internal/link"
	"svlink/internal/logging"
)

const dayLayout = "2006-01-02"

// Tracker manages batch usage recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	dirty    bool
	now      func() time.Time
}

// NewTracker creates a tracker persisting to path. A missing or corrupt
// file starts an empty ledger.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}

	t := &Tracker{
		filePath: path,
		data:     UsageData{Version: "1.0"},
		now:      time.Now,
	}
	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryBoot).Warn("usage ledger %s unreadable, starting empty: %v", path, err)
		t.data = UsageData{Version: "1.0"}
	}
	t.ensureMaps()
	return t, nil
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &t.data)
}

func (t *Tracker) ensureMaps() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.data.Aggregate.ByKind == nil {
		t.data.Aggregate.ByKind = make(map[string]BatchCounts)
	}
	if t.data.Aggregate.ByDay == nil {
		t.data.Aggregate.ByDay = make(map[string]BatchCounts)
	}
}

// Save writes the usage data to disk when something changed.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	if err := t.saveLocked(); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Track records one completed batch.
func (t *Tracker) Track(kind link.Kind, s link.Summary) {
	if s.Total == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Aggregate.Total.Add(s)
	addToMap(t.data.Aggregate.ByKind, kind.String(), s)
	addToMap(t.data.Aggregate.ByDay, t.now().Format(dayLayout), s)
	t.dirty = true
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByKind = copyCountsMap(stats.ByKind)
	stats.ByDay = copyCountsMap(stats.ByDay)
	return stats
}

func copyCountsMap(src map[string]BatchCounts) map[string]BatchCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]BatchCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]BatchCounts, key string, s link.Summary) {
	entry := m[key]
	entry.Add(s)
	m[key] = entry
}
