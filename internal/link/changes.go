package link

import (
	"sort"
	"strings"
)

// BuildChanges derives the change set from raw per-row edits. Only resolved
// records with a non-empty trimmed edit produce a Change; edits keyed by an
// unknown or unresolved index are ignored. Output is ordered by Index.
//
// An edit equal to the current target still counts as a change.
func BuildChanges(store Store, edits map[int]string) []Change {
	indexes := make([]int, 0, len(edits))
	for idx := range edits {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var changes []Change
	for _, idx := range indexes {
		target := strings.TrimSpace(edits[idx])
		if target == "" {
			continue
		}
		rec, ok := store.Get(idx)
		if !ok || !rec.Resolved {
			continue
		}
		changes = append(changes, Change{
			Index:          rec.Index,
			Identifier:     rec.Identifier,
			LinkID:         rec.LinkID,
			PreviousTarget: rec.Target(),
			NewTarget:      target,
		})
	}
	return changes
}
