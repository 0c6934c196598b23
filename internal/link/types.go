// Package link holds the data model shared by every svlink pipeline:
// link records resolved for editing, pending target changes, normalized
// batch results and their summary counts.
package link

// Kind identifies one of the three independent pipelines.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindLookup   Kind = "lookup"
	KindUpdate   Kind = "update"
)

// String returns the pipeline name.
func (k Kind) String() string { return string(k) }

// LinkRecord is one line of an update-flow input list after resolution.
// Index is the line position in the original input and is never reassigned.
type LinkRecord struct {
	Index         int
	Identifier    string
	LinkID        string  // backend id used by the update endpoint
	CurrentTarget *string // nil when the lookup failed
	Resolved      bool
}

// Target returns the current target, or "" for unresolved records.
func (r LinkRecord) Target() string {
	if r.CurrentTarget == nil {
		return ""
	}
	return *r.CurrentTarget
}

// Change is a proposed target update for one resolved record.
type Change struct {
	Index          int    `json:"index"`
	Identifier     string `json:"shortUrl"`
	LinkID         string `json:"linkId"`
	PreviousTarget string `json:"currentTarget"`
	NewTarget      string `json:"newTarget"`
}

// BatchResult is the normalized per-item outcome of every pipeline.
// OutputValue is empty whenever Success is false; the backend's failure
// text lands in Detail instead.
type BatchResult struct {
	Input       string
	OutputValue string
	Success     bool
	Detail      string
	Extra       map[string]string // pipeline specific columns (target, created, ...)
}

// Summary reconciles a result list. Success+Failed always equals Total.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Valid reports whether the counts reconcile.
func (s Summary) Valid() bool {
	return s.Total >= 0 && s.Success >= 0 && s.Failed >= 0 && s.Success+s.Failed == s.Total
}

// Summarize computes the summary of a result list.
func Summarize(results []BatchResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Success++
		}
	}
	s.Failed = s.Total - s.Success
	return s
}

// Successes returns the successful subset, preserving order.
func Successes(results []BatchResult) []BatchResult {
	out := make([]BatchResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}

// CloneResults returns a deep copy so callers cannot mutate shared slices.
func CloneResults(results []BatchResult) []BatchResult {
	if results == nil {
		return nil
	}
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = r
		if r.Extra != nil {
			out[i].Extra = make(map[string]string, len(r.Extra))
			for k, v := range r.Extra {
				out[i].Extra[k] = v
			}
		}
	}
	return out
}

// CloneChanges returns a copy of a change set.
func CloneChanges(changes []Change) []Change {
	if changes == nil {
		return nil
	}
	out := make([]Change, len(changes))
	copy(out, changes)
	return out
}
