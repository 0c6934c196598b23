package gateway

import (
	"strconv"

	"github.com/tidwall/gjson"

	"svlink/internal/link"
)

// Extra column keys carried on normalized results.
const (
	ExtraTarget    = "target"
	ExtraCreated   = "created"
	ExtraNewTarget = "newTarget"
)

func resultsArray(op string, body []byte) ([]gjson.Result, error) {
	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return nil, &link.ApplicationError{Op: op, Message: "malformed response: missing results"}
	}
	return results.Array(), nil
}

func parseBatch(op string, body []byte, normalize func(gjson.Result) link.BatchResult) (Batch, error) {
	items, err := resultsArray(op, body)
	if err != nil {
		return Batch{}, err
	}
	results := make([]link.BatchResult, 0, len(items))
	for _, item := range items {
		results = append(results, normalize(item))
	}

	// The backend's summary is trusted only when it reconciles with the items.
	summary := link.Summarize(results)
	if s := gjson.GetBytes(body, "summary"); s.IsObject() {
		remote := link.Summary{
			Total:   int(s.Get("total").Int()),
			Success: int(s.Get("success").Int()),
			Failed:  int(s.Get("failed").Int()),
		}
		if remote == summary {
			summary = remote
		}
	}
	return Batch{Results: results, Summary: summary}, nil
}

// {original, short, success}; a failed item carries its error text in short.
func normalizeShorten(item gjson.Result) link.BatchResult {
	r := link.BatchResult{
		Input:   item.Get("original").String(),
		Success: item.Get("success").Bool(),
	}
	short := item.Get("short").String()
	if r.Success && short != "" {
		r.OutputValue = short
	} else {
		r.Success = false
		r.Detail = short
	}
	return r
}

// {link, views, target, created, success}
func normalizeLookup(item gjson.Result) link.BatchResult {
	r := link.BatchResult{
		Input:   item.Get("link").String(),
		Success: item.Get("success").Bool(),
		Extra: map[string]string{
			ExtraTarget:  item.Get("target").String(),
			ExtraCreated: item.Get("created").String(),
		},
	}
	views := item.Get("views").String()
	if r.Success {
		r.OutputValue = views
	} else {
		r.Detail = views
	}
	return r
}

// {shortUrl, newTarget, success, message | error}
func normalizeUpdate(item gjson.Result) link.BatchResult {
	newTarget := item.Get("newTarget").String()
	r := link.BatchResult{
		Input:   item.Get("shortUrl").String(),
		Success: item.Get("success").Bool(),
		Extra:   map[string]string{ExtraNewTarget: newTarget},
	}
	if r.Success {
		r.OutputValue = newTarget
		r.Detail = item.Get("message").String()
	} else {
		r.Detail = item.Get("error").String()
		if r.Detail == "" {
			r.Detail = item.Get("message").String()
		}
	}
	return r
}

// {link, linkId, target, visit_count, created_at, description, success}
func normalizeResolved(item gjson.Result) ResolvedLink {
	r := ResolvedLink{
		Link:        item.Get("link").String(),
		LinkID:      item.Get("linkId").String(),
		Target:      item.Get("target").String(),
		VisitCount:  item.Get("visit_count").Int(),
		CreatedAt:   item.Get("created_at").String(),
		Description: item.Get("description").String(),
		Success:     item.Get("success").Bool(),
	}
	if !r.Success {
		r.Target = ""
	}
	return r
}

// encodeResults converts normalized results back into the wire shape the
// export endpoints expect.
func encodeResults(kind ExportKind, results []link.BatchResult) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		switch kind {
		case ExportLookupCSV:
			views := any(r.Detail)
			if r.Success {
				views = r.OutputValue
				if n, err := strconv.ParseInt(r.OutputValue, 10, 64); err == nil {
					views = n
				}
			}
			out = append(out, map[string]any{
				"link":    r.Input,
				"views":   views,
				"target":  r.Extra[ExtraTarget],
				"created": r.Extra[ExtraCreated],
				"success": r.Success,
			})
		case ExportUpdateCSV:
			m := map[string]any{
				"shortUrl":  r.Input,
				"newTarget": r.Extra[ExtraNewTarget],
				"success":   r.Success,
			}
			if r.Success {
				m["newTarget"] = r.OutputValue
				m["message"] = r.Detail
			} else {
				m["error"] = r.Detail
			}
			out = append(out, m)
		default:
			short := r.OutputValue
			if !r.Success {
				short = r.Detail
			}
			out = append(out, map[string]any{
				"original": r.Input,
				"short":    short,
				"success":  r.Success,
			})
		}
	}
	return out
}
