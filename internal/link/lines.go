package link

import "strings"

// ParseLines splits a newline separated list, trims every line and drops
// blank ones. Order is preserved.
func ParseLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// FindDuplicates returns every entry that occurs more than once, compared
// case-insensitively after trimming. Each duplicated entry is reported once,
// spelled as its first occurrence, in first-seen order.
func FindDuplicates(lines []string) []string {
	seen := make(map[string]int, len(lines))
	first := make(map[string]string, len(lines))
	var order []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := first[key]; !ok {
			first[key] = trimmed
			order = append(order, key)
		}
		seen[key]++
	}

	var dups []string
	for _, key := range order {
		if seen[key] > 1 {
			dups = append(dups, first[key])
		}
	}
	return dups
}

// ShortID extracts the address part of a short link ("sv.link/abc" -> "abc").
// Inputs without a slash are returned trimmed.
func ShortID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	identifier = strings.TrimRight(identifier, "/")
	if i := strings.LastIndex(identifier, "/"); i >= 0 {
		return identifier[i+1:]
	}
	return identifier
}
