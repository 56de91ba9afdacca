// Package strings holds the small text normalizers shared by request
// decoding, configuration and domain models.
package strings

import "strings"

// Fold trims and lower-cases s. Use it for case-insensitive keys such as
// emails, property types and units.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UniqueTrimmed trims every value and drops blanks and repeats, keeping the
// first occurrence. It returns nil when nothing survives.
func UniqueTrimmed(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SplitList splits a comma-separated list, trimming entries and dropping
// empty ones. Order and repeats are preserved.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
